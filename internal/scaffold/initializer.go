package scaffold

import (
	"embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed templates/*
var templatesFS embed.FS

// Initialize creates a starter drover.yml in the current directory.
// If force is true, an existing drover.yml is removed first.
func Initialize(force bool) error {
	if force {
		if err := handleForce(); err != nil {
			return err
		}
	}

	content, err := templatesFS.ReadFile("templates/drover.yml.tmpl")
	if err != nil {
		return fmt.Errorf("failed to read drover.yml template: %w", err)
	}

	if err := os.WriteFile("drover.yml", content, 0644); err != nil {
		return fmt.Errorf("failed to write drover.yml: %w", err)
	}

	return validateCreatedFile()
}

// handleForce removes an existing drover.yml if --force was specified
func handleForce() error {
	if _, err := os.Stat("drover.yml"); err == nil {
		fmt.Println("⚠️  Removing existing drover.yml...")
		if err := os.Remove("drover.yml"); err != nil {
			return fmt.Errorf("failed to remove drover.yml: %w", err)
		}
	}

	return nil
}

// validateCreatedFile checks that the written config parses as YAML
func validateCreatedFile() error {
	content, err := os.ReadFile("drover.yml")
	if err != nil {
		return fmt.Errorf("failed to read created drover.yml: %w", err)
	}

	var yamlData interface{}
	if err := yaml.Unmarshal(content, &yamlData); err != nil {
		return fmt.Errorf("created drover.yml is not valid YAML: %w", err)
	}

	return nil
}

// PrintSuccess prints the success message with next steps
func PrintSuccess() {
	fmt.Println("\n✅ Created drover.yml")
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Set board.id in drover.yml (or export DROVER_BOARD_ID)")
	fmt.Println("  2. Export the board credentials:")
	fmt.Println("       export DROVER_BOARD_KEY=<api key>")
	fmt.Println("       export DROVER_BOARD_TOKEN=<api token>")
	fmt.Println("  3. Run 'drover run' to start the daemon")
}
