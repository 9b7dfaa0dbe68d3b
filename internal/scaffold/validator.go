package scaffold

import (
	"fmt"
	"os"
)

// CheckExisting checks if drover.yml already exists in the current directory
// Returns an error if it does, nil otherwise
func CheckExisting() error {
	if _, err := os.Stat("drover.yml"); err == nil {
		return fmt.Errorf("project already initialized\n\nFound existing: drover.yml\n\nUse 'drover init --force' to reinitialize (this will overwrite existing configuration)")
	}

	return nil
}
