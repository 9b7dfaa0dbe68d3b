package scaffold

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dovecote/drover/internal/config"
)

func TestInitialize(t *testing.T) {
	tests := []struct {
		name      string
		force     bool
		setupFunc func(dir string)
		wantErr   bool
	}{
		{
			name:      "fresh initialization",
			force:     false,
			setupFunc: func(dir string) {},
			wantErr:   false,
		},
		{
			name:  "force initialization replaces existing file",
			force: true,
			setupFunc: func(dir string) {
				os.WriteFile(filepath.Join(dir, "drover.yml"), []byte("old content"), 0644)
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()

			// Change to test directory
			originalDir, err := os.Getwd()
			if err != nil {
				t.Fatal(err)
			}
			defer os.Chdir(originalDir)

			if err := os.Chdir(tmpDir); err != nil {
				t.Fatal(err)
			}

			tt.setupFunc(tmpDir)

			err = Initialize(tt.force)

			if (err != nil) != tt.wantErr {
				t.Errorf("Initialize() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				return
			}

			// Verify drover.yml is valid YAML
			content, err := os.ReadFile(filepath.Join(tmpDir, "drover.yml"))
			if err != nil {
				t.Fatalf("Failed to read drover.yml: %v", err)
			}

			var yamlData interface{}
			if err := yaml.Unmarshal(content, &yamlData); err != nil {
				t.Errorf("drover.yml is not valid YAML: %v", err)
			}

			if tt.force {
				if string(content) == "old content" {
					t.Errorf("Expected old drover.yml to be replaced, but it still has the old content")
				}
			}
		})
	}
}

// TestTemplateMatchesConfig catches drift between the template keys and the
// config struct: every uncommented value must land in the right field.
func TestTemplateMatchesConfig(t *testing.T) {
	content, err := templatesFS.ReadFile("templates/drover.yml.tmpl")
	if err != nil {
		t.Fatal(err)
	}

	var cfg config.Config
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		t.Fatalf("template does not parse into the config struct: %v", err)
	}

	if cfg.Columns.Queue != "In Line" {
		t.Errorf("columns.queue = %q, want %q", cfg.Columns.Queue, "In Line")
	}
	if cfg.Columns.Running != "Deploying" {
		t.Errorf("columns.running = %q, want %q", cfg.Columns.Running, "Deploying")
	}
	if cfg.Columns.Done != "Completed" {
		t.Errorf("columns.done = %q, want %q", cfg.Columns.Done, "Completed")
	}
	if got := time.Duration(cfg.Monitor.PollInterval); got != 3*time.Second {
		t.Errorf("monitor.poll_interval = %v, want 3s", got)
	}
	if got := time.Duration(cfg.Monitor.NotifyPatience); got != 5*time.Minute {
		t.Errorf("monitor.notify_patience = %v, want 5m", got)
	}
	if cfg.API.ListenAddr != ":8080" {
		t.Errorf("api.listen_addr = %q, want %q", cfg.API.ListenAddr, ":8080")
	}
}

func TestHandleForce(t *testing.T) {
	tmpDir := t.TempDir()

	originalDir, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(originalDir)

	if err := os.Chdir(tmpDir); err != nil {
		t.Fatal(err)
	}

	t.Run("removes existing drover.yml", func(t *testing.T) {
		if err := os.WriteFile("drover.yml", []byte("content"), 0644); err != nil {
			t.Fatal(err)
		}
		if err := handleForce(); err != nil {
			t.Errorf("handleForce() error = %v", err)
		}
		if _, err := os.Stat("drover.yml"); err == nil {
			t.Errorf("Expected drover.yml to be removed, but it still exists")
		}
	})

	t.Run("no existing file is fine", func(t *testing.T) {
		if err := handleForce(); err != nil {
			t.Errorf("handleForce() error = %v", err)
		}
	})
}
