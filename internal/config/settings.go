package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file read when --config is not given.
const DefaultPath = ".drivercheck.yml"

// IDPlaceholder is substituted with the identifier in ReferencePattern.
const IDPlaceholder = "{id}"

// Settings holds the pipeline layout loaded from a config file.
// Zero fields are filled from Defaults by LoadSettings.
type Settings struct {
	Dir       string `yaml:"dir"`        // working directory for every stage
	BuildTool string `yaml:"build_tool"` // invoked as <build_tool> -C<build_dir>
	BuildDir  string `yaml:"build_dir"`
	Driver    string `yaml:"driver"` // program under test
	Output    string `yaml:"output"` // captured stdout of the driver

	Viewer     string   `yaml:"viewer"`
	ViewerArgs []string `yaml:"viewer_args"`
	DiffTool   string   `yaml:"diff_tool"`

	DefaultReference string `yaml:"default_reference"` // used when the identifier equals ReferenceID
	ReferencePattern string `yaml:"reference_pattern"` // must contain {id}
	ReferenceID      string `yaml:"reference_id"`      // identifier that selects DefaultReference
	DefaultID        string `yaml:"default_id"`        // identifier used when none is given

	Lock     bool          `yaml:"lock"`
	Watch    []string      `yaml:"watch,omitempty"`
	Debounce time.Duration `yaml:"debounce"`
}

// Defaults returns the stock layout: ninja in build/, build/driver_c writing
// output.txt, bat as viewer, delta as diff tool.
func Defaults() *Settings {
	return &Settings{
		Dir:              ".",
		BuildTool:        "ninja",
		BuildDir:         "build",
		Driver:           "./build/driver_c",
		Output:           "output.txt",
		Viewer:           "bat",
		ViewerArgs:       []string{"-l", "log"},
		DiffTool:         "delta",
		DefaultReference: "expected.txt",
		ReferencePattern: "./tests/expected_{id}.txt",
		ReferenceID:      "0",
		DefaultID:        "0",
		Watch:            []string{"src", "tests"},
		Debounce:         200 * time.Millisecond,
	}
}

// LoadSettings reads a YAML config file on top of Defaults.
// If the file does not exist, it returns Defaults and nil error.
func LoadSettings(path string) (*Settings, error) {
	s := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	return s, nil
}

// Validate checks that every command and path the pipeline needs is set.
func (s *Settings) Validate() error {
	required := []struct {
		name, value string
	}{
		{"build_tool", s.BuildTool},
		{"build_dir", s.BuildDir},
		{"driver", s.Driver},
		{"output", s.Output},
		{"viewer", s.Viewer},
		{"diff_tool", s.DiffTool},
		{"default_reference", s.DefaultReference},
		{"reference_pattern", s.ReferencePattern},
		{"reference_id", s.ReferenceID},
		{"default_id", s.DefaultID},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return fmt.Errorf("%s must not be empty", r.name)
		}
	}

	if !strings.Contains(s.ReferencePattern, IDPlaceholder) {
		return fmt.Errorf("reference_pattern %q has no %s placeholder", s.ReferencePattern, IDPlaceholder)
	}
	if s.Debounce < 0 {
		return fmt.Errorf("debounce must not be negative, got %v", s.Debounce)
	}

	return nil
}
