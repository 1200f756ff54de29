package settings

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Environment selects which rules of the build apply.
type Environment string

const (
	Development Environment = "development"
	Production  Environment = "production"
)

// ParseEnvironment maps a NODE_ENV style value to an Environment. Anything other
// than exactly "production", including the empty string, is development.
func ParseEnvironment(s string) Environment {
	if s == string(Production) {
		return Production
	}
	return Development
}

func (e Environment) IsProduction() bool {
	return e == Production
}

func (e Environment) String() string {
	return string(e)
}

const (
	DefaultTitle   = "PH-FE-TEMPLATE"
	DefaultPort    = 8888
	DefaultDevURL  = "http://127.0.0.1"
	DefaultMockURL = "http://127.0.0.1"
)

// Settings holds the static values consumed while assembling the build configuration.
type Settings struct {
	Title   string `yaml:"title"`
	Port    int    `yaml:"port"`
	DevURL  string `yaml:"dev_url"`
	MockURL string `yaml:"mock_url"`

	// Favicon and touch icon paths keyed by icon kind
	IconPaths map[string]string `yaml:"icon_paths"`
	// Variables injected into every stylesheet by the preprocessor
	StyleVariables map[string]string `yaml:"style_variables"`

	// Runtime values, never read from the settings file
	Env      Environment `yaml:"-"`
	Analyze  bool        `yaml:"-"`
	Parallel bool        `yaml:"-"`
}

// Default returns the settings used when no settings file is present.
func Default() Settings {
	return Settings{
		Title:   DefaultTitle,
		Port:    DefaultPort,
		DevURL:  DefaultDevURL,
		MockURL: DefaultMockURL,
		IconPaths: map[string]string{
			"favicon32":      "favicon.icon",
			"favicon16":      "favicon.icon",
			"appleTouchIcon": "favicon.icon",
			"maskIcon":       "favicon.icon",
			"msTileImage":    "favicon.icon",
		},
		StyleVariables: map[string]string{
			"hack": `true;@import "~@/style/_variables.less"`,
		},
		Env:      Development,
		Parallel: runtime.NumCPU() > 1,
	}
}

// Load reads a YAML settings file and overlays it on the defaults. A missing
// file is not an error.
func Load(path string) (Settings, error) {
	s := Default()
	if path == "" {
		return s, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return s, fmt.Errorf("failed to read settings: %w", err)
	}

	var file Settings
	if err := yaml.Unmarshal(data, &file); err != nil {
		return s, fmt.Errorf("failed to parse settings %s: %w", path, err)
	}

	if file.Title != "" {
		s.Title = file.Title
	}
	if file.Port != 0 {
		s.Port = file.Port
	}
	if file.DevURL != "" {
		s.DevURL = file.DevURL
	}
	if file.MockURL != "" {
		s.MockURL = file.MockURL
	}
	for k, v := range file.IconPaths {
		s.IconPaths[k] = v
	}
	for k, v := range file.StyleVariables {
		s.StyleVariables[k] = v
	}

	return s, nil
}
