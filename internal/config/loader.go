package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

// Default returns the embedded predator/prey scenario. It is the
// config used when the CLI is given no file.
func Default() (*Config, error) {
	return parse(defaultYAML, "embedded default")
}

// Load reads and validates a YAML config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return parse(data, path)
}

func parse(data []byte, origin string) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", origin, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", origin, err)
	}
	return &c, nil
}
