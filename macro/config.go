package macro

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is where the engine looks for configuration when no
// explicit path is given.
const DefaultConfigPath = ".macroc.yaml"

const defaultOutputSuffix = "_gen.go"

// Config controls how the engine loads macros and writes generated files.
type Config struct {
	Name string `yaml:"name"`

	// Includes are macro definition files whose definitions are available
	// to every expansion, in addition to the file's own.
	Includes []string `yaml:"includes"`

	// StarlarkMacros are scripts registered as procedural macros.
	StarlarkMacros []string `yaml:"starlark-macros"`

	// IgnorePaths are glob patterns excluded from directory walks.
	IgnorePaths []string `yaml:"ignore-paths"`

	// RecursionLimit bounds expansion depth. Zero means the expander
	// default.
	RecursionLimit int `yaml:"recursion-limit"`

	// OutputSuffix replaces the .gom extension of generated files.
	OutputSuffix string `yaml:"output-suffix"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() Config {
	return Config{
		Name:         "macroc",
		OutputSuffix: defaultOutputSuffix,
	}
}

// LoadConfig reads a YAML configuration file. An empty path means
// DefaultConfigPath, whose absence is not an error; a path given
// explicitly must exist.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()

	fallback := path == ""
	if fallback {
		path = DefaultConfigPath
	}

	f, err := os.Open(path)
	if err != nil {
		if fallback && errors.Is(err, os.ErrNotExist) {
			return config, nil
		}
		return config, err
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&config); err != nil && !errors.Is(err, io.EOF) {
		return config, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if config.OutputSuffix == "" {
		config.OutputSuffix = defaultOutputSuffix
	}
	return config, nil
}
