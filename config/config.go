// Package config loads site configuration and resolves it into an immutable
// build plan.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ghodss/yaml"
)

// DefaultFile is the config file name looked up in the project directory.
const DefaultFile = "pressroom.yaml"

// Config is the declarative, unvalidated site configuration. Paths are
// relative to the project directory unless absolute.
type Config struct {
	Input           string            `json:"input"`
	Output          string            `json:"output"`
	Includes        string            `json:"includes,omitempty"`
	TemplateFormats []string          `json:"templateFormats"`
	Passthrough     []string          `json:"passthrough,omitempty"`
	LayoutAliases   map[string]string `json:"layoutAliases,omitempty"`
	Ignore          []string          `json:"ignore,omitempty"`
}

// Defaults returns the configuration of the blog this tool was built for.
func Defaults() Config {
	return Config{
		Input:           "src/site",
		Output:          "dist",
		Includes:        "_includes",
		TemplateFormats: []string{"md", "html"},
		Passthrough: []string{
			"src/site/fonts",
			"src/site/images",
			"src/site/code-for-posts",
			"src/site/css",
		},
		LayoutAliases: map[string]string{
			"default": "layouts/base.html",
		},
	}
}

// LoadDir loads DefaultFile from dir, falling back to Defaults when the file
// does not exist.
func LoadDir(dir string) (Config, error) {
	p := filepath.Join(dir, DefaultFile)
	if _, err := os.Stat(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Defaults(), nil
		}
		return Config{}, err
	}
	return LoadFile(p)
}

// LoadFile reads a yaml config file. Fields missing from the file keep their
// default values.
func LoadFile(p string) (Config, error) {
	b, err := os.ReadFile(p)
	if err != nil {
		return Config{}, err
	}
	return Parse(b)
}

func Parse(b []byte) (Config, error) {
	cfg := Defaults()
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: failed to parse: %w", err)
	}
	return cfg, nil
}
