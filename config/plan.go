package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// EnvMode is the environment variable selecting the build mode.
const EnvMode = "NODE_ENV"

// KnownFormats are the template formats a page renderer exists for.
var KnownFormats = []string{"md", "html", "tmpl"}

// Env looks up an environment variable. os.Getenv satisfies it.
type Env func(key string) string

// Passthrough is a resolved passthrough copy: Source is the absolute path on
// disk, Dest is its location relative to the output directory.
type Passthrough struct {
	Source string `json:"source"`
	Dest   string `json:"dest"`
}

// BuildPlan is the resolved configuration for a single build. It is created
// by Resolve and never modified afterwards; accessors return copies.
type BuildPlan struct {
	rootDir         string
	inputDir        string
	outputDir       string
	includesDir     string
	templateFormats map[string]bool
	passthrough     []Passthrough
	layoutAliases   map[string]string
	ignore          []string
	productionMode  bool
}

// Resolve validates cfg and resolves it against the project directory root.
// Missing passthrough paths are returned as warnings and left out of the
// plan. env is consulted once, for EnvMode.
func Resolve(root string, cfg Config, env Env) (*BuildPlan, []error, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Input == "" {
		return nil, nil, &ConfigError{Field: "input", Reason: "must not be empty"}
	}
	if cfg.Output == "" {
		return nil, nil, &ConfigError{Field: "output", Reason: "must not be empty"}
	}

	inputDir := resolvePath(absRoot, cfg.Input)
	outputDir := resolvePath(absRoot, cfg.Output)
	if inputDir == outputDir {
		return nil, nil, &ConfigError{
			Field:  "output",
			Reason: fmt.Sprintf("output directory %q is the same as the input directory", cfg.Output),
		}
	}

	formats, err := resolveFormats(cfg.TemplateFormats)
	if err != nil {
		return nil, nil, err
	}

	includes := cfg.Includes
	if includes == "" {
		includes = "_includes"
	}

	pl := &BuildPlan{
		rootDir:         absRoot,
		inputDir:        inputDir,
		outputDir:       outputDir,
		includesDir:     filepath.Join(inputDir, filepath.Clean(includes)),
		templateFormats: formats,
		layoutAliases:   make(map[string]string, len(cfg.LayoutAliases)),
		ignore:          append([]string(nil), cfg.Ignore...),
	}
	for k, v := range cfg.LayoutAliases {
		pl.layoutAliases[k] = v
	}
	if env != nil {
		pl.productionMode = env(EnvMode) == "production"
	}

	var warnings []error
	for _, p := range cfg.Passthrough {
		src := resolvePath(absRoot, p)
		if _, err := os.Stat(src); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				warnings = append(warnings, &MissingPassthroughPathError{Path: p})
				continue
			}
			return nil, warnings, err
		}
		pl.passthrough = append(pl.passthrough, Passthrough{
			Source: src,
			Dest:   passthroughDest(absRoot, inputDir, src),
		})
	}
	return pl, warnings, nil
}

func resolveFormats(formats []string) (map[string]bool, error) {
	if len(formats) == 0 {
		return nil, &ConfigError{Field: "templateFormats", Reason: "at least one format is required"}
	}
	res := make(map[string]bool, len(formats))
	for _, f := range formats {
		f = strings.ToLower(strings.TrimPrefix(f, "."))
		if !isKnownFormat(f) {
			return nil, &ConfigError{
				Field:  "templateFormats",
				Reason: fmt.Sprintf("unknown format %q (known: %s)", f, strings.Join(KnownFormats, ", ")),
			}
		}
		res[f] = true
	}
	return res, nil
}

func isKnownFormat(f string) bool {
	for _, known := range KnownFormats {
		if f == known {
			return true
		}
	}
	return false
}

func resolvePath(root, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(root, p)
}

// passthroughDest mirrors src under the output directory. Paths inside the
// input directory lose the input prefix, as pages do.
func passthroughDest(root, inputDir, src string) string {
	if rel, err := filepath.Rel(inputDir, src); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	if rel, err := filepath.Rel(root, src); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return filepath.Base(src)
}

func (p *BuildPlan) RootDir() string     { return p.rootDir }
func (p *BuildPlan) InputDir() string    { return p.inputDir }
func (p *BuildPlan) OutputDir() string   { return p.outputDir }
func (p *BuildPlan) IncludesDir() string { return p.includesDir }
func (p *BuildPlan) ProductionMode() bool {
	return p.productionMode
}

// TemplateFormats returns the recognized formats, sorted.
func (p *BuildPlan) TemplateFormats() []string {
	res := make([]string, 0, len(p.templateFormats))
	for f := range p.templateFormats {
		res = append(res, f)
	}
	sort.Strings(res)
	return res
}

// HasFormat reports whether ext (with or without the leading dot) is a
// recognized template format.
func (p *BuildPlan) HasFormat(ext string) bool {
	return p.templateFormats[strings.ToLower(strings.TrimPrefix(ext, "."))]
}

func (p *BuildPlan) PassthroughPaths() []Passthrough {
	return append([]Passthrough(nil), p.passthrough...)
}

func (p *BuildPlan) Ignore() []string {
	return append([]string(nil), p.ignore...)
}

// LayoutAlias returns the layout path an alias points to, or name itself.
func (p *BuildPlan) LayoutAlias(name string) string {
	if v, ok := p.layoutAliases[name]; ok {
		return v
	}
	return name
}

// WithProductionMode returns a copy of the plan with productionMode set. The
// receiver is unchanged.
func (p *BuildPlan) WithProductionMode(v bool) *BuildPlan {
	next := *p
	next.productionMode = v
	return &next
}
