// Package pipeline applies ordered content transforms to rendered pages.
//
// Transforms run at one of two stages. FilterTime rules act on a page's
// content while it is rendered, before it is placed in its layout.
// OutputTime rules act on the fully composed output file and only run in
// production mode. A failing rule never aborts a build: the failure is
// recorded and the content it was given continues down the pipeline.
package pipeline

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jeffrom/pressroom/config"
)

type Stage int

const (
	FilterTime Stage = iota
	OutputTime
)

func (s Stage) String() string {
	switch s {
	case FilterTime:
		return "filter"
	case OutputTime:
		return "output"
	default:
		return fmt.Sprintf("Stage(%d)", int(s))
	}
}

// Asset identifies the page being transformed. Path is the source path
// relative to the input directory, OutputPath the destination relative to
// the output directory.
type Asset struct {
	Path       string
	OutputPath string
}

// Rule is a single named content transform.
type Rule struct {
	Name  string
	Stage Stage

	// EnabledWhen gates the rule on the build plan. nil means always.
	EnabledWhen func(plan *config.BuildPlan) bool

	// Match selects the assets the rule is applied to at its stage. nil
	// matches every asset.
	Match func(a Asset) bool

	// FilterOnly rules are skipped at their stage and only run when called
	// by name as a template filter.
	FilterOnly bool

	Apply func(content string) (string, error)
}

func (r Rule) enabled(plan *config.BuildPlan) bool {
	if r.EnabledWhen == nil {
		return true
	}
	return r.EnabledWhen(plan)
}

func (r Rule) matches(a Asset) bool {
	if r.FilterOnly {
		return false
	}
	return r.Match == nil || r.Match(a)
}

// Production is an EnabledWhen predicate for rules that only run in
// production builds.
func Production(plan *config.BuildPlan) bool {
	return plan != nil && plan.ProductionMode()
}

// MatchSourceExt returns a Match func selecting assets whose source has one
// of exts, given with the leading dot.
func MatchSourceExt(exts ...string) func(Asset) bool {
	return func(a Asset) bool { return hasExt(a.Path, exts) }
}

// MatchOutputExt is MatchSourceExt for the output path.
func MatchOutputExt(exts ...string) func(Asset) bool {
	return func(a Asset) bool { return hasExt(a.OutputPath, exts) }
}

func hasExt(p string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(p))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}
