package builder

import (
	"fmt"
	"strings"
)

// OutputCollisionError is returned before anything is written when more than
// one source maps to the same output path.
type OutputCollisionError struct {
	OutputPath string
	Sources    []string
}

func (e *OutputCollisionError) Error() string {
	return fmt.Sprintf("builder: output %q is produced by more than one source: %s", e.OutputPath, strings.Join(e.Sources, ", "))
}

// RenderError is a page that could not be rendered. Other pages are still
// written.
type RenderError struct {
	Path string
	Err  error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("builder: %s: %v", e.Path, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }
