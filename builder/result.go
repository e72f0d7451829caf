package builder

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/jeffrom/pressroom/format"
	"github.com/jeffrom/pressroom/pipeline"
)

type Result struct {
	ID          uuid.UUID                    `json:"id"`
	Started     time.Time                    `json:"started"`
	Duration    time.Duration                `json:"duration"`
	Production  bool                         `json:"production"`
	Pages       []*PageResult                `json:"pages"`
	Passthrough int                          `json:"passthrough"`
	Warnings    []error                      `json:"-"`
	Failures    []*pipeline.TransformFailure `json:"-"`
	Errors      []error                      `json:"-"`
}

type PageResult struct {
	Path       string `json:"path"`
	OutputPath string `json:"output_path"`
	Written    bool   `json:"written"`
	Err        error  `json:"-"`
}

// Written is the number of pages whose output changed.
func (r *Result) Written() int {
	n := 0
	for _, pr := range r.Pages {
		if pr.Err == nil && pr.Written {
			n++
		}
	}
	return n
}

// Err returns an error when any page failed to render or be written.
func (r *Result) Err() error {
	if r == nil || len(r.Errors) == 0 {
		return nil
	}
	return fmt.Errorf("%d page(s) failed: %w", len(r.Errors), errors.Join(r.Errors...))
}

func (r *Result) TextSummary(w io.Writer) error {
	bw := bufio.NewWriter(w)
	mode := "development"
	if r.Production {
		mode = "production"
	}
	fmt.Fprintf(bw, "build %s (%s): %d page(s), %d written, %d passthrough path(s) in %s\n",
		r.ID, mode, len(r.Pages), r.Written(), r.Passthrough, format.Duration(r.Duration))

	if len(r.Pages) > 0 {
		tw := format.NewTabWriter(bw)
		format.WriteTabHeader(tw, "source", "output", "written", "error")
		for _, pr := range r.Pages {
			errLabel := ""
			if pr.Err != nil {
				errLabel = "X"
			}
			format.WriteTabRow(tw, pr.Path, pr.OutputPath, format.Bool(pr.Written), errLabel)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	writeList(bw, "warning(s)", r.Warnings)
	failures := make([]error, len(r.Failures))
	for i, f := range r.Failures {
		failures[i] = f
	}
	writeList(bw, "transform failure(s)", failures)
	writeList(bw, "error(s)", r.Errors)
	return bw.Flush()
}

func writeList(bw *bufio.Writer, label string, errs []error) {
	if len(errs) == 0 {
		return
	}
	fmt.Fprintf(bw, "%d %s:\n", len(errs), label)
	for _, err := range errs {
		fmt.Fprintf(bw, "  - %s\n", err)
	}
}
