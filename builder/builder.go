// Package builder runs a site build: it discovers pages in the input
// directory, copies passthrough paths, renders pages concurrently through the
// transform pipeline, and writes the results to the output directory.
package builder

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/otiai10/copy"
	"github.com/rs/zerolog"

	"github.com/jeffrom/pressroom/config"
	"github.com/jeffrom/pressroom/execute"
	"github.com/jeffrom/pressroom/metrics"
	"github.com/jeffrom/pressroom/opfs"
	"github.com/jeffrom/pressroom/pipeline"
	"github.com/jeffrom/pressroom/render"
	"github.com/jeffrom/pressroom/stdio"
)

type Options struct {
	// Concurrency is the number of pages rendered at once. Defaults to the
	// number of CPUs.
	Concurrency int

	// Precompress writes a .gz sibling next to compressible outputs.
	Precompress bool

	// Warnings from resolving the configuration, included in every Result.
	Warnings []error

	Metrics *metrics.Recorder
}

type Builder struct {
	plan *config.BuildPlan
	pipe *pipeline.Pipeline
	opts Options
}

func New(plan *config.BuildPlan, pipe *pipeline.Pipeline, opts Options) *Builder {
	if opts.Concurrency < 1 {
		opts.Concurrency = runtime.NumCPU()
	}
	return &Builder{plan: plan, pipe: pipe, opts: opts}
}

// Build runs a full build. The returned error is fatal: the configuration
// could not be acted on, outputs collide, or ctx was cancelled. Pages that
// failed to render are reported in the Result; see Result.Err.
func (b *Builder) Build(ctx context.Context) (*Result, error) {
	std := stdio.FromContext(ctx).AppendScope("build")
	logger := std.Logger()
	res := &Result{
		ID:         uuid.New(),
		Started:    time.Now(),
		Production: b.plan.ProductionMode(),
	}
	rep := pipeline.NewReport()
	for _, w := range b.opts.Warnings {
		rep.AddWarning(w)
	}
	defer func() {
		res.Duration = time.Since(res.Started)
		res.Warnings = rep.Warnings()
		res.Failures = rep.Failures()
		b.record(res)
	}()

	if info, err := os.Stat(b.plan.InputDir()); err != nil {
		return res, &config.ConfigError{Field: "input", Reason: err.Error()}
	} else if !info.IsDir() {
		return res, &config.ConfigError{Field: "input", Reason: fmt.Sprintf("%s is not a directory", b.plan.InputDir())}
	}

	paths, err := b.discover()
	if err != nil {
		return res, err
	}
	pages := make([]*render.Page, 0, len(paths))
	for _, p := range paths {
		page, err := render.LoadPage(b.plan.InputDir(), p)
		if err != nil {
			res.Errors = append(res.Errors, &RenderError{Path: p, Err: err})
			continue
		}
		pages = append(pages, page)
	}
	if err := b.checkCollisions(pages); err != nil {
		return res, err
	}
	logger.Debug().Int("pages", len(pages)).Str("input", b.plan.InputDir()).Msg("discovered pages")

	if err := os.MkdirAll(b.plan.OutputDir(), 0755); err != nil {
		return res, err
	}
	if err := b.copyPassthrough(ctx, res, logger); err != nil {
		return res, err
	}

	renderer, err := render.New(b.plan, b.pipe)
	if err != nil {
		return res, err
	}
	cs := render.NewCollections(pages)

	tasks := make([]execute.Task[*PageResult], len(pages))
	for i, page := range pages {
		page := page
		tasks[i] = func(ctx context.Context) *PageResult {
			return b.buildPage(renderer, page, cs, rep, logger)
		}
	}
	results, err := execute.Run(ctx, b.opts.Concurrency, tasks)
	for _, pr := range results {
		if pr == nil {
			continue
		}
		res.Pages = append(res.Pages, pr)
		if pr.Err != nil {
			res.Errors = append(res.Errors, &RenderError{Path: pr.Path, Err: pr.Err})
		}
	}
	if err != nil {
		return res, err
	}
	return res, nil
}

func (b *Builder) buildPage(r *render.Renderer, page *render.Page, cs render.Collections, rep *pipeline.Report, logger zerolog.Logger) *PageResult {
	pr := &PageResult{Path: page.Path, OutputPath: page.OutputPath}
	out, err := r.Render(page, cs, rep)
	if err != nil {
		pr.Err = err
		logger.Error().Err(err).Str("path", page.Path).Msg("render failed")
		return pr
	}
	asset := pipeline.Asset{Path: page.Path, OutputPath: page.OutputPath}
	out = b.pipe.ApplyOutputStage(b.plan, rep, asset, out)

	dst := filepath.Join(b.plan.OutputDir(), filepath.FromSlash(page.OutputPath))
	content := []byte(out)
	pr.Written, err = writeFile(dst, content)
	if err != nil {
		pr.Err = err
		return pr
	}
	if b.opts.Precompress && shouldCompress(dst) {
		if _, err := writeCompressed(dst, content); err != nil {
			pr.Err = err
			return pr
		}
	}
	logger.Debug().Str("path", page.Path).Str("output", page.OutputPath).Bool("written", pr.Written).Msg("page done")
	return pr
}

// discover returns the slash-separated paths of the pages in the input
// directory, sorted.
func (b *Builder) discover() ([]string, error) {
	ofs := opfs.New(b.plan.InputDir())
	pattern := "**/*.{" + strings.Join(b.plan.TemplateFormats(), ",") + "}"
	matches, err := ofs.Glob(pattern)
	if err != nil {
		return nil, err
	}

	var skip []string
	for _, dir := range []string{b.plan.IncludesDir(), b.plan.OutputDir()} {
		if rel, ok := ofs.Rel(dir); ok {
			skip = append(skip, rel)
		}
	}
	for _, pt := range b.plan.PassthroughPaths() {
		if rel, ok := ofs.Rel(pt.Source); ok {
			skip = append(skip, rel)
		}
	}
	ignore := b.plan.Ignore()

	var paths []string
	for _, m := range matches {
		if skipped(skip, m) || opfs.MatchAny(ignore, m) {
			continue
		}
		paths = append(paths, m)
	}
	sort.Strings(paths)
	return paths, nil
}

func skipped(dirs []string, name string) bool {
	for _, dir := range dirs {
		if opfs.Contains(dir, name) {
			return true
		}
	}
	return false
}

// checkCollisions fails when two sources would write the same output path,
// or when a page would be written inside a passthrough destination.
func (b *Builder) checkCollisions(pages []*render.Page) error {
	sources := make(map[string][]string)
	for _, pt := range b.plan.PassthroughPaths() {
		dest := path.Clean(filepath.ToSlash(pt.Dest))
		sources[dest] = append(sources[dest], pt.Source)
	}
	for _, page := range pages {
		sources[page.OutputPath] = append(sources[page.OutputPath], page.Path)
	}
	for _, page := range pages {
		for _, pt := range b.plan.PassthroughPaths() {
			dest := path.Clean(filepath.ToSlash(pt.Dest))
			if opfs.Contains(dest, page.OutputPath) {
				return &OutputCollisionError{OutputPath: page.OutputPath, Sources: []string{pt.Source, page.Path}}
			}
		}
	}

	outputs := make([]string, 0, len(sources))
	for out := range sources {
		outputs = append(outputs, out)
	}
	sort.Strings(outputs)
	for _, out := range outputs {
		if srcs := sources[out]; len(srcs) > 1 {
			return &OutputCollisionError{OutputPath: out, Sources: srcs}
		}
	}
	return nil
}

// copyPassthrough copies passthrough paths verbatim. They never go through
// the pipeline.
func (b *Builder) copyPassthrough(ctx context.Context, res *Result, logger zerolog.Logger) error {
	for _, pt := range b.plan.PassthroughPaths() {
		if err := ctx.Err(); err != nil {
			return err
		}
		dst := filepath.Join(b.plan.OutputDir(), pt.Dest)
		if err := copy.Copy(pt.Source, dst); err != nil {
			return fmt.Errorf("builder: passthrough %s: %w", pt.Source, err)
		}
		res.Passthrough++
		logger.Debug().Str("source", pt.Source).Str("dest", pt.Dest).Msg("copied passthrough")

		if b.opts.Precompress {
			if _, err := compressTree(dst); err != nil {
				return fmt.Errorf("builder: precompress %s: %w", pt.Dest, err)
			}
		}
	}
	return nil
}

func (b *Builder) record(res *Result) {
	m := b.opts.Metrics
	if m == nil {
		return
	}
	for _, pr := range res.Pages {
		switch {
		case pr.Err != nil:
			m.IncPage("error")
		case pr.Written:
			m.IncPage("written")
		default:
			m.IncPage("unchanged")
		}
	}
	for i := 0; i < res.Passthrough; i++ {
		m.IncPassthrough()
	}
	for _, f := range res.Failures {
		m.IncTransformFailure(f.Transform, f.Stage.String())
	}
	m.AddWarnings(len(res.Warnings))
	m.ObserveBuild(res.Duration, res.Started.Add(res.Duration))
}
