// Package watch rebuilds a site whenever files in its input directory
// change.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/jeffrom/pressroom/builder"
	"github.com/jeffrom/pressroom/config"
	"github.com/jeffrom/pressroom/stdio"
)

// DefaultDebounce is how long the watcher waits for changes to settle
// before rebuilding.
const DefaultDebounce = 300 * time.Millisecond

// Builder runs a build. *builder.Builder implements it.
type Builder interface {
	Build(ctx context.Context) (*builder.Result, error)
}

// Watcher runs a build, then one rebuild at a time for as long as changes
// keep arriving. Changes made during a rebuild queue exactly one more.
type Watcher struct {
	b        Builder
	dirs     []string
	skip     []string
	Debounce time.Duration

	// OnBuild is called after every build, including the first.
	OnBuild func(*builder.Result, error)
}

func New(b Builder, plan *config.BuildPlan) *Watcher {
	dirs := []string{plan.InputDir()}
	for _, pt := range plan.PassthroughPaths() {
		if !within(plan.InputDir(), pt.Source) {
			dirs = append(dirs, pt.Source)
		}
	}
	return &Watcher{
		b:        b,
		dirs:     dirs,
		skip:     []string{plan.OutputDir()},
		Debounce: DefaultDebounce,
	}
}

// Run builds once and then watches until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	logger := stdio.FromContext(ctx).AppendScope("watch").Logger()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	defer watcher.Close()
	for _, dir := range w.dirs {
		if err := addDirsRecursive(watcher, dir, logger); err != nil {
			return err
		}
	}

	w.build(ctx)

	ctx, cancel := context.WithCancel(ctx)
	rebuildReq, trigger := debouncer(w.Debounce)
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.rebuildLoop(ctx, rebuildReq, logger)
	}()
	defer func() {
		cancel()
		<-done
	}()

	logger.Info().Strs("dirs", w.dirs).Msg("watching for changes")
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(watcher, ev, trigger, logger)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn().Err(err).Msg("watcher error")
		}
	}
}

func (w *Watcher) build(ctx context.Context) {
	res, err := w.b.Build(ctx)
	if w.OnBuild != nil {
		w.OnBuild(res, err)
	}
}

// rebuildLoop runs rebuilds one at a time. rebuildReq buffers a single
// request, which is the pending rebuild for changes made while building.
func (w *Watcher) rebuildLoop(ctx context.Context, rebuildReq <-chan struct{}, logger zerolog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-rebuildReq:
			logger.Info().Msg("change detected, rebuilding")
			w.build(ctx)
		}
	}
}

func (w *Watcher) handleEvent(watcher *fsnotify.Watcher, ev fsnotify.Event, trigger func(), logger zerolog.Logger) {
	if shouldIgnoreEvent(ev.Name) {
		return
	}
	for _, dir := range w.skip {
		if within(dir, ev.Name) {
			return
		}
	}
	if ev.Op&fsnotify.Create == fsnotify.Create {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			_ = addDirsRecursive(watcher, ev.Name, logger)
		}
	}
	logger.Debug().Str("path", ev.Name).Str("op", ev.Op.String()).Msg("file changed")
	trigger()
}

// debouncer returns a rebuild channel and a trigger that sends to it once
// triggering has stopped for d.
func debouncer(d time.Duration) (chan struct{}, func()) {
	var mu sync.Mutex
	var timer *time.Timer
	rebuildReq := make(chan struct{}, 1)

	trigger := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(d, func() {
			select {
			case rebuildReq <- struct{}{}:
			default:
			}
		})
	}
	return rebuildReq, trigger
}

func addDirsRecursive(w *fsnotify.Watcher, root string, logger zerolog.Logger) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if err := w.Add(path); err != nil {
				logger.Warn().Err(err).Str("dir", path).Msg("watch add failed")
			}
		}
		return nil
	})
}

// shouldIgnoreEvent reports whether a change to path is editor or OS noise.
func shouldIgnoreEvent(path string) bool {
	base := filepath.Base(path)

	if strings.HasPrefix(base, ".") {
		return true
	}

	if strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#") {
		return true
	}

	return base == "Thumbs.db" || base == "4913"
}

func within(dir, p string) bool {
	rel, err := filepath.Rel(dir, p)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
