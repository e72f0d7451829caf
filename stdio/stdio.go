// Package stdio manages standard io in a way that's easily mockable in tests
// while also not depending on overriding os.Stdout and os.Stderr.
//
// Human-facing output goes to Stdout. Diagnostics go through a zerolog
// logger writing to Stderr.
package stdio

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

type contextKey string

var stdioKey = contextKey("stdio")

type StdIO struct {
	Out     io.Writer
	Err     io.Writer
	Quiet   bool
	Verbose bool
	scopes  []string
}

func (o StdIO) Stdout() io.Writer {
	if o.Out != nil {
		return o.Out
	}
	return os.Stdout
}

func (o StdIO) Stderr() io.Writer {
	if o.Err != nil {
		return o.Err
	}
	return os.Stderr
}

// Logger returns a zerolog logger writing to Stderr. Output is colored
// console text when stderr is a terminal and JSON lines otherwise.
func (o StdIO) Logger() zerolog.Logger {
	level := zerolog.InfoLevel
	switch {
	case o.Verbose:
		level = zerolog.DebugLevel
	case o.Quiet:
		level = zerolog.WarnLevel
	}

	w := o.Stderr()
	var out io.Writer = w
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	}
	logger := zerolog.New(out).Level(level).With().Timestamp().Logger()
	if len(o.scopes) > 0 {
		logger = logger.With().Str("scope", fmtScopes(o.scopes)).Logger()
	}
	return logger
}

func (o StdIO) WithScope(scopes ...string) StdIO {
	o.scopes = scopes
	return o
}

func (o StdIO) AppendScope(scopes ...string) StdIO {
	o.scopes = append(append([]string(nil), o.scopes...), scopes...)
	return o
}

func SetContext(ctx context.Context, o *StdIO) context.Context {
	return context.WithValue(ctx, stdioKey, o)
}

// FromContext returns the StdIO stored by SetContext, or a default StdIO
// using the process streams.
func FromContext(ctx context.Context) *StdIO {
	if ctx == nil {
		panic("stdio: context was nil")
	}
	iv := ctx.Value(stdioKey)
	if iv == nil {
		return &StdIO{}
	}
	return iv.(*StdIO)
}
