// Package minify contains parser-aware minifiers for markup, scripts, and
// stylesheets, and the default pipeline rules built on them.
package minify

import (
	"fmt"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/svg"

	"github.com/jeffrom/pressroom/pipeline"
)

const (
	mimeHTML = "text/html"
	mimeCSS  = "text/css"
)

var m = newMinifier()

func newMinifier() *minify.M {
	m := minify.New()
	// End tags, quotes and document tags are kept so a second pass over
	// minified output is a no-op.
	m.Add(mimeHTML, &html.Minifier{
		KeepDocumentTags:    true,
		KeepEndTags:         true,
		KeepQuotes:          true,
		KeepDefaultAttrVals: true,
	})
	m.AddFunc(mimeCSS, css.Minify)
	m.AddFunc("image/svg+xml", svg.Minify)
	return m
}

// HTML minifies a full or partial html document. Inline styles and svg are
// handed to their own minifiers. Script contents are copied unchanged; use
// the jsmin filter to minify them.
func HTML(s string) (string, error) {
	out, err := m.String(mimeHTML, s)
	if err != nil {
		return "", fmt.Errorf("htmlmin: %w", err)
	}
	return out, nil
}

func CSS(s string) (string, error) {
	out, err := m.String(mimeCSS, s)
	if err != nil {
		return "", fmt.Errorf("cssmin: %w", err)
	}
	return out, nil
}

// Rules returns the default transforms: jsmin and cssmin as named template
// filters, and htmlmin over html output in production builds.
func Rules() []pipeline.Rule {
	return []pipeline.Rule{
		{
			Name:       "jsmin",
			Stage:      pipeline.FilterTime,
			FilterOnly: true,
			Apply:      JS,
		},
		{
			Name:       "cssmin",
			Stage:      pipeline.FilterTime,
			FilterOnly: true,
			Apply:      CSS,
		},
		{
			Name:        "htmlmin",
			Stage:       pipeline.OutputTime,
			EnabledWhen: pipeline.Production,
			Match:       pipeline.MatchOutputExt(".html", ".htm"),
			Apply:       HTML,
		},
	}
}

// Register adds Rules to reg.
func Register(reg *pipeline.Registry) error {
	for _, rule := range Rules() {
		if err := reg.Register(rule); err != nil {
			return err
		}
	}
	return nil
}
