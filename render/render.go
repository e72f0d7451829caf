// Package render turns source pages into composed html. Markdown bodies are
// expanded as text templates and converted with goldmark, html pages go
// through html/template, and both are then wrapped in layouts from the
// includes directory.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	texttemplate "text/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/jeffrom/pressroom/config"
	"github.com/jeffrom/pressroom/pipeline"
)

// maxLayoutDepth bounds layout chains; deeper chains are reported as a
// cycle.
const maxLayoutDepth = 32

// Data is the template data for pages and layouts.
type Data struct {
	Page        PageData
	Content     template.HTML
	Collections Collections
	Production  bool
}

// Renderer renders pages for one build plan. It is safe for concurrent use.
type Renderer struct {
	plan  *config.BuildPlan
	pipe  *pipeline.Pipeline
	tmpls *Templates
	md    goldmark.Markdown
}

// New loads the includes directory of plan. Every FilterTime rule in pipe is
// available to templates as a function of the same name.
func New(plan *config.BuildPlan, pipe *pipeline.Pipeline) (*Renderer, error) {
	r := &Renderer{
		plan:  plan,
		pipe:  pipe,
		tmpls: NewTemplates(plan.IncludesDir()),
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM, extension.Footnote),
			goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
		),
	}
	if err := r.tmpls.Load(r.funcs(pipeline.Asset{}, nil)); err != nil {
		return nil, err
	}
	return r, nil
}

// Render renders page, applies the filter stage to its content, and wraps
// the result in its layout chain. Transform failures are recorded in rep.
func (r *Renderer) Render(page *Page, cs Collections, rep *pipeline.Report) (string, error) {
	asset := pipeline.Asset{Path: page.Path, OutputPath: page.OutputPath}
	fns := r.funcs(asset, rep)
	tmpl, err := r.tmpls.Clone(fns)
	if err != nil {
		return "", err
	}
	data := Data{
		Page:        page.View(),
		Collections: cs,
		Production:  r.plan.ProductionMode(),
	}

	var content string
	switch page.Format {
	case "md":
		body, err := expandMarkdown(page, fns, data)
		if err != nil {
			return "", err
		}
		buf := &bytes.Buffer{}
		if err := r.md.Convert(body, buf); err != nil {
			return "", fmt.Errorf("render: %s: %w", page.Path, err)
		}
		content = buf.String()
	default:
		pt, err := tmpl.New(page.Path).Parse(string(page.Body))
		if err != nil {
			return "", fmt.Errorf("render: %w", err)
		}
		buf := &bytes.Buffer{}
		if err := pt.Execute(buf, data); err != nil {
			return "", fmt.Errorf("render: %w", err)
		}
		content = buf.String()
	}

	content = r.pipe.ApplyFilterStage(r.plan, rep, asset, content)
	return r.applyLayouts(tmpl, page, data, content)
}

// expandMarkdown executes a markdown body as a text template with the page
// data and template functions. Values are inserted unescaped, as markdown.
func expandMarkdown(page *Page, fns template.FuncMap, data Data) ([]byte, error) {
	if !bytes.Contains(page.Body, []byte("{{")) {
		return page.Body, nil
	}
	t, err := texttemplate.New(page.Path).Funcs(texttemplate.FuncMap(fns)).Parse(string(page.Body))
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	buf := &bytes.Buffer{}
	if err := t.Execute(buf, data); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) applyLayouts(tmpl *template.Template, page *Page, data Data, content string) (string, error) {
	layout := page.Meta.Layout
	seen := make(map[string]bool)
	for depth := 0; layout != ""; depth++ {
		name, ok := r.tmpls.Lookup(r.plan.LayoutAlias(layout))
		if !ok {
			return "", fmt.Errorf("render: %s: layout %q not found in %s", page.Path, layout, r.plan.IncludesDir())
		}
		if seen[name] || depth >= maxLayoutDepth {
			return "", fmt.Errorf("render: %s: layout cycle at %q", page.Path, name)
		}
		seen[name] = true

		data.Content = template.HTML(content)
		buf := &bytes.Buffer{}
		if err := tmpl.ExecuteTemplate(buf, name, data); err != nil {
			return "", fmt.Errorf("render: %s: %w", page.Path, err)
		}
		content = buf.String()
		layout = r.tmpls.Parent(name)
	}
	return content, nil
}

// funcs returns the template functions bound to one asset.
func (r *Renderer) funcs(asset pipeline.Asset, rep *pipeline.Report) template.FuncMap {
	fns := tmplHelpers()
	fns["include"] = func(name string) (string, error) {
		b, ok := r.tmpls.Raw(name)
		if !ok {
			return "", fmt.Errorf("render: include %q not found", name)
		}
		return string(b), nil
	}
	for _, rule := range r.pipe.Rules(pipeline.FilterTime) {
		name := rule.Name
		wrap := filterResult(name)
		fns[name] = func(v interface{}) (interface{}, error) {
			out, err := r.pipe.ApplyFilter(r.plan, rep, asset, name, filterInput(v))
			if err != nil {
				return nil, err
			}
			return wrap(out), nil
		}
	}
	return fns
}

func filterInput(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case template.HTML:
		return string(s)
	case template.JS:
		return string(s)
	case template.CSS:
		return string(s)
	case []byte:
		return string(s)
	default:
		return fmt.Sprint(v)
	}
}

// filterResult types filter output so html/template inserts it in the right
// context instead of escaping it as a string.
func filterResult(name string) func(string) interface{} {
	switch {
	case strings.HasPrefix(name, "js"):
		return func(s string) interface{} { return template.JS(s) }
	case strings.HasPrefix(name, "css"):
		return func(s string) interface{} { return template.CSS(s) }
	default:
		return func(s string) interface{} { return s }
	}
}
