package render

import (
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// templateExts are the includes parsed as templates. Other includes, such
// as scripts, are only available raw.
var templateExts = map[string]bool{
	".html": true,
	".htm":  true,
	".tmpl": true,
	".xml":  true,
}

// Templates is the collection of layouts and partials loaded from the
// includes directory, any of which can be rendered and include others.
type Templates struct {
	tmpl    *template.Template
	path    string
	parents map[string]string
	raw     map[string][]byte
}

func NewTemplates(p string) *Templates {
	return &Templates{
		path:    p,
		parents: make(map[string]string),
		raw:     make(map[string][]byte),
	}
}

// Load parses every file under the includes directory. Template names are
// slash-separated paths relative to it. funcs must name every function used
// by the templates; values can be swapped per execution with Clone.
func (t *Templates) Load(funcs template.FuncMap) error {
	tmpl := template.New("").Funcs(funcs)

	if _, err := os.Stat(t.path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			t.tmpl = tmpl
			return nil
		}
		return err
	}

	walkFn := func(p string, d fs.DirEntry, perr error) error {
		if perr != nil {
			return perr
		}
		if d.IsDir() {
			return nil
		}
		b, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		name := convertTemplatePath(t.path, p)
		t.raw[name] = b
		if !templateExts[strings.ToLower(path.Ext(name))] {
			return nil
		}

		fm, body, err := SplitFrontMatter(b)
		if err != nil {
			return fmt.Errorf("templates: %s: %w", name, err)
		}
		meta, _, err := ParseFrontMatter(fm)
		if err != nil {
			return fmt.Errorf("templates: %s: %w", name, err)
		}
		if meta.Layout != "" {
			t.parents[name] = meta.Layout
		}
		if _, err := tmpl.New(name).Parse(string(body)); err != nil {
			return fmt.Errorf("templates: %w", err)
		}
		return nil
	}
	if err := filepath.WalkDir(t.path, walkFn); err != nil {
		return err
	}
	t.tmpl = tmpl
	return nil
}

// Lookup resolves a layout name to a loaded template name, trying name as
// given and then with an .html extension.
func (t *Templates) Lookup(name string) (string, bool) {
	name = strings.TrimPrefix(path.Clean("/"+filepath.ToSlash(name)), "/")
	if t.tmpl.Lookup(name) != nil {
		return name, true
	}
	if path.Ext(name) == "" && t.tmpl.Lookup(name+".html") != nil {
		return name + ".html", true
	}
	return "", false
}

// Parent is the layout named in the front matter of layout name.
func (t *Templates) Parent(name string) string { return t.parents[name] }

// Raw returns the unparsed contents of an include, front matter and all.
func (t *Templates) Raw(name string) ([]byte, bool) {
	b, ok := t.raw[strings.TrimPrefix(path.Clean("/"+name), "/")]
	return b, ok
}

// Clone returns a copy of the template set with funcs replacing the
// functions given to Load. The receiver is never executed, so it can be
// cloned concurrently.
func (t *Templates) Clone(funcs template.FuncMap) (*template.Template, error) {
	c, err := t.tmpl.Clone()
	if err != nil {
		return nil, err
	}
	return c.Funcs(funcs), nil
}

func convertTemplatePath(root, p string) string {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		rel = p
	}
	return filepath.ToSlash(rel)
}
