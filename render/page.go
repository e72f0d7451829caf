package render

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Page is a source page with its front matter parsed. Path and OutputPath
// are slash-separated and relative to the input and output directories.
type Page struct {
	Path       string
	OutputPath string
	URL        string
	Format     string
	Meta       Meta
	Data       map[string]interface{}
	Body       []byte
}

// LoadPage reads and parses the page at rel inside inputDir.
func LoadPage(inputDir, rel string) (*Page, error) {
	b, err := os.ReadFile(filepath.Join(inputDir, filepath.FromSlash(rel)))
	if err != nil {
		return nil, err
	}
	return ParsePage(rel, b)
}

func ParsePage(rel string, content []byte) (*Page, error) {
	rel = filepath.ToSlash(rel)
	fm, body, err := SplitFrontMatter(content)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", rel, err)
	}
	meta, data, err := ParseFrontMatter(fm)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", rel, err)
	}

	out, err := OutputPath(rel, meta.Permalink)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", rel, err)
	}
	return &Page{
		Path:       rel,
		OutputPath: out,
		URL:        URL(out),
		Format:     strings.TrimPrefix(strings.ToLower(path.Ext(rel)), "."),
		Meta:       meta,
		Data:       data,
		Body:       body,
	}, nil
}

// OutputPath maps a source path to its output path: the permalink when set,
// otherwise the mirrored path with an .html extension.
func OutputPath(rel, permalink string) (string, error) {
	if permalink != "" {
		p := path.Clean("/" + permalink)
		if strings.HasSuffix(permalink, "/") {
			p = path.Join(p, "index.html")
		}
		p = strings.TrimPrefix(p, "/")
		if p == "" || p == "." {
			return "", fmt.Errorf("invalid permalink %q", permalink)
		}
		return p, nil
	}
	rel = filepath.ToSlash(rel)
	return strings.TrimSuffix(rel, path.Ext(rel)) + ".html", nil
}

// URL is the site-absolute url of an output path, without index.html.
func URL(outputPath string) string {
	u := "/" + strings.TrimPrefix(outputPath, "/")
	if path.Base(u) == "index.html" {
		return strings.TrimSuffix(u, "index.html")
	}
	return u
}

// PageData is the view of a page given to templates.
type PageData struct {
	Title      string
	Date       time.Time
	Tags       []string
	URL        string
	InputPath  string
	OutputPath string
	Layout     string
	Data       map[string]interface{}
}

func (p *Page) View() PageData {
	return PageData{
		Title:      p.Meta.Title,
		Date:       p.Meta.Date,
		Tags:       append([]string(nil), p.Meta.Tags...),
		URL:        p.URL,
		InputPath:  p.Path,
		OutputPath: p.OutputPath,
		Layout:     p.Meta.Layout,
		Data:       p.Data,
	}
}

// Collections groups pages for templates: "all" holds every page and each
// tag gets its own collection. Collections are ordered by date, then path.
type Collections map[string][]PageData

func NewCollections(pages []*Page) Collections {
	cs := Collections{"all": {}}
	for _, p := range pages {
		v := p.View()
		cs["all"] = append(cs["all"], v)
		for _, tag := range p.Meta.Tags {
			cs[tag] = append(cs[tag], v)
		}
	}
	for _, c := range cs {
		sort.SliceStable(c, func(i, j int) bool {
			if !c[i].Date.Equal(c[j].Date) {
				return c[i].Date.Before(c[j].Date)
			}
			return c[i].InputPath < c[j].InputPath
		})
	}
	return cs
}
