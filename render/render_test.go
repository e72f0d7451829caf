package render

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeffrom/pressroom/config"
	"github.com/jeffrom/pressroom/minify"
	"github.com/jeffrom/pressroom/pipeline"
	"github.com/jeffrom/pressroom/testenv"
)

var siteFiles = map[string]string{
	"src/_includes/layouts/base.html": `<html><body>{{ .Content }}</body></html>`,
	"src/_includes/layouts/post.html": "---\nlayout: default\n---\n<article><h1>{{ .Page.Title }}</h1>{{ .Content }}</article>",
	"src/_includes/layouts/a.html":    "---\nlayout: layouts/b.html\n---\nA{{ .Content }}",
	"src/_includes/layouts/b.html":    "---\nlayout: layouts/a.html\n---\nB{{ .Content }}",
	"src/_includes/js/site.js":        "var  x = 1;\n// done\n",
	"src/_includes/js/broken.js":      "function (",
}

func setupRenderer(t *testing.T, rules ...pipeline.Rule) (*Renderer, *config.BuildPlan, string) {
	t.Helper()
	tmpdir := testenv.TempDir(t, "")
	t.Cleanup(func() { testenv.RemoveOnSuccess(t, tmpdir) })
	testenv.WriteFiles(t, tmpdir, siteFiles)

	cfg := config.Config{
		Input:           "src",
		Output:          "dist",
		TemplateFormats: []string{"md", "html"},
		LayoutAliases:   map[string]string{"default": "layouts/base.html"},
	}
	plan, _, err := config.Resolve(tmpdir, cfg, nil)
	require.NoError(t, err)

	reg := pipeline.NewRegistry()
	require.NoError(t, minify.Register(reg))
	reg.MustRegister(rules...)
	r, err := New(plan, reg.Pipeline(zerolog.Nop()))
	require.NoError(t, err)
	return r, plan, tmpdir
}

func mustPage(t *testing.T, rel, content string) *Page {
	t.Helper()
	p, err := ParsePage(rel, []byte(content))
	require.NoError(t, err)
	return p
}

func TestRenderMarkdownWithLayoutChain(t *testing.T) {
	r, _, _ := setupRenderer(t)
	page := mustPage(t, "posts/hello.md", "---\ntitle: Hello\nlayout: layouts/post\ndate: 2021-03-05\n---\nHello *world*\n")

	out, err := r.Render(page, NewCollections([]*Page{page}), nil)
	require.NoError(t, err)
	assert.Equal(t, "<html><body><article><h1>Hello</h1><p>Hello <em>world</em></p>\n</article></body></html>", out)
}

func TestRenderMarkdownTemplate(t *testing.T) {
	r, _, _ := setupRenderer(t)
	page := mustPage(t, "posts/hello.md", "---\ntitle: Hello\ndate: 2021-03-05\n---\n# {{ .Page.Title }}\n\nPosted {{ readableDate .Page.Date }}. {{ len .Collections.all }} page(s).\n")

	out, err := r.Render(page, NewCollections([]*Page{page}), nil)
	require.NoError(t, err)
	assert.Equal(t, "<h1>Hello</h1>\n<p>Posted March 5, 2021. 1 page(s).</p>\n", out)

	// code spans and html in markdown are left alone
	page = mustPage(t, "posts/code.md", "{{ \"x\" }} `a < b` <b\n")
	out, err = r.Render(page, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "<p>x <code>a &lt; b</code> &lt;b</p>\n", out)

	_, err = r.Render(mustPage(t, "posts/bad.md", "{{ .Page.Nope }}"), nil, nil)
	assert.Error(t, err)
}

func TestRenderHTMLPage(t *testing.T) {
	r, _, _ := setupRenderer(t)
	page := mustPage(t, "index.html", "---\ntitle: Home\ndate: 2021-03-05\n---\n"+
		`<p>{{ readableDate .Page.Date }} / {{ htmlDate .Page.Date }}</p><script>{{ include "js/site.js" | jsmin }}</script>`)

	out, err := r.Render(page, nil, nil)
	require.NoError(t, err)
	assert.Contains(t, out, "<p>March 5, 2021 / 2021-03-05</p>")
	assert.Contains(t, out, "<script>var x=1;</script>")
}

func TestRenderFilterFailSoft(t *testing.T) {
	r, _, _ := setupRenderer(t)
	page := mustPage(t, "broken.html", `<script>{{ include "js/broken.js" | jsmin }}</script>`)
	rep := pipeline.NewReport()

	out, err := r.Render(page, nil, rep)
	require.NoError(t, err)
	assert.Equal(t, "<script>function (</script>", out)
	failures := rep.Failures()
	require.Len(t, failures, 1)
	assert.Equal(t, "broken.html", failures[0].Path)
	assert.Equal(t, "jsmin", failures[0].Transform)
}

func TestRenderFilterStage(t *testing.T) {
	shout := pipeline.Rule{
		Name:  "shout",
		Stage: pipeline.FilterTime,
		Match: pipeline.MatchSourceExt(".md"),
		Apply: func(s string) (string, error) { return strings.ToUpper(s), nil },
	}
	r, _, _ := setupRenderer(t, shout)

	page := mustPage(t, "a.md", "---\nlayout: default\n---\nhi\n")
	out, err := r.Render(page, nil, nil)
	require.NoError(t, err)
	// the layout is applied after the filter stage
	assert.Equal(t, "<html><body><P>HI</P>\n</body></html>", out)

	page = mustPage(t, "b.html", "hi")
	out, err = r.Render(page, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "hi", out)

	// also callable by name
	page = mustPage(t, "c.html", `{{ "x" | shout }}`)
	out, err = r.Render(page, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "X", out)
}

func TestRenderLayoutErrors(t *testing.T) {
	r, _, _ := setupRenderer(t)

	_, err := r.Render(mustPage(t, "a.md", "---\nlayout: nope\n---\nx"), nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `layout "nope" not found`)

	_, err = r.Render(mustPage(t, "b.md", "---\nlayout: layouts/a.html\n---\nx"), nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "layout cycle")

	_, err = r.Render(mustPage(t, "c.html", "{{ .Nope }"), nil, nil)
	assert.Error(t, err)
}

func TestRenderCollections(t *testing.T) {
	r, _, _ := setupRenderer(t)
	pages := []*Page{
		mustPage(t, "posts/b.md", "---\ntitle: B\ntags: post\ndate: 2021-02-01\n---\nb"),
		mustPage(t, "posts/a.md", "---\ntitle: A\ntags: [post, go]\ndate: 2021-01-01\n---\na"),
		mustPage(t, "about.md", "---\ntitle: About\n---\nabout"),
	}
	index := mustPage(t, "index.html", `{{ range .Collections.post }}<a href="{{ .URL }}">{{ .Title }}</a>{{ end }}|{{ len .Collections.all }}|{{ len .Collections.go }}`)
	pages = append(pages, index)

	out, err := r.Render(index, NewCollections(pages), nil)
	require.NoError(t, err)
	assert.Equal(t, `<a href="/posts/a.html">A</a><a href="/posts/b.html">B</a>|4|1`, out)
}

func TestNewWithoutIncludes(t *testing.T) {
	tmpdir := testenv.TempDir(t, "")
	defer testenv.RemoveOnSuccess(t, tmpdir)
	plan, _, err := config.Resolve(tmpdir, config.Config{Input: "src", Output: "dist", TemplateFormats: []string{"md"}}, nil)
	require.NoError(t, err)

	r, err := New(plan, pipeline.NewRegistry().Pipeline(zerolog.Nop()))
	require.NoError(t, err)
	out, err := r.Render(mustPage(t, "a.md", "a"), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "<p>a</p>\n", out)
}

func TestSplitFrontMatter(t *testing.T) {
	tcs := []struct {
		name       string
		in         string
		expectFM   string
		expectBody string
		expectErr  error
	}{
		{name: "none", in: "hello", expectBody: "hello"},
		{name: "basic", in: "---\ntitle: x\n---\nbody", expectFM: "title: x\n", expectBody: "body"},
		{name: "empty", in: "---\n---\nbody", expectFM: "", expectBody: "body"},
		{name: "crlf", in: "---\r\ntitle: x\r\n---\r\nbody", expectFM: "title: x\r\n", expectBody: "body"},
		{name: "eof", in: "---\ntitle: x\n---", expectFM: "title: x\n", expectBody: ""},
		{name: "dashes-in-fm", in: "---\na: b\n----x\n---\nbody", expectFM: "a: b\n----x\n", expectBody: "body"},
		{name: "unclosed", in: "---\ntitle: x\n", expectErr: ErrMissingClosingDelimiter},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			fm, body, err := SplitFrontMatter([]byte(tc.in))
			if tc.expectErr != nil {
				assert.True(t, errors.Is(err, tc.expectErr))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expectFM, string(fm))
			assert.Equal(t, tc.expectBody, string(body))
		})
	}
}

func TestParseFrontMatter(t *testing.T) {
	meta, data, err := ParseFrontMatter([]byte("title: Post\ndate: \"2020-06-01\"\ntags: post\npermalink: /p/\nextra: 3\n"))
	require.NoError(t, err)
	assert.Equal(t, "Post", meta.Title)
	assert.Equal(t, time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC), meta.Date)
	assert.Equal(t, []string{"post"}, meta.Tags)
	assert.Equal(t, 3, data["extra"])

	_, _, err = ParseFrontMatter([]byte("date: yesterday\n"))
	assert.Error(t, err)

	_, _, err = ParseFrontMatter([]byte("title: [unclosed\n"))
	assert.Error(t, err)
}

func TestOutputPath(t *testing.T) {
	tcs := []struct {
		rel, permalink, expect, url string
	}{
		{rel: "index.md", expect: "index.html", url: "/"},
		{rel: "posts/hello.md", expect: "posts/hello.html", url: "/posts/hello.html"},
		{rel: "about.html", expect: "about.html", url: "/about.html"},
		{rel: "feed.html", permalink: "/feed.xml", expect: "feed.xml", url: "/feed.xml"},
		{rel: "posts/x.md", permalink: "/posts/x/", expect: "posts/x/index.html", url: "/posts/x/"},
		{rel: "posts/y.md", permalink: "../../escape.html", expect: "escape.html", url: "/escape.html"},
	}
	for _, tc := range tcs {
		out, err := OutputPath(filepath.FromSlash(tc.rel), tc.permalink)
		require.NoError(t, err)
		assert.Equal(t, tc.expect, out)
		assert.Equal(t, tc.url, URL(out))
	}

	out, err := OutputPath("a.md", "/")
	require.NoError(t, err)
	assert.Equal(t, "index.html", out)

	_, err = OutputPath("a.md", "/.")
	assert.Error(t, err)
}

func TestFormatDate(t *testing.T) {
	d := time.Date(2019, 12, 31, 23, 30, 0, 0, time.FixedZone("x", -2*3600))
	s, err := readableDate(d)
	require.NoError(t, err)
	assert.Equal(t, "January 1, 2020", s)

	s, err = htmlDate("2019-07-04")
	require.NoError(t, err)
	assert.Equal(t, "2019-07-04", s)

	_, err = FormatDate(42, htmlDateLayout)
	assert.Error(t, err)

	assert.Contains(t, dump(map[string]int{"a": 1}), `"a": (int) 1`)
}
