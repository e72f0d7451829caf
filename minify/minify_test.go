package minify

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeffrom/pressroom/config"
	"github.com/jeffrom/pressroom/pipeline"
)

const page = `<!DOCTYPE html>
<html>
  <head>
    <title>  A post  </title>
    <style>
      body {  color : red ; }
    </style>
  </head>
  <body>
    <!-- navigation -->
    <p class="lead" title="a < b">
      Hello,    world.
    </p>
    <pre>  keep
    this  </pre>
    <script>
      // greet
      var s = "a < b";
      console.log(s  +  "  <b>bold</b>  ");
    </script>
  </body>
</html>
`

func TestHTML(t *testing.T) {
	out, err := HTML("  <p>Hi</p>  \n")
	require.NoError(t, err)
	assert.Equal(t, "<p>Hi</p>", out)

	out, err = HTML(page)
	require.NoError(t, err)
	assert.Less(t, len(out), len(page))
	assert.NotContains(t, out, "navigation")
	assert.Contains(t, out, "</p>")
	assert.Contains(t, out, "<pre>  keep\n    this  </pre>")
}

func TestHTMLPreservesStrings(t *testing.T) {
	out, err := HTML(page)
	require.NoError(t, err)
	assert.Contains(t, out, `"a < b"`)
	assert.Contains(t, out, `title="a < b"`)
	assert.Contains(t, out, `"  <b>bold</b>  "`)
}

func TestHTMLKeepsScripts(t *testing.T) {
	script := "\n      // greet\n      var s = \"a < b\";\n      console.log(s  +  \"  <b>bold</b>  \");\n    "
	out, err := HTML(page)
	require.NoError(t, err)
	assert.Contains(t, out, "<script>"+script+"</script>")

	in := "<p>x</p>\n<script>\n var s = 'a < b';\n var t = \"x\" + 'y';\n</script>\n<script type=\"application/ld+json\">\n  {\"a\":  \"b  c\"}\n</script>"
	out, err = HTML(in)
	require.NoError(t, err)
	assert.Contains(t, out, "<script>\n var s = 'a < b';\n var t = \"x\" + 'y';\n</script>")
	assert.Contains(t, out, "\n  {\"a\":  \"b  c\"}\n</script>")
}

func TestHTMLIdempotent(t *testing.T) {
	inputs := []string{
		"  <p>Hi</p>  \n",
		page,
		"<ul>\n  <li>one</li>\n  <li>two</li>\n</ul>\n",
	}
	for _, in := range inputs {
		once, err := HTML(in)
		require.NoError(t, err)
		twice, err := HTML(once)
		require.NoError(t, err)
		assert.Equal(t, once, twice)
	}
}

func TestJS(t *testing.T) {
	src := "function add(a, b) {\n  // sum\n  return a + b;\n}\nvar s = \"a < b\";\n"
	out, err := JS(src)
	require.NoError(t, err)
	assert.Equal(t, "function add(a,b){return a+b;}\nvar s=\"a < b\";", out)

	again, err := JS(out)
	require.NoError(t, err)
	assert.Equal(t, out, again)
}

func TestJSKeepsLiterals(t *testing.T) {
	tcs := []struct {
		name   string
		in     string
		expect string
	}{
		{name: "single-quoted", in: "var s = 'a < b';", expect: "var s='a < b';"},
		{name: "concat", in: "var t = \"x\" + \"y\";", expect: "var t=\"x\"+\"y\";"},
		{name: "escape", in: "var u = \"A\\x42\";", expect: "var u=\"A\\x42\";"},
		{name: "comment-in-string", in: "var c = \"// not a comment\"; // a comment\n", expect: "var c=\"// not a comment\";"},
		{name: "template", in: "var w = `a  ${ b }  c`;", expect: "var w=`a  ${b}  c`;"},
		{name: "regexp", in: "var r = /a  b\\/c/g.test(x) ? 1 : 0;", expect: "var r=/a  b\\/c/g.test(x)?1:0;"},
		{name: "division", in: "var d = a / b / c;", expect: "var d=a/b/c;"},
		{name: "unary", in: "var n = a - -b + +c;", expect: "var n=a- -b+ +c;"},
		{name: "asi-return", in: "function f() {\n  return\n  1\n}", expect: "function f(){return\n1}"},
		{name: "asi-incr", in: "a\n++b", expect: "a\n++b"},
		{name: "object-literal", in: "var o = {}\nvar p = 1", expect: "var o={}\nvar p=1"},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			out, err := JS(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.expect, out)

			again, err := JS(out)
			require.NoError(t, err)
			assert.Equal(t, out, again)
		})
	}
}

func TestJSMalformed(t *testing.T) {
	_, err := JS("function (")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jsmin")
}

func TestCSS(t *testing.T) {
	out, err := CSS("body {  color : red ; }\n/* x */\n")
	require.NoError(t, err)
	assert.Equal(t, "body{color:red}", out)
}

func TestRules(t *testing.T) {
	reg := pipeline.NewRegistry()
	require.NoError(t, Register(reg))
	p := reg.Pipeline(zerolog.Nop())

	_, ok := p.Filter("jsmin")
	assert.True(t, ok)
	_, ok = p.Filter("cssmin")
	assert.True(t, ok)
	require.Len(t, p.Rules(pipeline.OutputTime), 1)

	cfg := config.Config{Input: "src", Output: "dist", TemplateFormats: []string{"md"}}
	dev, _, err := config.Resolve("/tmp/site", cfg, nil)
	require.NoError(t, err)
	prod := dev.WithProductionMode(true)

	a := pipeline.Asset{Path: "posts/a.md", OutputPath: "posts/a.html"}
	content := "  <p>Hi</p>  \n"
	assert.Equal(t, content, p.ApplyOutputStage(dev, nil, a, content))
	assert.Equal(t, "<p>Hi</p>", p.ApplyOutputStage(prod, nil, a, content))

	feed := pipeline.Asset{Path: "feed.html", OutputPath: "feed.xml"}
	assert.Equal(t, content, p.ApplyOutputStage(prod, nil, feed, content))

	// jsmin and cssmin only run when called as filters
	js := "var  x = 1;"
	assert.Equal(t, js, p.ApplyFilterStage(prod, nil, a, js))

	rep := pipeline.NewReport()
	out, err := p.ApplyFilter(dev, rep, a, "jsmin", "function (")
	require.NoError(t, err)
	assert.Equal(t, "function (", out)
	failures := rep.Failures()
	require.Len(t, failures, 1)
	assert.Equal(t, "jsmin", failures[0].Transform)
	assert.True(t, strings.HasPrefix(failures[0].Path, "posts/"))
}

func TestRegisterTwice(t *testing.T) {
	reg := pipeline.NewRegistry()
	require.NoError(t, Register(reg))
	assert.Error(t, Register(reg))
}
