package commands

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeffrom/pressroom/config"
	"github.com/jeffrom/pressroom/stdio"
	"github.com/jeffrom/pressroom/testenv"
)

func execArgs(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	ctx := stdio.SetContext(context.Background(), &stdio.StdIO{Out: out, Err: errOut})
	err := ExecArgs(ctx, args)
	return out.String(), errOut.String(), err
}

func blogDir(t *testing.T) string {
	t.Helper()
	dir := testenv.TempSiteDir(t, testenv.Path("testdata", "blog"))
	t.Cleanup(func() { testenv.RemoveOnSuccess(t, dir) })
	return dir
}

func TestBuild(t *testing.T) {
	t.Setenv(config.EnvMode, "")
	dir := blogDir(t)
	metricsFile := filepath.Join(dir, "pressroom.prom")

	out, errOut, err := execArgs(t, "build", dir, "-j", "2", "--precompress", "--metrics-file", metricsFile)
	require.NoError(t, err)
	assert.Contains(t, out, "(development): 4 page(s), 4 written")
	// warnings are listed once, in the summary
	assert.Contains(t, out, "passthrough path does not exist, skipping: src/site/images")
	assert.NotContains(t, errOut, "src/site/images")

	for _, name := range []string{"index.html", "index.html.gz", "posts/first-post.html", "css/style.css"} {
		_, err := os.Stat(filepath.Join(dir, "dist", filepath.FromSlash(name)))
		assert.NoError(t, err, name)
	}
	assert.Contains(t, testenv.ReadFile(t, metricsFile), "pressroom_pages_total")
}

func TestRootBuildsByDefault(t *testing.T) {
	t.Setenv(config.EnvMode, "")
	dir := blogDir(t)

	out, errOut, err := execArgs(t, dir, "-q")
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Contains(t, errOut, "passthrough path does not exist, skipping: src/site/images")
	_, err = os.Stat(filepath.Join(dir, "dist", "index.html"))
	assert.NoError(t, err)
}

func TestBuildDotEnv(t *testing.T) {
	// restored after the test; godotenv only sets variables that are unset
	t.Setenv(config.EnvMode, "")
	require.NoError(t, os.Unsetenv(config.EnvMode))
	dir := blogDir(t)
	testenv.WriteFile(t, filepath.Join(dir, ".env"), config.EnvMode+"=production\n")

	out, errOut, err := execArgs(t, "build", dir, "-v")
	require.NoError(t, err)
	assert.Contains(t, out, "(production)")
	assert.Contains(t, errOut, "building "+filepath.Join(dir, "src", "site"))
}

func TestBuildRenderErrorExitsNonZero(t *testing.T) {
	t.Setenv(config.EnvMode, "")
	dir := blogDir(t)
	testenv.WriteFile(t, filepath.Join(dir, "src", "site", "broken.md"), "---\nlayout: nope\n---\nx")

	out, _, err := execArgs(t, "build", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 page(s) failed")
	assert.Contains(t, out, "1 error(s):")
	_, err = os.Stat(filepath.Join(dir, "dist", "index.html"))
	assert.NoError(t, err)
}

func TestCheck(t *testing.T) {
	t.Setenv(config.EnvMode, "")
	dir := blogDir(t)

	out, errOut, err := execArgs(t, "check", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "formats")
	assert.Contains(t, out, "html,md")
	assert.Contains(t, out, "passthrough")
	assert.Contains(t, errOut, "passthrough path does not exist")

	_, err = os.Stat(filepath.Join(dir, "dist"))
	assert.True(t, os.IsNotExist(err))
}

func TestCheckConfigError(t *testing.T) {
	dir := blogDir(t)
	cfgFile := filepath.Join(dir, "bad.yaml")
	testenv.WriteFile(t, cfgFile, "input: src/site\noutput: src/site\n")

	_, _, err := execArgs(t, "check", dir, "--config", cfgFile)
	var cerr *config.ConfigError
	require.True(t, errors.As(err, &cerr), "%v", err)
	assert.Equal(t, "output", cerr.Field)
}
