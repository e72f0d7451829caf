package testenv

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/otiai10/copy"
)

// TempSiteDir copies the fixture site at fixtureDir into a new temp
// directory and returns the temp directory. The site lives at its root.
func TempSiteDir(t testing.TB, fixtureDir string) string {
	t.Helper()
	if info, err := os.Stat(fixtureDir); err != nil {
		panic(err)
	} else if !info.IsDir() {
		panic(fixtureDir + " is not a directory")
	}
	tmpDir := TempDir(t, "")
	die(copy.Copy(fixtureDir, tmpDir, copy.Options{
		OnDirExists: func(src, dest string) copy.DirExistsAction { return copy.Replace },
	}))
	return tmpDir
}

// WriteFiles writes a map of relative path to body under dir, creating
// parent directories.
func WriteFiles(t testing.TB, dir string, files map[string]string) {
	t.Helper()
	for name, body := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		Mkdirs(t, 0755, filepath.Dir(p))
		WriteFile(t, p, body)
	}
}
