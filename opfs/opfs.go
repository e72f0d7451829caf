// Package opfs is an fs implementation rooted at a site directory that
// supports stat, reads, globbing, and checksums.
package opfs

import (
	"crypto/sha256"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

type FS struct {
	dirFS fs.FS
	root  string
}

func New(root string) FS {
	return FS{
		dirFS: os.DirFS(root),
		root:  root,
	}
}

func (fs FS) Root() string { return fs.root }

func (fs FS) Open(name string) (fs.File, error) { return fs.dirFS.Open(name) }

func (fs FS) Stat(name string) (fs.FileInfo, error) {
	return os.Stat(fs.Abs(name))
}

func (fs FS) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(fs.Abs(name))
}

// Glob returns the slash-separated paths of files matching pattern.
func (fs FS) Glob(pattern string) ([]string, error) {
	matches, err := doublestar.Glob(fs, pattern)
	if err != nil {
		return nil, err
	}
	files := matches[:0]
	for _, m := range matches {
		info, err := fs.Stat(m)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, m)
		}
	}
	return files, nil
}

func (fs FS) Abs(name string) string {
	name = strings.TrimPrefix(name, fs.root+"/")
	return filepath.Clean(filepath.Join(fs.root, filepath.FromSlash(name)))
}

func (fs FS) Join(paths ...string) string {
	return filepath.Join(append([]string{fs.root}, paths...)...)
}

// Rel returns the slash-separated path of p relative to the root, and false
// when p is outside of it.
func (fs FS) Rel(p string) (string, bool) {
	rel, err := filepath.Rel(fs.root, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// Contains reports whether the file or directory at name is dir or inside
// it. Both are slash-separated and relative to the root.
func Contains(dir, name string) bool {
	if dir == "" || dir == "." {
		return true
	}
	return name == dir || strings.HasPrefix(name, strings.TrimSuffix(dir, "/")+"/")
}

// MatchAny reports whether name matches any of the doublestar patterns.
func MatchAny(patterns []string, name string) bool {
	for _, pat := range patterns {
		if ok, err := doublestar.Match(pat, name); err == nil && ok {
			return true
		}
	}
	return false
}

func Checksum(p string) ([]byte, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ChecksumReader(f)
}

func ChecksumReader(r io.Reader) ([]byte, error) {
	sha := sha256.New()
	if _, err := io.Copy(sha, r); err != nil {
		return nil, err
	}

	return sha.Sum(nil), nil
}
