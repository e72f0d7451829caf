package builder

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/natefinch/atomic"

	"github.com/jeffrom/pressroom/opfs"
)

// compressExts are the outputs given a precompressed .gz sibling.
var compressExts = map[string]bool{
	".html": true,
	".htm":  true,
	".css":  true,
	".js":   true,
	".svg":  true,
	".xml":  true,
	".json": true,
}

// writeFile atomically writes content to p, creating parent directories. It
// reports false without writing when p already holds content.
func writeFile(p string, content []byte) (bool, error) {
	if sum, err := opfs.Checksum(p); err == nil {
		next := sha256.Sum256(content)
		if bytes.Equal(sum, next[:]) {
			return false, nil
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, err
	}

	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return false, err
	}
	if err := atomic.WriteFile(p, bytes.NewReader(content)); err != nil {
		return false, err
	}
	return true, nil
}

func shouldCompress(p string) bool {
	return compressExts[strings.ToLower(filepath.Ext(p))]
}

// writeCompressed writes a gzip sibling of p. The gzip header carries no name
// or timestamp so unchanged content compresses to identical bytes.
func writeCompressed(p string, content []byte) (bool, error) {
	buf := &bytes.Buffer{}
	zw, err := gzip.NewWriterLevel(buf, gzip.BestCompression)
	if err != nil {
		return false, err
	}
	if _, err := zw.Write(content); err != nil {
		return false, err
	}
	if err := zw.Close(); err != nil {
		return false, err
	}
	return writeFile(p+".gz", buf.Bytes())
}

// compressTree writes gzip siblings for every compressible file under root.
func compressTree(root string) (int, error) {
	n := 0
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !shouldCompress(p) {
			return nil
		}
		b, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		changed, err := writeCompressed(p, b)
		if changed {
			n++
		}
		return err
	})
	return n, err
}
