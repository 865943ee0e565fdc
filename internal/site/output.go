package site

import (
	"bytes"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
	"github.com/natefinch/atomic"
	"github.com/zeebo/blake3"
)

// compressible lists the extensions worth a .gz sibling.
var compressible = map[string]bool{
	".html": true,
	".css":  true,
	".js":   true,
	".json": true,
	".svg":  true,
	".txt":  true,
	".xml":  true,
	".wasm": true,
}

// writeFile replaces path atomically with data, creating parent
// directories. With precompress set, compressible files also get a gzip
// sibling; without it any sibling left by an earlier build is removed so it
// cannot be served in place of the new content.
func writeFile(path string, data []byte, precompress bool) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return err
	}
	if precompress && compressible[filepath.Ext(path)] {
		return writeGzip(path+".gz", data)
	}
	return removeGzip(path)
}

// removeGzip deletes the gzip sibling of path if there is one.
func removeGzip(path string) error {
	if err := os.Remove(path + ".gz"); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func writeGzip(path string, data []byte) error {
	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return err
	}
	zw.Name = filepath.Base(path[:len(path)-len(".gz")])
	if _, err := zw.Write(data); err != nil {
		return err
	}
	if err := zw.Close(); err != nil {
		return err
	}
	return atomic.WriteFile(path, &buf)
}

// digest returns the BLAKE3-256 digest of the file at path.
func digest(path string) ([32]byte, error) {
	var sum [32]byte
	f, err := os.Open(path)
	if err != nil {
		return sum, err
	}
	defer f.Close()

	h := blake3.New()
	if _, err := io.Copy(h, f); err != nil {
		return sum, err
	}
	copy(sum[:], h.Sum(nil))
	return sum, nil
}

// sameContent reports whether dst exists with the same digest as src.
func sameContent(src, dst string) (bool, error) {
	dstSum, err := digest(dst)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	srcSum, err := digest(src)
	if err != nil {
		return false, err
	}
	return srcSum == dstSum, nil
}
