package server

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, body := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	}
	return root
}

func gzipped(t *testing.T, s string) string {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(s))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.String()
}

func TestStaticHandler(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"index.html":       "<h1>shelf</h1>",
		"dune/index.html":  "<h1>Dune</h1>",
		"style.css":        "body{}",
		"images/cover.png": "png",
	})
	handler := StaticHandler(dir)

	tests := []struct {
		name     string
		method   string
		path     string
		status   int
		body     string
		location string
	}{
		{name: "index", method: http.MethodGet, path: "/", status: http.StatusOK, body: "<h1>shelf</h1>"},
		{name: "book page", method: http.MethodGet, path: "/dune/", status: http.StatusOK, body: "<h1>Dune</h1>"},
		{name: "file", method: http.MethodGet, path: "/style.css", status: http.StatusOK, body: "body{}"},
		{name: "directory redirect", method: http.MethodGet, path: "/dune", status: http.StatusMovedPermanently, location: "/dune/"},
		{name: "directory without index", method: http.MethodGet, path: "/images/", status: http.StatusNotFound},
		{name: "missing", method: http.MethodGet, path: "/nope.html", status: http.StatusNotFound},
		{name: "traversal stays inside", method: http.MethodGet, path: "/../../etc/passwd", status: http.StatusNotFound},
		{name: "head", method: http.MethodHead, path: "/style.css", status: http.StatusOK},
		{name: "post rejected", method: http.MethodPost, path: "/", status: http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/", nil)
			req.URL.Path = tt.path
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, rec.Body.String())
			}
			if tt.location != "" {
				assert.Equal(t, tt.location, rec.Header().Get("Location"))
			}
		})
	}
}

func TestStaticHandlerNoCache(t *testing.T) {
	dir := writeTree(t, map[string]string{"index.html": "hi"})
	rec := httptest.NewRecorder()
	StaticHandler(dir).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "no-cache, no-store, must-revalidate", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "no-cache", rec.Header().Get("Pragma"))
}

func TestStaticHandlerGzip(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"style.css":    "body{}",
		"style.css.gz": gzipped(t, "body{}"),
		"plain.txt":    "plain",
		"app.js":       "new()",
		"app.js.gz":    gzipped(t, "old()"),
	})
	now := time.Now()
	setModTime(t, filepath.Join(dir, "style.css"), now)
	setModTime(t, filepath.Join(dir, "style.css.gz"), now)
	setModTime(t, filepath.Join(dir, "app.js"), now)
	setModTime(t, filepath.Join(dir, "app.js.gz"), now.Add(-time.Hour))
	handler := StaticHandler(dir)

	t.Run("served when accepted", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/style.css", nil)
		req.Header.Set("Accept-Encoding", "br, gzip")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))
		assert.Equal(t, "Accept-Encoding", rec.Header().Get("Vary"))
		assert.Contains(t, rec.Header().Get("Content-Type"), "text/css")

		zr, err := gzip.NewReader(rec.Body)
		require.NoError(t, err)
		body, err := io.ReadAll(zr)
		require.NoError(t, err)
		assert.Equal(t, "body{}", string(body))
	})

	t.Run("plain when not accepted", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/style.css", nil))

		assert.Empty(t, rec.Header().Get("Content-Encoding"))
		assert.Equal(t, "body{}", rec.Body.String())
	})

	t.Run("plain without sibling", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/plain.txt", nil)
		req.Header.Set("Accept-Encoding", "gzip")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Empty(t, rec.Header().Get("Content-Encoding"))
		assert.Equal(t, "plain", rec.Body.String())
	})

	t.Run("plain when sibling is older", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/app.js", nil)
		req.Header.Set("Accept-Encoding", "gzip")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Empty(t, rec.Header().Get("Content-Encoding"))
		assert.Equal(t, "new()", rec.Body.String())
	})
}

func setModTime(t *testing.T, path string, mtime time.Time) {
	t.Helper()
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}

func TestAcceptsGzip(t *testing.T) {
	tests := map[string]bool{
		"":                    false,
		"gzip":                true,
		"deflate, gzip;q=1.0": true,
		"GZIP":                true,
		"gzip;q=0":            false,
		"br":                  false,
	}
	for header, want := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Accept-Encoding", header)
		assert.Equal(t, want, acceptsGzip(req), header)
	}
}
