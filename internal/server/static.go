package server

import (
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// StaticHandler serves the built site from dir. Responses are never cached,
// directories need an index.html, and a precompressed .gz sibling is served
// to clients that accept gzip.
func StaticHandler(dir string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		setNoCache(w.Header())

		name := path.Clean("/" + r.URL.Path)
		full := filepath.Join(dir, filepath.FromSlash(name))

		info, err := os.Stat(full)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		if info.IsDir() {
			if !strings.HasSuffix(r.URL.Path, "/") {
				http.Redirect(w, r, r.URL.Path+"/", http.StatusMovedPermanently)
				return
			}
			full = filepath.Join(full, "index.html")
			info, err = os.Stat(full)
			if err != nil || info.IsDir() {
				http.NotFound(w, r)
				return
			}
		}

		if acceptsGzip(r) {
			if serveGzip(w, r, full, info) {
				return
			}
		}

		f, err := os.Open(full)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		defer f.Close()
		http.ServeContent(w, r, filepath.Base(full), info.ModTime(), f)
	})
}

// serveGzip serves full+".gz" if it exists and is not older than full, and
// reports whether it did.
func serveGzip(w http.ResponseWriter, r *http.Request, full string, source os.FileInfo) bool {
	gz, err := os.Open(full + ".gz")
	if err != nil {
		return false
	}
	defer gz.Close()

	info, err := gz.Stat()
	if err != nil || info.ModTime().Before(source.ModTime()) {
		return false
	}

	h := w.Header()
	h.Add("Vary", "Accept-Encoding")
	h.Set("Content-Encoding", "gzip")
	if ctype := mime.TypeByExtension(filepath.Ext(full)); ctype != "" {
		h.Set("Content-Type", ctype)
	}
	http.ServeContent(w, r, filepath.Base(full), info.ModTime(), gz)
	return true
}

func acceptsGzip(r *http.Request) bool {
	for _, part := range strings.Split(r.Header.Get("Accept-Encoding"), ",") {
		coding, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		if strings.EqualFold(strings.TrimSpace(coding), "gzip") {
			return strings.ReplaceAll(strings.TrimSpace(params), " ", "") != "q=0"
		}
	}
	return false
}

func setNoCache(h http.Header) {
	h.Set("Cache-Control", "no-cache, no-store, must-revalidate")
	h.Set("Pragma", "no-cache")
	h.Set("Expires", "0")
}
