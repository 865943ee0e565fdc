package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/bookshelf/internal/config"
	bookshelfws "github.com/conneroisu/bookshelf/internal/websocket"
)

func project(t *testing.T) string {
	t.Helper()
	return writeTree(t, map[string]string{
		"src/books/dune.md": "---\ntitle: Dune\ndate: 2024-01-03\nsubtitle: Frank Herbert\n---\nSand.\n",
		"src/style.css":     "body{}",
	})
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0
	return cfg
}

func TestPreviewServerServesBuild(t *testing.T) {
	root := project(t)
	s, err := New(testConfig(), WithRoot(root))
	require.NoError(t, err)
	defer s.Shutdown(context.Background())

	report, err := s.Rebuild(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Books)

	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/dune/")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "Dune")
	assert.Contains(t, string(body), "new WebSocket")

	resp, err = http.Get(ts.URL + HealthPath)
	require.NoError(t, err)
	var health healthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	resp.Body.Close()
	assert.Equal(t, "ok", health.Status)
	require.NotNil(t, health.Report)
	assert.Equal(t, 1, health.Report.Books)
}

func TestPreviewServerWithoutLiveReload(t *testing.T) {
	root := project(t)
	cfg := testConfig()
	cfg.Server.LiveReload = false
	s, err := New(cfg, WithRoot(root))
	require.NoError(t, err)
	defer s.Shutdown(context.Background())

	_, err = s.Rebuild(context.Background())
	require.NoError(t, err)

	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.NotContains(t, string(body), "new WebSocket")

	resp, err = http.Get(ts.URL + bookshelfws.ReloadPath)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRebuildReloadsClients(t *testing.T) {
	root := project(t)
	s, err := New(testConfig(), WithRoot(root))
	require.NoError(t, err)
	defer s.Shutdown(context.Background())

	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + bookshelfws.ReloadPath
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	require.Eventually(t, func() bool { return s.hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	_, err = s.Rebuild(ctx)
	require.NoError(t, err)

	var msg bookshelfws.Message
	require.NoError(t, wsjson.Read(ctx, conn, &msg))
	assert.Equal(t, bookshelfws.MessageTypeReload, msg.Type)
}

func TestRebuildWithoutPrecompressServesFreshPage(t *testing.T) {
	root := project(t)
	cfg := testConfig()
	cfg.Build.Precompress = true
	s, err := New(cfg, WithRoot(root))
	require.NoError(t, err)
	defer s.Shutdown(context.Background())

	_, err = s.Rebuild(context.Background())
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(root, "dist", "dune", "index.html.gz"))

	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "books", "dune.md"),
		[]byte("---\ntitle: Dune Messiah\ndate: 2024-01-03\n---\nMore sand.\n"), 0o644))
	cfg.Build.Precompress = false
	_, err = s.Rebuild(context.Background())
	require.NoError(t, err)
	assert.NoFileExists(t, filepath.Join(root, "dist", "dune", "index.html.gz"))

	req := httptest.NewRequest(http.MethodGet, "/dune/", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Content-Encoding"))
	assert.Contains(t, rec.Body.String(), "Dune Messiah")
}

func TestRebuildFailureIsReported(t *testing.T) {
	root := writeTree(t, map[string]string{
		"src/books/dune.md":      "---\ntitle: Dune\n---\nSand.\n",
		"src/_layouts/book.html": "{{ define \"content\" }}{{ .Nope }}{{ end }}",
	})
	s, err := New(testConfig(), WithRoot(root))
	require.NoError(t, err)
	defer s.Shutdown(context.Background())

	_, err = s.Rebuild(context.Background())
	require.Error(t, err)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, HealthPath, nil))
	var health healthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&health))
	assert.Equal(t, "build_failed", health.Status)
	assert.NotEmpty(t, health.Error)
}

func TestStartAndShutdown(t *testing.T) {
	root := project(t)
	s, err := New(testConfig(), WithRoot(root))
	require.NoError(t, err)

	addr, err := s.Listen()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr.String() + "/dune/")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 50*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServerShutdownConcurrent(t *testing.T) {
	s, err := New(testConfig(), WithRoot(t.TempDir()))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.Shutdown(ctx))
		}()
	}
	wg.Wait()
}

func TestOriginPatterns(t *testing.T) {
	assert.Equal(t,
		[]string{"localhost:8080", "127.0.0.1:8080"},
		originPatterns(config.ServerConfig{Host: "localhost", Port: 8080}))
	assert.Equal(t,
		[]string{"example.test:9000"},
		originPatterns(config.ServerConfig{Host: "example.test", Port: 9000}))
}
