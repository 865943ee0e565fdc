// Package server runs the local preview: it serves the built site, rebuilds
// when sources change, and tells open pages to reload.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/conneroisu/bookshelf/internal/config"
	"github.com/conneroisu/bookshelf/internal/logging"
	"github.com/conneroisu/bookshelf/internal/site"
	"github.com/conneroisu/bookshelf/internal/watcher"
	"github.com/conneroisu/bookshelf/internal/websocket"
)

// HealthPath reports the last build.
const HealthPath = "/_bookshelf/health"

// PreviewServer serves the output directory and rebuilds on change.
type PreviewServer struct {
	config  *config.Config
	root    string
	logger  logging.Logger
	builder *site.Builder
	hub     *websocket.Hub
	watcher *watcher.FileWatcher

	buildMutex sync.Mutex
	lastReport *site.Report
	lastError  error

	serverMutex  sync.RWMutex
	httpServer   *http.Server
	listener     net.Listener
	shutdownOnce sync.Once
}

// Option configures a PreviewServer.
type Option func(*PreviewServer)

// WithRoot resolves project paths against dir.
func WithRoot(dir string) Option {
	return func(s *PreviewServer) { s.root = dir }
}

// WithLogger sets the logger.
func WithLogger(logger logging.Logger) Option {
	return func(s *PreviewServer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a new preview server
func New(cfg *config.Config, opts ...Option) (*PreviewServer, error) {
	s := &PreviewServer{
		config: cfg,
		root:   ".",
		logger: logging.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithComponent("server")

	builderOpts := []site.Option{site.WithRoot(s.root), site.WithLogger(s.logger)}
	if cfg.Server.LiveReload {
		builderOpts = append(builderOpts, site.WithLiveReload(websocket.ReloadPath))
		s.hub = websocket.NewHub(originPatterns(cfg.Server), s.logger)
	}
	s.builder = site.NewBuilder(cfg, builderOpts...)

	fileWatcher, err := watcher.NewFileWatcher(watcher.DefaultDebounce, s.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	s.watcher = fileWatcher

	return s, nil
}

func originPatterns(cfg config.ServerConfig) []string {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	port := strconv.Itoa(cfg.Port)
	if host == "localhost" || host == "127.0.0.1" {
		return []string{net.JoinHostPort("localhost", port), net.JoinHostPort("127.0.0.1", port)}
	}
	return []string{net.JoinHostPort(host, port)}
}

// Handler returns the HTTP handler without starting anything.
func (s *PreviewServer) Handler() http.Handler {
	mux := http.NewServeMux()
	if s.hub != nil {
		mux.Handle(websocket.ReloadPath, s.hub)
	}
	mux.HandleFunc(HealthPath, s.handleHealth)
	mux.Handle("/", StaticHandler(s.builder.OutputDir()))
	return s.addMiddleware(mux)
}

// Rebuild runs a build and, when it succeeds, reloads connected pages.
func (s *PreviewServer) Rebuild(ctx context.Context) (*site.Report, error) {
	s.buildMutex.Lock()
	defer s.buildMutex.Unlock()

	report, err := s.builder.Build(ctx)
	s.lastReport, s.lastError = report, err
	if err != nil {
		s.logger.Error(ctx, err, "Build failed")
		return nil, err
	}
	for _, msg := range report.ContentErrors {
		s.logger.Warn(ctx, nil, "Review skipped", "error", msg)
	}
	if s.hub != nil {
		s.hub.Reload()
	}
	return report, nil
}

// Listen binds the configured address. Start calls it when needed.
func (s *PreviewServer) Listen() (net.Addr, error) {
	s.serverMutex.Lock()
	defer s.serverMutex.Unlock()
	if s.listener != nil {
		return s.listener.Addr(), nil
	}
	addr := net.JoinHostPort(s.config.Server.Host, strconv.Itoa(s.config.Server.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("cannot listen on %s: %w", addr, err)
	}
	s.listener = ln
	return ln.Addr(), nil
}

// Start builds the site, starts watching, and serves until ctx is done or
// Shutdown is called.
func (s *PreviewServer) Start(ctx context.Context) error {
	if _, err := s.Rebuild(ctx); err != nil {
		s.logger.Warn(ctx, err, "Initial build failed, serving previous output")
	}

	if err := s.setupFileWatcher(ctx); err != nil {
		return err
	}

	addr, err := s.Listen()
	if err != nil {
		return err
	}

	s.serverMutex.Lock()
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	server := s.httpServer
	listener := s.listener
	s.serverMutex.Unlock()

	s.logger.Info(ctx, "Preview server listening", "url", "http://"+addr.String())

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.Shutdown(shutdownCtx)
	}()

	if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func (s *PreviewServer) setupFileWatcher(ctx context.Context) error {
	output := s.builder.OutputDir()
	s.watcher.AddFilter(watcher.SiteFilter)
	s.watcher.AddFilter(watcher.NoHiddenFilter)
	s.watcher.AddFilter(watcher.NoGitFilter)
	s.watcher.AddFilter(watcher.ExcludeDirFilter(output))
	s.watcher.AddHandler(s.handleFileChange(ctx))

	skip := func(dir string) bool {
		return watcher.InDir(dir, output) || filepath.Base(dir) == "node_modules"
	}
	if err := s.watcher.AddRecursive(s.root, skip); err != nil {
		return fmt.Errorf("failed to watch %s: %w", s.root, err)
	}
	return s.watcher.Start(ctx)
}

func (s *PreviewServer) handleFileChange(ctx context.Context) watcher.ChangeHandler {
	return func(events []watcher.ChangeEvent) error {
		for _, event := range events {
			s.logger.Debug(ctx, "File changed", "path", event.Path, "type", event.Type.String())
		}
		_, err := s.Rebuild(ctx)
		return err
	}
}

func (s *PreviewServer) addMiddleware(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		handler.ServeHTTP(w, r)
		s.logger.Debug(r.Context(), "Request served",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start).String(),
		)
	})
}

type healthResponse struct {
	Status  string       `json:"status"`
	Clients int          `json:"clients"`
	Report  *site.Report `json:"report,omitempty"`
	Error   string       `json:"error,omitempty"`
}

func (s *PreviewServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.buildMutex.Lock()
	resp := healthResponse{Status: "ok", Report: s.lastReport}
	if s.lastError != nil {
		resp.Status = "build_failed"
		resp.Error = s.lastError.Error()
	}
	s.buildMutex.Unlock()
	if s.hub != nil {
		resp.Clients = s.hub.Clients()
	}

	setNoCache(w.Header())
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// Shutdown gracefully shuts down the server and cleans up resources
func (s *PreviewServer) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.logger.Info(ctx, "Shutting down preview server")

		if s.watcher != nil {
			_ = s.watcher.Stop()
		}
		if s.hub != nil {
			if err := s.hub.Shutdown(ctx); err != nil {
				shutdownErr = err
			}
		}

		s.serverMutex.RLock()
		server := s.httpServer
		listener := s.listener
		s.serverMutex.RUnlock()

		if server != nil {
			if err := server.Shutdown(ctx); err != nil {
				shutdownErr = err
			}
		} else if listener != nil {
			_ = listener.Close()
		}
	})

	return shutdownErr
}
