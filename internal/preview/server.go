// Package preview serves a built site over HTTP and rebuilds it when the
// docs directory or any mapped asset source directory changes.
package preview

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"git.home.luguber.info/inful/extassets/internal/foundation/errors"
	"git.home.luguber.info/inful/extassets/internal/logfields"
	"git.home.luguber.info/inful/extassets/internal/site"
	"git.home.luguber.info/inful/extassets/internal/version"
	"git.home.luguber.info/inful/extassets/internal/watch"
)

const shutdownTimeout = 5 * time.Second

// Config configures the preview server.
type Config struct {
	Addr     string
	Debounce time.Duration

	// Listener, when set, is served instead of listening on Addr.
	Listener net.Listener

	// MetricsPath and MetricsHandler expose metrics; both empty disables the endpoint.
	MetricsPath    string
	MetricsHandler http.Handler
}

// Server is the preview server.
type Server struct {
	builder    *site.Builder
	cfg        Config
	status     buildStatus
	errAdapter *errors.HTTPErrorAdapter
	logger     *slog.Logger
	startTime  time.Time

	readyOnce sync.Once
	ready     chan struct{}
	addr      string
}

// New creates a preview server for builder.
func New(builder *site.Builder, cfg Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		builder:    builder,
		cfg:        cfg,
		errAdapter: errors.NewHTTPErrorAdapter(logger),
		logger:     logger,
		startTime:  time.Now(),
		ready:      make(chan struct{}),
	}
}

// Ready is closed once Run is listening.
func (s *Server) Ready() <-chan struct{} { return s.ready }

// Addr returns the listen address. It is only valid after Ready is closed.
func (s *Server) Addr() string { return s.addr }

// Handler returns the HTTP handler: the site output, /healthz and, when
// configured, the metrics endpoint.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	if s.cfg.MetricsPath != "" && s.cfg.MetricsHandler != nil {
		mux.Handle(s.cfg.MetricsPath, s.cfg.MetricsHandler)
	}
	mux.Handle("/", http.FileServer(http.Dir(s.builder.SiteDir())))
	return mux
}

// Rebuild runs one build and records its outcome. A failed build leaves the
// previous output in place.
func (s *Server) Rebuild(ctx context.Context) {
	report, err := s.builder.Build(ctx)
	if err != nil {
		s.logger.Warn("Rebuild failed", logfields.Error(err))
		s.status.setError(err)
		return
	}
	s.status.setSuccess(report)
}

// Run performs the initial build, starts the HTTP server, registers the docs
// and asset source directories for watching and rebuilds on change until ctx
// is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.Rebuild(ctx)

	w, err := watch.New(s.cfg.Debounce, s.logger)
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()
	if err := s.builder.Watch(w); err != nil {
		return err
	}

	ln, err := s.listen()
	if err != nil {
		return err
	}
	httpServer := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	serveErr := make(chan error, 1)
	go func() {
		if err := httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
	}()
	s.addr = ln.Addr().String()
	s.logger.Info("Preview server listening", logfields.URL("http://"+s.addr), slog.Any("watching", w.Roots()))
	s.readyOnce.Do(func() { close(s.ready) })

	// One pending slot: changes arriving mid-build queue exactly one follow-up build.
	rebuildReq := make(chan struct{}, 1)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.rebuildWorker(ctx, rebuildReq)
	}()

	watchErr := make(chan error, 1)
	go func() {
		watchErr <- w.Run(ctx, func() {
			select {
			case rebuildReq <- struct{}{}:
			default:
			}
		})
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		runErr = errors.WrapError(err, errors.CategoryInternal, "preview server failed").Build()
	case err := <-watchErr:
		runErr = err
	}
	cancel()
	return s.shutdown(httpServer, &wg, runErr)
}

func (s *Server) listen() (net.Listener, error) {
	if s.cfg.Listener != nil {
		return s.cfg.Listener, nil
	}
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryInternal, "failed to listen").
			WithContext("addr", s.cfg.Addr).Build()
	}
	return ln, nil
}

func (s *Server) rebuildWorker(ctx context.Context, rebuildReq <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-rebuildReq:
			s.logger.Info("Change detected; rebuilding site")
			s.Rebuild(ctx)
		}
	}
}

func (s *Server) shutdown(httpServer *http.Server, wg *sync.WaitGroup, runErr error) error {
	s.logger.Info("Shutting down preview server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("HTTP server shutdown error", logfields.Error(err))
	}
	wg.Wait()
	return runErr
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		err := errors.ValidationError("invalid HTTP method").
			WithContext("method", r.Method).
			WithContext("allowed_method", "GET").
			Build()
		s.errAdapter.WriteErrorResponse(w, r, err)
		return
	}

	last, builds, lastErr := s.status.get()
	if lastErr != nil {
		s.errAdapter.WriteErrorResponse(w, r, lastErr)
		return
	}
	if builds == 0 {
		s.errAdapter.WriteErrorResponse(w, r, errors.NewError(errors.CategoryNotFound, "no build has completed yet").Build())
		return
	}

	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Version:   version.Version,
		Uptime:    time.Since(s.startTime).Seconds(),
		Builds:    builds,
	}
	if last != nil {
		resp.RunID = last.RunID
		resp.Pages = last.Pages
		resp.Published = last.Published
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Error("Failed writing health response", logfields.Error(err))
	}
}
