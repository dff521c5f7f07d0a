// Package server exposes the layout pipeline over HTTP.
//
// Stateless routes lay out or render the records posted with the request.
// Board routes operate on one shared [pipeline.Live] board that is fed by
// the configured source and recomputed whenever its inputs change.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/okrtree/pkg/observability/prom"
	"github.com/matzehuels/okrtree/pkg/pipeline"
	"github.com/matzehuels/okrtree/pkg/source"
)

const (
	readHeaderTimeout = 10 * time.Second
	requestTimeout    = 60 * time.Second
	shutdownTimeout   = 15 * time.Second
	maxBodyBytes      = 16 << 20
)

// Config wires the server's dependencies.
type Config struct {
	Addr   string
	Logger *log.Logger
	Runner *pipeline.Runner
	// Source feeds the board and the discussions route. It may be nil, in
	// which case the board only accepts pushed records.
	Source source.Source
	// Options are the defaults for every request and for the board.
	Options pipeline.Options
	// Registry receives the server and pipeline metrics. A nil registry
	// gets a private one.
	Registry *prometheus.Registry
	// Now is the clock used to classify discussion weeks.
	Now func() time.Time
}

// Server is the HTTP front end.
type Server struct {
	cfg     Config
	log     *log.Logger
	runner  *pipeline.Runner
	board   *pipeline.Live
	metrics *httpMetrics
	router  chi.Router
}

// New builds the router and the board. It does not load anything; call
// [Server.Board] Refresh or let [Server.ListenAndServe] do it.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.Runner == nil {
		cfg.Runner = pipeline.NewRunner(nil, nil, cfg.Logger)
	}
	if cfg.Registry == nil {
		cfg.Registry = prometheus.NewRegistry()
		cfg.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	cfg.Options.Logger = cfg.Logger

	s := &Server{
		cfg:     cfg,
		log:     cfg.Logger,
		runner:  cfg.Runner,
		board:   pipeline.NewLive(cfg.Runner, cfg.Source, cfg.Options),
		metrics: newHTTPMetrics(cfg.Registry),
	}
	s.router = s.routes()
	return s
}

// RegisterHooks points the global pipeline, cache and HTTP client hooks
// at the server's registry.
func (s *Server) RegisterHooks() {
	prom.New(s.cfg.Registry).Register()
}

// Board returns the shared live board.
func (s *Server) Board() *pipeline.Live { return s.board }

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(s.metrics.middleware)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(s.cfg.Registry, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RequestSize(maxBodyBytes))

		// streams outlive the request timeout
		r.Get("/board/events", s.handleBoardEvents)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(requestTimeout))

			r.Post("/layout", s.handleLayout)
			r.Post("/render", s.handleRender)
			r.Get("/discussions", s.handleDiscussions)

			r.Get("/board", s.handleBoard)
			r.Get("/board/roots", s.handleBoardRoots)
			r.Get("/board/render", s.handleBoardRender)
			r.Put("/board/records", s.handleBoardRecords)
			r.Put("/board/context", s.handleBoardContext)
			r.Put("/board/root", s.handleBoardRoot)
			r.Post("/board/refresh", s.handleBoardRefresh)
		})
	})
	return r
}

// ListenAndServe loads the board (when a source is configured), serves
// until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s.cfg.Source != nil {
		if snap, err := s.board.Refresh(ctx); err != nil {
			s.log.Warn("initial board load failed", "source", s.cfg.Source.Name(), "error", err)
		} else {
			s.log.Info("board loaded", "source", s.cfg.Source.Name(), "nodes", len(snap.Layout.Nodes))
		}
	}

	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s,
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.board.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down")
	s.board.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
