package httpadapter

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/pgn-l0-service/internal/domain"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DatasetReader exposes the currently loaded dataset.
type DatasetReader interface {
	sharedobs.ReadinessChecker
	Current() (*domain.Dataset, error)
}

// Loader loads L0 files into the session.
type Loader interface {
	LoadPath(ctx context.Context, path string) (domain.LoadSummary, error)
	LoadBlob(ctx context.Context, blob domain.RawBlob) (domain.LoadSummary, error)
}

// Server exposes the dataset API plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	datasets   DatasetReader
	loader     Loader
	archive    domain.Archive
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics and the
// /api/v1 routes. archive may be nil, in which case listing is unavailable.
func NewServer(addr string, datasets DatasetReader, loader Loader, archive domain.Archive, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  60 * time.Second,
			WriteTimeout: 120 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		datasets: datasets,
		loader:   loader,
		archive:  archive,
		logger:   logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(datasets))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/v1/archive", s.handleArchive)
	mux.HandleFunc("POST /api/v1/load", s.handleLoad)
	mux.HandleFunc("POST /api/v1/upload", s.handleUpload)
	mux.HandleFunc("GET /api/v1/dataset", s.handleDataset)
	mux.HandleFunc("GET /api/v1/series", s.handleSeries)
	mux.HandleFunc("GET /api/v1/stats", s.handleStats)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}
