package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/cors"

	"arxplain/internal/agent"
	"arxplain/internal/history"
)

// ToolSession is the gateway's view of the shared tool provider session.
type ToolSession interface {
	Ready() bool
	ListTools(ctx context.Context) ([]agent.ToolSpec, error)
	CallTool(ctx context.Context, name string, input map[string]any) (string, error)
}

type Server struct {
	model          agent.ModelClient
	tools          ToolSession
	store          *history.Store
	modelReady     bool
	allowedOrigins []string
	mux            *http.ServeMux
}

type ServerOption func(*Server)

// WithAllowedOrigins enables CORS for the given origins.
func WithAllowedOrigins(origins []string) ServerOption {
	return func(s *Server) { s.allowedOrigins = origins }
}

// WithModelReady records whether model credentials are configured. When
// false the explain endpoint refuses with a plain error status before any
// streaming starts.
func WithModelReady(ready bool) ServerOption {
	return func(s *Server) { s.modelReady = ready }
}

func NewServer(model agent.ModelClient, tools ToolSession, store *history.Store, opts ...ServerOption) *Server {
	s := &Server{
		model:      model,
		tools:      tools,
		store:      store,
		modelReady: true,
		mux:        http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("POST /explain-research-term", s.handleExplain)
	s.mux.HandleFunc("GET /v1/runs", s.handleListRuns)
	s.mux.HandleFunc("GET /v1/runs/{id}", s.handleGetRun)
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)
	s.mux.HandleFunc("GET /{$}", s.handleRoot)
}

func (s *Server) Handler() http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   s.allowedOrigins,
		AllowedMethods:   []string{"GET", "POST"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})(s.mux)
}

// ListenAndServe serves until ctx is cancelled, then drains in-flight
// streams before returning.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
