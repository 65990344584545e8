package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gmarchetti/dimmi/internal/database"
	"github.com/gmarchetti/dimmi/internal/gcal"
	"github.com/gmarchetti/dimmi/internal/parser"
)

type Server struct {
	db         *database.DB
	facade     *parser.Facade
	cal        *gcal.Client
	generative bool
	httpSrv    *http.Server
	port       int
	now        func() time.Time
}

// Config holds everything the server needs; the calendar client may be nil
// when the store is not configured.
type Config struct {
	DB         *database.DB
	Facade     *parser.Facade
	Cal        *gcal.Client
	Generative bool
	Port       int
	Now        func() time.Time
}

func New(cfg Config) *Server {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	s := &Server{
		db:         cfg.DB,
		facade:     cfg.Facade,
		cal:        cfg.Cal,
		generative: cfg.Generative,
		port:       cfg.Port,
		now:        now,
	}

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	s.httpSrv = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.corsMiddleware(mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 45 * time.Second, // parse requests may wait on the backend
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", s.handleHealthCheck)

	mux.HandleFunc("POST /api/parse", s.handleParse)
	mux.HandleFunc("POST /api/parse/legacy", s.handleParseLegacy)
	mux.HandleFunc("POST /api/execute", s.handleExecute)
	mux.HandleFunc("PUT /api/parser/config", s.handleUpdateParserConfig)
	mux.HandleFunc("GET /api/traces", s.handleListTraces)
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	fmt.Printf("HTTP server listening on port %d\n", s.port)
	return s.httpSrv.ListenAndServe()
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
