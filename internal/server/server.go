// Package server serves the generated GraphQL schema over HTTP.
//
// Routes:
//
//	/graphql  GET (query string) or POST (JSON body) GraphQL requests
//	/health   liveness, backed by an optional check
//	/metrics  Prometheus metrics
//
// Every response carries an X-Request-ID header; the same ID is attached
// to the request context and to the request's log line.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/graphql-go/graphql"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// RequestIDHeader is the response header carrying the request ID.
const RequestIDHeader = "X-Request-ID"

// DefaultMaxRequestBytes caps the size of a POSTed request body.
const DefaultMaxRequestBytes = 1 << 20

// Server is the HTTP front end of a schema.
type Server struct {
	schema graphql.Schema
	log    *zap.SugaredLogger
	ids    IDGenerator
	health func(context.Context) error

	maxRequestBytes int64
}

// Option configures a Server.
type Option func(*Server)

// WithIDGenerator replaces the UUIDv7 request ID generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(s *Server) { s.ids = g }
}

// WithHealthCheck makes /health report check's failures.
func WithHealthCheck(check func(context.Context) error) Option {
	return func(s *Server) { s.health = check }
}

// WithMaxRequestBytes replaces DefaultMaxRequestBytes.
func WithMaxRequestBytes(n int64) Option {
	return func(s *Server) { s.maxRequestBytes = n }
}

// New creates a server for schema. A nil logger disables logging.
func New(schema graphql.Schema, log *zap.SugaredLogger, opts ...Option) *Server {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	s := &Server{schema: schema, log: log, ids: UUIDGenerator{}, maxRequestBytes: DefaultMaxRequestBytes}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed, instrumented handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/graphql", s.withRequestID(http.HandlerFunc(s.serveGraphQL)))
	mux.Handle("/health", s.withRequestID(http.HandlerFunc(s.serveHealth)))
	mux.Handle("/metrics", promhttp.Handler())
	return instrument(mux)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.log.Infow("listening", "addr", addr)
	errc := make(chan error, 1)
	go func() {
		errc <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve %s: %w", addr, err)
	case <-ctx.Done():
		s.log.Infow("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := s.ids.Generate()
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(WithRequestID(r.Context(), id)))
	})
}

// Request is a GraphQL request body.
type Request struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName,omitempty"`
	Variables     map[string]interface{} `json:"variables,omitempty"`
}

func (s *Server) serveGraphQL(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxRequestBytes)
	}
	req, err := decodeRequest(r)
	if err != nil {
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		switch {
		case errors.Is(err, errMethodNotAllowed):
			status = http.StatusMethodNotAllowed
		case errors.As(err, &tooLarge):
			status = http.StatusRequestEntityTooLarge
		}
		s.log.Infow("rejected request", "request_id", RequestID(r.Context()), "error", err)
		http.Error(w, err.Error(), status)
		return
	}

	start := time.Now()
	res := graphql.Do(graphql.Params{
		Schema:         s.schema,
		RequestString:  req.Query,
		VariableValues: req.Variables,
		OperationName:  req.OperationName,
		Context:        r.Context(),
	})

	outcome := "ok"
	if res.HasErrors() {
		outcome = "error"
	}
	QueriesTotal.WithLabelValues(outcome).Inc()
	s.log.Infow("graphql request",
		"request_id", RequestID(r.Context()),
		"operation", req.OperationName,
		"errors", len(res.Errors),
		"duration", time.Since(start),
	)

	writeJSON(w, http.StatusOK, res)
}

var errMethodNotAllowed = errors.New("method not allowed")

func decodeRequest(r *http.Request) (Request, error) {
	var req Request
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		req.Query = q.Get("query")
		req.OperationName = q.Get("operationName")
		if vars := q.Get("variables"); vars != "" {
			if err := json.Unmarshal([]byte(vars), &req.Variables); err != nil {
				return req, fmt.Errorf("decode variables: %w", err)
			}
		}
	case http.MethodPost:
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return req, fmt.Errorf("decode request: %w", err)
		}
	default:
		return req, errMethodNotAllowed
	}
	if req.Query == "" {
		return req, errors.New("missing query")
	}
	return req, nil
}

func (s *Server) serveHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.health != nil {
		if err := s.health(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
