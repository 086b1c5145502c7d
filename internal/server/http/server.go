package httpserver

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/rs/cors"

	"github.com/LuigiLanza93/cronache-trama-e-fato/internal/runtime"
	"github.com/LuigiLanza93/cronache-trama-e-fato/internal/server/http/controllers"
	docsvc "github.com/LuigiLanza93/cronache-trama-e-fato/internal/services/documents"
	presencesvc "github.com/LuigiLanza93/cronache-trama-e-fato/internal/services/presence"
	logpkg "github.com/LuigiLanza93/cronache-trama-e-fato/pkg/log"
)

// Server hosts the REST API and the realtime websocket gateway on one
// listener.
type Server struct {
	rt       *runtime.Runtime
	logger   logpkg.Logger
	srv      *http.Server
	lis      net.Listener
	registry *controllers.ControllerRegistry
}

// New builds a Server with its own service instances.
func New(rt *runtime.Runtime, logger logpkg.Logger) *Server {
	if logger == nil {
		logger = logpkg.NewLogger()
	}
	docs := docsvc.NewWithLogger(rt, logger.With(logpkg.Component("documents")))
	pres := presencesvc.New(logger.With(logpkg.Component("presence")))
	return NewWithServices(rt, docs, pres, logger)
}

// NewWithServices builds a Server around shared service instances.
func NewWithServices(rt *runtime.Runtime, docs *docsvc.Service, pres *presencesvc.Service, logger logpkg.Logger) *Server {
	if logger == nil {
		logger = logpkg.NewLogger()
	}
	mux := http.NewServeMux()
	registry := controllers.NewControllerRegistry(rt, docs, pres, logger)
	registry.RegisterAllRoutes(mux)

	// Same posture as the original deployment: the SPA may be served from
	// anywhere on the LAN.
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowCredentials: true,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
	})
	return &Server{
		rt:       rt,
		logger:   logger.WithComponent("http"),
		srv:      &http.Server{Handler: c.Handler(mux)},
		registry: registry,
	}
}

// Handler exposes the root handler, used by tests.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.lis = l
	s.logger.Info("http listening", logpkg.Str("addr", l.Addr().String()))
	errCh := make(chan error, 1)
	go func() { errCh <- s.srv.Serve(l) }()
	select {
	case <-ctx.Done():
		cctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		// Hijacked websocket connections outlive Shutdown; drop them first.
		s.registry.CloseSessions()
		_ = s.srv.Shutdown(cctx)
		return nil
	case err := <-errCh:
		return err
	}
}

// Close releases the listener and drops live sessions.
func (s *Server) Close() {
	s.registry.CloseSessions()
	if s.lis != nil {
		_ = s.lis.Close()
	}
}
