// Package server exposes the cipher operations over HTTP for scripting:
// XOR transform, keystream dump, and keyring management.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/terriblecrypt/terrible/internal/auth"
	"github.com/terriblecrypt/terrible/internal/config"
	"github.com/terriblecrypt/terrible/internal/keyring"
)

// Server represents the HTTP server
type Server struct {
	cfg        *config.Config
	ring       *keyring.Keyring
	jwtAuth    *auth.JWTAuth
	engine     *gin.Engine
	httpServer *http.Server
}

// New creates a new server instance over an already-open keyring.
func New(cfg *config.Config, ring *keyring.Keyring) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		cfg:     cfg,
		ring:    ring,
		jwtAuth: auth.NewJWTAuth(cfg.JWTSecret, time.Duration(cfg.JWTExpire)*time.Hour),
		engine:  gin.New(),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := s.engine

	r.Use(TraceMiddleware())
	r.Use(LoggerMiddleware())
	r.Use(gin.Recovery())

	r.GET("/healthz", s.handleHealth)
	r.POST("/api/login", s.handleLogin)

	api := r.Group("/api")
	api.Use(AuthMiddleware(s.jwtAuth))

	// Binary streaming endpoints, no compression.
	api.POST("/crypt", s.handleCrypt)
	api.GET("/keystream", s.handleKeystream)

	// JSON endpoints get gzip.
	keys := api.Group("/keys", gzip.Gzip(gzip.DefaultCompression))
	keys.GET("", s.handleListKeys)
	keys.POST("/:name", s.handleImportKey)
	keys.GET("/:name", s.handleExportKey)
	keys.DELETE("/:name", s.handleDeleteKey)
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := s.cfg.GetServeAddr()

	var handler http.Handler = s.engine

	// HTTP/2 cleartext for clients that speak it
	if s.cfg.IsH2CEnabled() {
		h2s := &http2.Server{
			MaxConcurrentStreams: 1000,
			IdleTimeout:          120 * time.Second,
		}
		handler = h2c.NewHandler(s.engine, h2s)
		log.Info().Msg("HTTP/2 cleartext (h2c) enabled")
	}

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  0, // No timeout for streaming
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	log.Info().Str("addr", addr).Msg("Starting HTTP server")

	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("Shutting down server...")

	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// Handler exposes the router for tests
func (s *Server) Handler() http.Handler {
	return s.engine
}
