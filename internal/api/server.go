// Package api exposes the comparison pipeline over HTTP. A client uploads
// clips and alignment values in one multipart request, the service renders
// synchronously, and job directories stay on disk until deleted.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"sidestack/internal/compare"
	"sidestack/internal/config"
	"sidestack/internal/jobs"
	"sidestack/internal/render"
)

// Resolver validates a request, probes its inputs, and plans the render.
type Resolver interface {
	Resolve(ctx context.Context, req compare.Request) (compare.Plan, error)
}

// Renderer executes a planned ffmpeg invocation.
type Renderer interface {
	Run(ctx context.Context, job render.Job) (render.Result, error)
}

type Server struct {
	httpServer *http.Server
	log        zerolog.Logger
}

type ServerConfig struct {
	Listen    string
	Version   string
	StartTime time.Time
	Resolver  Resolver
	Renderer  Renderer
	Store     *jobs.Store
	Render    config.RenderConfig
	Log       zerolog.Logger
}

// NewServer builds the HTTP server. Read and write timeouts stay unset
// because uploads stream in and renders run for as long as ffmpeg needs.
func NewServer(cfg ServerConfig) *Server {
	router := NewRouter(cfg)

	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.Listen,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		log: cfg.Log,
	}
}

func (s *Server) Start() error {
	s.log.Info().Str("addr", s.httpServer.Addr).Msg("starting HTTP server")
	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) Addr() string {
	return s.httpServer.Addr
}
