// Package api exposes Iris's thin HTTP/WebSocket status surface
// (spec.md §7): a liveness check, a point-in-time status snapshot, and a
// streaming feed of affect/capability/narrative events.
package api

import (
	"context"
	"net/http"

	echo "github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"

	"github.com/iris-runtime/iris/pkg/affect"
	"github.com/iris-runtime/iris/pkg/boot"
	"github.com/iris-runtime/iris/pkg/capability"
	"github.com/iris-runtime/iris/pkg/database"
	"github.com/iris-runtime/iris/pkg/events"
	"github.com/iris-runtime/iris/pkg/resource"
	"github.com/iris-runtime/iris/pkg/version"
)

// ModeReader is the narrow view of the scheduler the status endpoints need.
type ModeReader interface {
	CurrentMode() string
}

// Server is Iris's HTTP API server, built on echo v5 (see DESIGN.md's
// "gin vs echo" decision: the teacher's complete, fully-wired API layer is
// the echo one, not the minimal gin stub in cmd/tarsy/main.go).
type Server struct {
	echo       *echo.Echo
	httpServer *http.Server

	dbClient     *database.Client
	affectActor  *affect.Actor
	pressure     *resource.Monitor
	capabilities *capability.Manager
	guardian     *boot.Guardian
	broadcaster  *events.Broadcaster
	scheduler    ModeReader
}

// NewServer wires a Server and registers all routes.
func NewServer(
	dbClient *database.Client,
	affectActor *affect.Actor,
	pressure *resource.Monitor,
	capabilities *capability.Manager,
	guardian *boot.Guardian,
	broadcaster *events.Broadcaster,
	scheduler ModeReader,
) *Server {
	e := echo.New()

	s := &Server{
		echo:         e,
		dbClient:     dbClient,
		affectActor:  affectActor,
		pressure:     pressure,
		capabilities: capabilities,
		guardian:     guardian,
		broadcaster:  broadcaster,
		scheduler:    scheduler,
	}

	e.Use(middleware.BodyLimit(1024 * 1024))
	e.GET("/health", s.healthHandler)
	e.GET("/status", s.statusHandler)
	e.GET("/status/stream", s.statusStreamHandler)

	return s
}

// Start starts the HTTP server on addr and blocks until it stops.
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{Addr: addr, Handler: s.echo}
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
