package api

import (
	"context"
	"net/http"
	"time"

	echo "github.com/labstack/echo/v5"

	"github.com/coder/websocket"

	"github.com/iris-runtime/iris/pkg/database"
	"github.com/iris-runtime/iris/pkg/version"
)

// healthHandler handles GET /health. Only Iris's own database connection is
// checked; external collaborators (LLM providers, capability child
// processes) are excluded so an external outage never looks like Iris
// itself is unhealthy (mirrors the teacher's healthHandler rationale).
func (s *Server) healthHandler(c *echo.Context) error {
	reqCtx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	dbHealth, err := database.Health(reqCtx, s.dbClient.DB())
	status := "healthy"
	httpStatus := http.StatusOK
	if err != nil {
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	return c.JSON(httpStatus, &HealthResponse{
		Status:   status,
		Version:  version.Full(),
		Database: dbHealth,
		SafeMode: s.guardian.InSafeMode(),
	})
}

// statusHandler handles GET /status: a point-in-time snapshot of mode,
// affect, resource pressure, and the capability roster (spec.md §7).
func (s *Server) statusHandler(c *echo.Context) error {
	energy := s.affectActor.Current()
	pressure := s.pressure.Current()

	records := s.capabilities.All()
	capabilities := make([]CapabilitySnapshot, 0, len(records))
	for _, r := range records {
		capabilities = append(capabilities, CapabilitySnapshot{
			Name:            r.Name,
			State:           string(r.State),
			QuarantineCount: r.QuarantineCount,
		})
	}

	return c.JSON(http.StatusOK, &StatusResponse{
		Mode:     s.scheduler.CurrentMode(),
		SafeMode: s.guardian.InSafeMode(),
		Affect: AffectSnapshot{
			Energy:  energy.Energy,
			Valence: energy.Valence,
			Arousal: energy.Arousal,
		},
		Pressure: PressureSnapshot{
			RAMPercent:     pressure.RAMPercent,
			StoragePercent: pressure.StoragePercent,
			Level:          string(pressure.Level),
		},
		Capabilities: capabilities,
	})
}

// statusStreamHandler upgrades to a WebSocket and delegates to the
// Broadcaster (spec.md §7, "/status/stream").
func (s *Server) statusStreamHandler(c *echo.Context) error {
	if s.broadcaster == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "status stream not available")
	}

	conn, err := websocket.Accept(c.Response(), c.Request(), &websocket.AcceptOptions{
		// Iris serves a single local operator; origin checking is left to
		// whatever reverse proxy a deployment puts in front of it.
		InsecureSkipVerify: true,
	})
	if err != nil {
		return err
	}

	s.broadcaster.HandleConnection(c.Request().Context(), conn)
	return nil
}
