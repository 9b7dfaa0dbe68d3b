package api

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dovecote/drover/internal/deploy"
)

// HealthResponse is the JSON response structure for health checks.
type HealthResponse struct {
	Status string `json:"status"`
	Board  string `json:"board,omitempty"`
	Error  string `json:"error,omitempty"`
}

// healthz handles GET /healthz requests.
// Returns 200 OK if the board answers within 2 seconds, 503 Service
// Unavailable otherwise.
func healthz(coord *deploy.Coordinator) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()

		if err := coord.Ping(ctx); err != nil {
			return c.JSON(http.StatusServiceUnavailable, HealthResponse{
				Status: "unhealthy",
				Board:  "disconnected",
				Error:  err.Error(),
			})
		}
		return c.JSON(http.StatusOK, HealthResponse{
			Status: "healthy",
			Board:  "connected",
		})
	}
}
