// Package api exposes the coordinator's command surface over HTTP: the four
// queue commands, a status view, and a health check. Chat bots and CI hooks
// drive drover through these routes instead of touching the board directly.
package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"

	"github.com/dovecote/drover/internal/deploy"
	"github.com/dovecote/drover/pkg/board"
)

// commandMaxSize caps command request bodies. A queue command carries one
// user name, so anything larger is garbage.
const commandMaxSize = 4 << 10

// Register wires up all API routes on the provided Echo instance. An empty
// token leaves the command routes unauthenticated.
func Register(e *echo.Echo, coord *deploy.Coordinator, token string) {
	g := e.Group("/api", bearerAuth(token))
	g.POST("/queue", postQueue(coord))
	g.POST("/start", postStart(coord))
	g.POST("/done", postDone(coord))
	g.POST("/fail", postFail(coord))
	g.GET("/status", getStatus(coord))

	e.GET("/healthz", healthz(coord))
}

type commandRequest struct {
	User string `json:"user"`
}

type statusResponse struct {
	Queue   []board.Card `json:"queue"`
	Running []board.Card `json:"running"`
	Subject string       `json:"subject"`
}

func postQueue(coord *deploy.Coordinator) echo.HandlerFunc {
	return func(c echo.Context) error {
		req, err := decodeCommand(c)
		if err != nil {
			return c.String(http.StatusBadRequest, err.Error())
		}
		card, err := coord.Enqueue(c.Request().Context(), req.User)
		if err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, "failed to enqueue")
		}
		return c.JSON(http.StatusCreated, card)
	}
}

func postStart(coord *deploy.Coordinator) echo.HandlerFunc {
	return func(c echo.Context) error {
		req, err := decodeCommand(c)
		if err != nil {
			return c.String(http.StatusBadRequest, err.Error())
		}
		if err := coord.StartDeploy(c.Request().Context(), req.User); err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, "failed to start deploy")
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func postDone(coord *deploy.Coordinator) echo.HandlerFunc {
	return finishHandler(coord.MarkSuccess)
}

func postFail(coord *deploy.Coordinator) echo.HandlerFunc {
	return finishHandler(coord.MarkFailure)
}

// finishHandler adapts MarkSuccess and MarkFailure, which report "user has no
// running deploy" as a clean false. Callers see that as a 404 so a typo'd
// user name is distinguishable from success.
func finishHandler(finish func(ctx context.Context, user string) (bool, error)) echo.HandlerFunc {
	return func(c echo.Context) error {
		req, err := decodeCommand(c)
		if err != nil {
			return c.String(http.StatusBadRequest, err.Error())
		}
		moved, err := finish(c.Request().Context(), req.User)
		if err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, "failed to record deploy outcome")
		}
		if !moved {
			return c.String(http.StatusNotFound, fmt.Sprintf("%s has no running deploy", req.User))
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func getStatus(coord *deploy.Coordinator) echo.HandlerFunc {
	return func(c echo.Context) error {
		snap, err := coord.Snapshot(c.Request().Context())
		if err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, "failed to read the board")
		}
		return c.JSON(http.StatusOK, statusResponse{
			Queue:   snap.Queue,
			Running: snap.Running,
			Subject: deploy.Subject(snap),
		})
	}
}

func decodeCommand(c echo.Context) (commandRequest, error) {
	var req commandRequest
	dec := sonic.ConfigStd.NewDecoder(io.LimitReader(c.Request().Body, commandMaxSize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return req, fmt.Errorf("invalid body")
	}
	req.User = strings.TrimSpace(req.User)
	if req.User == "" {
		return req, fmt.Errorf("user is required")
	}
	return req, nil
}
