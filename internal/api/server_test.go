package api

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dovecote/drover/internal/deploy"
	"github.com/dovecote/drover/internal/notify"
	"github.com/dovecote/drover/pkg/board/boardtest"
)

type testAPI struct {
	e     *echo.Echo
	srv   *boardtest.Server
	cols  deploy.Columns
	token string
}

func setupTestAPI(t *testing.T, token string) *testAPI {
	t.Helper()

	srv := boardtest.NewServer()
	t.Cleanup(srv.Close)
	boardID, listIDs := srv.AddBoard("In Line", "Deploying", "Completed")
	cols := deploy.Columns{Queue: listIDs[0], Running: listIDs[1], Done: listIDs[2]}

	logger := log.New()
	logger.SetOutput(io.Discard)
	coord := deploy.New(srv.Client(), boardID, cols, notify.NewDispatcher(), notify.NewSubjectPublisher(), logger)

	e := echo.New()
	e.Logger.SetOutput(io.Discard)
	Register(e, coord, token)

	return &testAPI{e: e, srv: srv, cols: cols, token: token}
}

// do runs one request through the full Echo routing, auth middleware
// included.
func (a *testAPI) do(method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if a.token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+a.token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func TestPostQueue(t *testing.T) {
	t.Run("enqueues and returns the card", func(t *testing.T) {
		a := setupTestAPI(t, "")

		rec := a.do(http.MethodPost, "/api/queue", `{"user":"alice"}`)
		require.Equal(t, http.StatusCreated, rec.Code)

		var card struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		}
		require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &card))
		assert.NotEmpty(t, card.ID)
		assert.Equal(t, "alice", card.Name)
		assert.Equal(t, []string{"alice"}, a.srv.CardNames(a.cols.Queue))
	})

	t.Run("invalid body", func(t *testing.T) {
		a := setupTestAPI(t, "")
		rec := a.do(http.MethodPost, "/api/queue", `{"user":`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing user", func(t *testing.T) {
		a := setupTestAPI(t, "")
		rec := a.do(http.MethodPost, "/api/queue", `{"user":"  "}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "user is required")
	})

	t.Run("unknown fields rejected", func(t *testing.T) {
		a := setupTestAPI(t, "")
		rec := a.do(http.MethodPost, "/api/queue", `{"user":"alice","admin":true}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestPostStart(t *testing.T) {
	a := setupTestAPI(t, "")
	a.srv.AddCard(a.cols.Queue, "alice")

	rec := a.do(http.MethodPost, "/api/start", `{"user":"alice"}`)
	require.Equal(t, http.StatusNoContent, rec.Code)

	assert.Empty(t, a.srv.CardNames(a.cols.Queue))
	assert.Equal(t, []string{"alice"}, a.srv.CardNames(a.cols.Running))
}

func TestPostDone(t *testing.T) {
	t.Run("retires the running deploy", func(t *testing.T) {
		a := setupTestAPI(t, "")
		a.srv.AddCard(a.cols.Running, "alice")

		rec := a.do(http.MethodPost, "/api/done", `{"user":"alice"}`)
		require.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, []string{"alice"}, a.srv.CardNames(a.cols.Done))
	})

	t.Run("404 when the user is not deploying", func(t *testing.T) {
		a := setupTestAPI(t, "")

		rec := a.do(http.MethodPost, "/api/done", `{"user":"alice"}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "alice has no running deploy")
	})
}

func TestPostFail(t *testing.T) {
	a := setupTestAPI(t, "")
	a.srv.AddCard(a.cols.Running, "alice")
	a.srv.AddCard(a.cols.Queue, "bob")

	rec := a.do(http.MethodPost, "/api/fail", `{"user":"alice"}`)
	require.Equal(t, http.StatusNoContent, rec.Code)

	assert.Equal(t, []string{"alice", "bob"}, a.srv.CardNames(a.cols.Queue), "failed deploy retries ahead of the line")
}

func TestGetStatus(t *testing.T) {
	a := setupTestAPI(t, "")
	a.srv.AddCard(a.cols.Running, "carol")
	a.srv.AddCard(a.cols.Queue, "alice")
	a.srv.AddCard(a.cols.Queue, "bob")

	rec := a.do(http.MethodGet, "/api/status", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp statusResponse
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Queue, 2)
	assert.Equal(t, "alice", resp.Queue[0].Name)
	assert.Equal(t, "bob", resp.Queue[1].Name)
	require.Len(t, resp.Running, 1)
	assert.Equal(t, "carol", resp.Running[0].Name)
	assert.Equal(t, "Deploying: carol | In line: alice, bob", resp.Subject)
}

func TestHealthz(t *testing.T) {
	t.Run("healthy board", func(t *testing.T) {
		a := setupTestAPI(t, "")

		rec := a.do(http.MethodGet, "/healthz", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp HealthResponse
		require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "healthy", resp.Status)
		assert.Equal(t, "connected", resp.Board)
	})

	t.Run("unreachable board", func(t *testing.T) {
		a := setupTestAPI(t, "")
		a.srv.Close()

		rec := a.do(http.MethodGet, "/healthz", "")
		require.Equal(t, http.StatusServiceUnavailable, rec.Code)

		var resp HealthResponse
		require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "unhealthy", resp.Status)
		assert.Equal(t, "disconnected", resp.Board)
		assert.NotEmpty(t, resp.Error)
	})
}

func TestBearerAuth(t *testing.T) {
	t.Run("valid token passes", func(t *testing.T) {
		a := setupTestAPI(t, "secret")
		rec := a.do(http.MethodPost, "/api/queue", `{"user":"alice"}`)
		assert.Equal(t, http.StatusCreated, rec.Code)
	})

	t.Run("missing token rejected", func(t *testing.T) {
		a := setupTestAPI(t, "secret")
		a.token = ""
		rec := a.do(http.MethodPost, "/api/queue", `{"user":"alice"}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Empty(t, a.srv.CardNames(a.cols.Queue))
	})

	t.Run("wrong token rejected", func(t *testing.T) {
		a := setupTestAPI(t, "secret")
		a.token = "wrong"
		rec := a.do(http.MethodPost, "/api/queue", `{"user":"alice"}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("healthz stays open", func(t *testing.T) {
		a := setupTestAPI(t, "secret")
		a.token = ""
		rec := a.do(http.MethodGet, "/healthz", "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
