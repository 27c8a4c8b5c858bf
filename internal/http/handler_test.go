package http

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"chessmatch/internal/board"
	"chessmatch/internal/core"
	"chessmatch/internal/feed"
	"chessmatch/internal/match"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stopper struct {
	mu      sync.Mutex
	running bool
	reasons []string
}

func (s *stopper) Stop(reason string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return false
	}
	s.running = false
	s.reasons = append(s.reasons, reason)
	return true
}

func setup(t *testing.T) (*fiber.App, *feed.Feed, *stopper) {
	t.Helper()
	f := feed.New(2 * time.Second)
	st := &stopper{running: true}
	return NewFiberApp(f, st.Stop), f, st
}

func snapshot(moves int) match.Snapshot {
	return match.Snapshot{
		ID:        "m1",
		Label:     "quiet-heron",
		FEN:       board.StartingFEN,
		Turn:      core.ColorWhite,
		MoveCount: moves,
		Running:   true,
		Status:    "white to move",
		Outcome:   "ongoing",
		Score:     "*",
		White:     core.Player{Name: "stockfish", Color: core.ColorWhite, Protocol: core.ProtocolUCI},
		Black:     core.Player{Name: "crafty", Color: core.ColorBlack, Protocol: core.ProtocolCECP},
	}
}

func do(t *testing.T, app *fiber.App, method, path, contentType, body string) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func decodeError(t *testing.T, data []byte) ErrorResponse {
	t.Helper()
	var e ErrorResponse
	require.NoError(t, json.Unmarshal(data, &e))
	return e
}

func TestHealth(t *testing.T) {
	app, _, _ := setup(t)
	status, body := do(t, app, "GET", "/health", "", "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, string(body), "healthy")
}

func TestGetMatchBeforeStart(t *testing.T) {
	app, _, _ := setup(t)
	status, body := do(t, app, "GET", "/api/v1/match", "", "")
	assert.Equal(t, fiber.StatusServiceUnavailable, status)
	assert.Equal(t, core.ErrCodeMatchNotStarted, decodeError(t, body).Code)
}

func TestGetMatchReturnsSnapshot(t *testing.T) {
	app, f, _ := setup(t)
	f.Update(snapshot(3))

	status, body := do(t, app, "GET", "/api/v1/match", "", "")
	require.Equal(t, fiber.StatusOK, status)

	var got map[string]any
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "quiet-heron", got["label"])
	assert.Equal(t, float64(3), got["moveCount"])
	assert.Equal(t, "white", got["turn"])

	white := got["white"].(map[string]any)
	assert.Equal(t, "uci", white["protocol"])
	assert.Equal(t, "white", white["color"])
}

func TestLongPollWakesOnMove(t *testing.T) {
	app, f, _ := setup(t)
	f.Update(snapshot(3))

	go func() {
		assert.Eventually(t, func() bool { return f.Waiters() == 1 }, time.Second, 5*time.Millisecond)
		f.Update(snapshot(4))
	}()

	status, body := do(t, app, "GET", "/api/v1/match?wait=true&moveCount=3", "", "")
	require.Equal(t, fiber.StatusOK, status)

	var got match.Snapshot
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, 4, got.MoveCount)
}

func TestLongPollReturnsAtOnceWhenBehind(t *testing.T) {
	app, f, _ := setup(t)
	f.Update(snapshot(8))

	start := time.Now()
	status, _ := do(t, app, "GET", "/api/v1/match?wait=true&moveCount=2", "", "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Less(t, time.Since(start), time.Second)
}

func TestLongPollRejectsBadMoveCount(t *testing.T) {
	app, f, _ := setup(t)
	f.Update(snapshot(1))

	status, body := do(t, app, "GET", "/api/v1/match?wait=true&moveCount=abc", "", "")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, core.ErrCodeInvalidRequest, decodeError(t, body).Code)
}

func TestGetBoard(t *testing.T) {
	app, f, _ := setup(t)
	f.Update(snapshot(0))

	status, body := do(t, app, "GET", "/api/v1/match/board", "", "")
	require.Equal(t, fiber.StatusOK, status)

	var got BoardResponse
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, board.StartingFEN, got.FEN)
	assert.Contains(t, got.Board, "r n b q k b n r")
}

func TestStopMatch(t *testing.T) {
	app, f, st := setup(t)
	f.Update(snapshot(5))

	status, body := do(t, app, "POST", "/api/v1/match/stop", "application/json", `{"reason":"lunch"}`)
	require.Equal(t, fiber.StatusAccepted, status)

	var got StopResponse
	require.NoError(t, json.Unmarshal(body, &got))
	assert.True(t, got.Stopping)
	assert.Equal(t, []string{"lunch"}, st.reasons)

	status, body = do(t, app, "POST", "/api/v1/match/stop", "", "")
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, core.ErrCodeMatchNotRunning, decodeError(t, body).Code)
}

func TestStopMatchDefaultReason(t *testing.T) {
	app, _, st := setup(t)

	status, _ := do(t, app, "POST", "/api/v1/match/stop", "", "")
	require.Equal(t, fiber.StatusAccepted, status)
	assert.Equal(t, []string{"stopped over http"}, st.reasons)
}

func TestStopMatchValidation(t *testing.T) {
	app, _, st := setup(t)

	tests := []struct {
		name        string
		contentType string
		body        string
		status      int
		code        string
	}{
		{"wrong content type", "text/plain", "stop", fiber.StatusUnsupportedMediaType, core.ErrCodeInvalidContent},
		{"malformed json", "application/json", `{"reason":`, fiber.StatusBadRequest, core.ErrCodeInvalidRequest},
		{"reason too long", "application/json", `{"reason":"` + strings.Repeat("x", 201) + `"}`, fiber.StatusBadRequest, core.ErrCodeInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := do(t, app, "POST", "/api/v1/match/stop", tt.contentType, tt.body)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, decodeError(t, body).Code)
		})
	}
	assert.Empty(t, st.reasons)
}

func TestUnknownRoute(t *testing.T) {
	app, _, _ := setup(t)
	status, body := do(t, app, "GET", "/api/v1/nope", "", "")
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, core.ErrCodeNotFound, decodeError(t, body).Code)
}
