package httpserver

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/imparo/internal/challenge"
	"github.com/robalobadob/imparo/internal/game"
	"github.com/robalobadob/imparo/internal/shell"
	"github.com/robalobadob/imparo/internal/speech"
	"github.com/robalobadob/imparo/internal/store"
)

type harness struct {
	ts     *httptest.Server
	client *http.Client
	store  store.Store
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	p := challenge.NewProvider(nil)
	st := store.NewMemoryStore()
	srv := New(st, Options{
		SessionSecret: "test-secret",
		NewShell: func() *shell.Shell {
			return shell.New(shell.Options{Words: p, Math: p, ResetDelay: time.Second}, speech.New(true, "it-IT"))
		},
	})
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &harness{ts: ts, client: &http.Client{Jar: jar}, store: st}
}

func (h *harness) do(t *testing.T, method, path string, body any) (int, []byte) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, h.ts.URL+path, rd)
	require.NoError(t, err)
	resp, err := h.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out
}

func (h *harness) snapshot(t *testing.T, method, path string, body any) shell.Snapshot {
	t.Helper()
	code, raw := h.do(t, method, path, body)
	require.Equal(t, http.StatusOK, code, string(raw))
	var snap shell.Snapshot
	require.NoError(t, json.Unmarshal(raw, &snap))
	return snap
}

func (h *harness) nav(t *testing.T, screen shell.Screen) shell.Snapshot {
	t.Helper()
	return h.snapshot(t, http.MethodPost, "/api/nav", map[string]any{"action": "select", "screen": screen})
}

func TestHealthAndNotFound(t *testing.T) {
	h := newHarness(t)
	code, body := h.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"ok":true}`, string(body))

	code, body = h.do(t, http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Contains(t, string(body), "not_found")
}

func TestIndexRendersPage(t *testing.T) {
	h := newHarness(t)
	code, body := h.do(t, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(body), "Imparo Giocando")
	assert.Contains(t, string(body), "/static/app.js")

	code, _ = h.do(t, http.MethodGet, "/static/app.js", nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestClientCookieKeepsShell(t *testing.T) {
	h := newHarness(t)

	req, err := http.NewRequest(http.MethodGet, h.ts.URL+"/api/state", nil)
	require.NoError(t, err)
	resp, err := h.client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == clientCookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)

	h.nav(t, shell.Drawing)
	snap := h.snapshot(t, http.MethodGet, "/api/state", nil)
	assert.Equal(t, shell.Drawing, snap.Screen)
	assert.Equal(t, 1, h.store.Len())

	// A forged token gets a fresh identity, hence a fresh shell.
	req, err = http.NewRequest(http.MethodGet, h.ts.URL+"/api/state", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer not-a-token")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var other shell.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&other))
	assert.Equal(t, shell.Home, other.Screen)
	assert.Equal(t, 2, h.store.Len())
}

func TestReloadStartsAtHome(t *testing.T) {
	h := newHarness(t)
	h.nav(t, shell.Math)
	h.snapshot(t, http.MethodGet, "/api/state?wait=1", nil)
	snap := h.snapshot(t, http.MethodPost, "/api/math/answer", map[string]int{"option": 4})
	require.Equal(t, game.FeedbackIncorrect, snap.Math.Feedback)

	code, _ := h.do(t, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, code)

	snap = h.snapshot(t, http.MethodGet, "/api/state", nil)
	assert.Equal(t, shell.Home, snap.Screen)
	assert.Nil(t, snap.Math)
	assert.Len(t, snap.Cards, 4)
	assert.Equal(t, 1, h.store.Len())

	code, _ = h.do(t, http.MethodPost, "/api/math/answer", map[string]int{"option": 3})
	assert.Equal(t, http.StatusConflict, code)
}

func TestNavigationErrors(t *testing.T) {
	h := newHarness(t)

	code, body := h.do(t, http.MethodPost, "/api/nav", map[string]any{"action": "select", "screen": "measurement"})
	assert.Equal(t, http.StatusConflict, code)
	assert.Contains(t, string(body), "not available")

	code, _ = h.do(t, http.MethodPost, "/api/word/new", nil)
	assert.Equal(t, http.StatusConflict, code)

	code, _ = h.do(t, http.MethodPost, "/api/nav", "{")
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = h.do(t, http.MethodPost, "/api/nav", map[string]any{
		"action": "select", "screen": "drawing",
		"viewport": map[string]float64{"width": 200000, "height": 200000, "dpr": 4},
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, shell.Home, h.snapshot(t, http.MethodGet, "/api/state", nil).Screen)

	var cards []shell.Card
	_, raw := h.do(t, http.MethodGet, "/api/cards", nil)
	require.NoError(t, json.Unmarshal(raw, &cards))
	assert.Len(t, cards, 4)
}

func TestWordGameOverHTTP(t *testing.T) {
	h := newHarness(t)
	h.nav(t, shell.Word)

	snap := h.snapshot(t, http.MethodGet, "/api/state?wait=1", nil)
	require.NotNil(t, snap.Word)
	require.Equal(t, game.StateReady, snap.Word.State)
	require.Equal(t, "errore", snap.Word.Challenge.Word)

	for _, r := range "errore" {
		idx := -1
		for i, l := range snap.Word.Pool {
			if l == string(r) {
				idx = i
				break
			}
		}
		require.GreaterOrEqual(t, idx, 0)
		snap = h.snapshot(t, http.MethodPost, "/api/word/tile", map[string]int{"index": idx})
	}
	assert.Equal(t, game.FeedbackCorrect, snap.Word.Feedback)
	assert.True(t, snap.Word.CanAdvance)

	code, _ := h.do(t, http.MethodPost, "/api/word/tile", map[string]int{"index": 99})
	assert.Equal(t, http.StatusBadRequest, code)

	h.snapshot(t, http.MethodPost, "/api/word/new", nil)
	snap = h.snapshot(t, http.MethodGet, "/api/state?wait=1", nil)
	assert.Equal(t, game.FeedbackNone, snap.Word.Feedback)
	assert.Empty(t, snap.Word.Progress)

	snap = h.snapshot(t, http.MethodPost, "/api/word/tile", map[string]string{"letter": "e"})
	assert.Equal(t, []string{"e"}, snap.Word.Progress)
	snap = h.snapshot(t, http.MethodPost, "/api/word/backspace", nil)
	assert.Empty(t, snap.Word.Progress)
}

func TestMathGameOverHTTP(t *testing.T) {
	h := newHarness(t)
	h.nav(t, shell.Math)
	snap := h.snapshot(t, http.MethodGet, "/api/state?wait=1", nil)
	require.NotNil(t, snap.Math)
	require.Equal(t, 3, snap.Math.Challenge.Answer)

	code, _ := h.do(t, http.MethodPost, "/api/math/answer", map[string]int{"option": 9})
	assert.Equal(t, http.StatusBadRequest, code)

	snap = h.snapshot(t, http.MethodPost, "/api/math/answer", map[string]int{"option": 4})
	assert.Equal(t, game.FeedbackIncorrect, snap.Math.Feedback)
	assert.False(t, snap.Math.CanAdvance)

	h.snapshot(t, http.MethodPost, "/api/math/new", nil)
	h.snapshot(t, http.MethodGet, "/api/state?wait=1", nil)
	snap = h.snapshot(t, http.MethodPost, "/api/math/answer", map[string]int{"option": 3})
	assert.Equal(t, game.FeedbackCorrect, snap.Math.Feedback)
}

func TestDrawingOverHTTP(t *testing.T) {
	h := newHarness(t)
	snap := h.snapshot(t, http.MethodPost, "/api/nav", map[string]any{
		"action": "select", "screen": "drawing",
		"viewport": map[string]float64{"width": 100, "height": 80, "dpr": 1},
	})
	require.NotNil(t, snap.Drawing)
	assert.Len(t, snap.Drawing.Palette, 8)

	rect := map[string]float64{"left": 10, "top": 10, "width": 100, "height": 80}
	for _, ev := range []map[string]any{
		{"type": "down", "source": "mouse", "clientX": 30, "clientY": 30, "rect": rect},
		{"type": "move", "source": "mouse", "clientX": 80, "clientY": 30, "rect": rect},
		{"type": "up", "source": "mouse", "rect": rect},
	} {
		code, _ := h.do(t, http.MethodPost, "/api/draw/pointer", ev)
		require.Equal(t, http.StatusNoContent, code)
	}

	code, raw := h.do(t, http.MethodGet, "/api/draw/canvas.png", nil)
	require.Equal(t, http.StatusOK, code)
	img, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, 100, img.Bounds().Dx())
	_, _, _, a := img.At(45, 20).RGBA()
	assert.NotZero(t, a)

	code, _ = h.do(t, http.MethodPost, "/api/draw/color", map[string]string{"color": "blue"})
	assert.Equal(t, http.StatusBadRequest, code)
	snap = h.snapshot(t, http.MethodPost, "/api/draw/color", map[string]string{"color": "#3B82F6"})
	assert.Equal(t, "#3B82F6", snap.Drawing.Color)

	h.snapshot(t, http.MethodPost, "/api/draw/clear", nil)
	_, raw = h.do(t, http.MethodGet, "/api/draw/canvas.png", nil)
	img, err = png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	_, _, _, a = img.At(45, 20).RGBA()
	assert.Zero(t, a)
}

func TestSpeechEventsStreamUtterances(t *testing.T) {
	h := newHarness(t)
	h.snapshot(t, http.MethodGet, "/api/state", nil)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.ts.URL+"/api/speech/events", nil)
	require.NoError(t, err)
	resp, err := h.client.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := make(chan string, 16)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(resp.Body)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()

	waitFor := func(pred func(string) bool) string {
		t.Helper()
		timeout := time.After(3 * time.Second)
		for {
			select {
			case l, ok := <-lines:
				require.True(t, ok, "stream closed")
				if pred(l) {
					return l
				}
			case <-timeout:
				t.Fatal("event not received")
			}
		}
	}

	waitFor(func(l string) bool { return l == "event: ready" })
	h.nav(t, shell.Math)

	waitFor(func(l string) bool { return l == "event: utterance" })
	data := waitFor(func(l string) bool { return strings.HasPrefix(l, "data: ") })
	var u speech.Utterance
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(data, "data: ")), &u))
	assert.Equal(t, "2 più 1 fa?", u.Text)
	assert.Equal(t, "it-IT", u.Locale)
}
