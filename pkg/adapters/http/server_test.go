package http

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/homeview"
	"github.com/aretw0/homeview/internal/logging"
	"github.com/aretw0/homeview/internal/metrics"
	"github.com/aretw0/homeview/pkg/adapters/memory"
	"github.com/aretw0/homeview/pkg/domain"
	"github.com/aretw0/homeview/pkg/loop"
	"github.com/aretw0/homeview/pkg/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp(t *testing.T, opts ...homeview.Option) *homeview.App {
	t.Helper()
	ctx := context.Background()
	app, err := homeview.New(ctx, opts...)
	require.NoError(t, err)
	require.NoError(t, app.Start(ctx))
	t.Cleanup(app.Stop)
	return app
}

func newTestServer(t *testing.T, app App, opts ...Option) http.Handler {
	t.Helper()
	s := NewServer(app, opts...)
	t.Cleanup(s.Close)
	return s.Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestGetHealth(t *testing.T) {
	h := newTestServer(t, newApp(t))

	rr := do(t, h, "GET", "/health", "")
	assert.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
}

func TestGetInfo(t *testing.T) {
	h := newTestServer(t, newApp(t))

	rr := do(t, h, "GET", "/info", "")
	assert.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "homeview-http", resp["app"])
	assert.Equal(t, homeview.Version, resp["version"])
}

func TestDispatch(t *testing.T) {
	app := newApp(t)
	h := newTestServer(t, app)

	rr := do(t, h, "POST", "/dispatch", `{"type":"UPDATE_NAME","name":"  Ada   Lovelace "}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.JSONEq(t, `{"name":"Ada Lovelace"}`, rr.Body.String())

	rr = do(t, h, "POST", "/dispatch", `{"type":"OPEN_MENU"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"name":"Ada Lovelace","action":"openMenu"}`, rr.Body.String())

	rr = do(t, h, "GET", "/state", "")
	assert.JSONEq(t, `{"name":"Ada Lovelace","action":"openMenu"}`, rr.Body.String())
}

func TestDispatch_Rejects(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"type":`},
		{"missing type", `{"name":"Ada"}`},
		{"unknown type", `{"type":"SHUFFLE"}`},
		{"name not a string", `{"type":"UPDATE_NAME","name":42}`},
		{"name missing", `{"type":"UPDATE_NAME"}`},
		{"name too large", `{"type":"UPDATE_NAME","name":"` + strings.Repeat("a", 5000) + `"}`},
	}

	app := newApp(t)
	h := newTestServer(t, app)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, h, "POST", "/dispatch", tt.body)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
		})
	}
	assert.Equal(t, domain.ActionState{}, app.State())
}

func TestCards(t *testing.T) {
	exec := memory.NewExecutor(domain.CardsPayload{Items: []domain.Card{{Title: "Styled Components"}}})
	app := newApp(t, homeview.WithExecutor(exec))
	h := newTestServer(t, app)

	require.Eventually(t, func() bool { return app.Cards().Phase == query.Resolved }, time.Second, 5*time.Millisecond)

	rr := do(t, h, "GET", "/cards", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	var resp CardsResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "resolved", resp.Phase)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "Styled Components", resp.Items[0].Title)

	rr = do(t, h, "POST", "/cards/refresh", "")
	assert.Equal(t, http.StatusAccepted, rr.Code)
	require.Eventually(t, func() bool { return exec.Calls() == 2 }, time.Second, 5*time.Millisecond)
}

func TestRefreshCards_RunsOnLoop(t *testing.T) {
	lp := loop.New()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = lp.Run(ctx) }()

	exec := memory.NewExecutor(
		domain.CardsPayload{Items: []domain.Card{{Title: "Styled Components"}}},
		memory.WithDelay(10*time.Millisecond),
	)
	app := newApp(t, homeview.WithExecutor(exec), homeview.WithScheduler(lp))
	h := newTestServer(t, app)

	// Re-issue while earlier activations are still settling on the loop.
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, http.StatusAccepted, do(t, h, "POST", "/cards/refresh", "").Code)
		}()
	}
	wg.Wait()

	require.Eventually(t, func() bool {
		return exec.Calls() == 6 && app.Cards().Phase == query.Resolved
	}, time.Second, 5*time.Millisecond)
	assert.Contains(t, app.Home(), "Styled Components", "view follows the lifecycle")

	lp.Stop()
	<-lp.Done()
	assert.Equal(t, http.StatusServiceUnavailable, do(t, h, "POST", "/cards/refresh", "").Code)
}

func TestDispatch_AnswersWithOwnSnapshot(t *testing.T) {
	app := newApp(t)
	h := newTestServer(t, app)

	// Hold the store mid-round so the request's message is queued behind it
	// and reduced by the other goroutine.
	entered := make(chan struct{})
	gate := make(chan struct{})
	sub := app.Subscribe(func(state domain.ActionState) {
		if state.Action == domain.ActionOpenMenu && state.Name == "" {
			close(entered)
			<-gate
		}
	})
	t.Cleanup(sub.Unsubscribe)

	go app.Dispatch(domain.OpenMenu())
	<-entered

	done := make(chan *httptest.ResponseRecorder, 1)
	go func() { done <- do(t, h, "POST", "/dispatch", `{"type":"UPDATE_NAME","name":"Ada"}`) }()
	time.Sleep(20 * time.Millisecond)
	close(gate)

	select {
	case rr := <-done:
		require.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"name":"Ada","action":"openMenu"}`, rr.Body.String())
	case <-time.After(time.Second):
		t.Fatal("dispatch did not answer")
	}
}

func TestCards_Failed(t *testing.T) {
	app := newApp(t, homeview.WithExecutor(memory.NewFailingExecutor(errors.New("NetworkError"))))
	h := newTestServer(t, app)

	require.Eventually(t, func() bool { return app.Cards().Phase == query.Failed }, time.Second, 5*time.Millisecond)

	var resp CardsResponse
	require.NoError(t, json.Unmarshal(do(t, h, "GET", "/cards", "").Body.Bytes(), &resp))
	assert.Equal(t, "failed", resp.Phase)
	assert.Contains(t, resp.Error, "NetworkError")
	assert.Empty(t, resp.Items)
}

func TestGetHome(t *testing.T) {
	app := newApp(t)
	h := newTestServer(t, app)
	app.Dispatch(domain.UpdateName("Grace"))

	rr := do(t, h, "GET", "/home", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/plain; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Body.String(), "Welcome back,\nGrace")
}

func TestMetrics(t *testing.T) {
	m := metrics.New(false)
	app := newApp(t, homeview.WithStoreHooks(m.StoreHooks()))

	h := newTestServer(t, app, WithMetrics(m.Handler()))
	app.Dispatch(domain.OpenMenu())

	rr := do(t, h, "GET", "/metrics", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `homeview_dispatch_total{tag="OPEN_MENU"} 1`)

	plain := newTestServer(t, app)
	assert.Equal(t, http.StatusNotFound, do(t, plain, "GET", "/metrics", "").Code)
}

func TestCORSPreflight(t *testing.T) {
	h := newTestServer(t, newApp(t))
	rr := do(t, h, "OPTIONS", "/dispatch", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestSubscribeEvents(t *testing.T) {
	app := newApp(t)
	app.Dispatch(domain.UpdateName("Grace"))

	srv := httptest.NewServer(newTestServer(t, app))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, "GET", srv.URL+"/events?watch=name", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := make(chan string, 16)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			if data, ok := strings.CutPrefix(scanner.Text(), "data: "); ok {
				lines <- data
			}
		}
	}()
	next := func() string {
		t.Helper()
		select {
		case l := <-lines:
			return l
		case <-time.After(2 * time.Second):
			t.Fatal("no event received")
			return ""
		}
	}

	assert.Equal(t, "connected", next())
	assert.JSONEq(t, `{"seq":1,"name":"Grace","action":""}`, next(), "first event is the whole snapshot")

	app.Dispatch(domain.OpenMenu()) // filtered out by ?watch=name
	app.Dispatch(domain.UpdateName("Ada"))
	assert.JSONEq(t, `{"seq":3,"name":"Ada"}`, next())
}

func TestStreamManager_Close(t *testing.T) {
	app := newApp(t)
	sm := NewStreamManager(app, logging.NewNop())
	ch, cancel := sm.Subscribe()
	defer cancel()

	sm.Close()
	_, ok := <-ch
	assert.False(t, ok)

	late, _ := sm.Subscribe()
	_, ok = <-late
	assert.False(t, ok)
}
