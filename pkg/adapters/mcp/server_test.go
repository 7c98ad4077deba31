package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aretw0/homeview"
	"github.com/aretw0/homeview/pkg/adapters/memory"
	"github.com/aretw0/homeview/pkg/domain"
	"github.com/aretw0/homeview/pkg/loop"
	"github.com/aretw0/homeview/pkg/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

type harness struct {
	t   *testing.T
	s   *Server
	app *homeview.App
	id  int
}

func newHarness(t *testing.T, opts ...homeview.Option) *harness {
	t.Helper()
	ctx := context.Background()
	app, err := homeview.New(ctx, opts...)
	require.NoError(t, err)
	require.NoError(t, app.Start(ctx))
	t.Cleanup(app.Stop)

	h := &harness{t: t, s: NewServer(app), app: app}
	h.rpc("initialize", map[string]any{
		"protocolVersion": "2024-11-05",
		"clientInfo":      map[string]any{"name": "test", "version": "0"},
		"capabilities":    map[string]any{},
	})
	return h
}

// rpc sends one JSON-RPC request and returns the response as JSON.
func (h *harness) rpc(method string, params any) gjson.Result {
	h.t.Helper()
	h.id++
	req, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      h.id,
		"method":  method,
		"params":  params,
	})
	require.NoError(h.t, err)

	resp := h.s.MCPServer().HandleMessage(context.Background(), req)
	out, err := json.Marshal(resp)
	require.NoError(h.t, err)
	return gjson.ParseBytes(out)
}

func (h *harness) call(tool string, args map[string]any) gjson.Result {
	h.t.Helper()
	resp := h.rpc("tools/call", map[string]any{"name": tool, "arguments": args})
	require.False(h.t, resp.Get("error").Exists(), resp.Raw)
	return resp.Get("result")
}

func TestTools_Listed(t *testing.T) {
	h := newHarness(t)
	resp := h.rpc("tools/list", map[string]any{})

	var names []string
	for _, tool := range resp.Get("result.tools").Array() {
		names = append(names, tool.Get("name").String())
	}
	assert.ElementsMatch(t, []string{"get_state", "dispatch_action", "get_cards", "refresh_cards", "get_home"}, names)
}

func TestDispatchAction(t *testing.T) {
	h := newHarness(t)

	res := h.call("dispatch_action", map[string]any{"type": "UPDATE_NAME", "name": " Ada  Lovelace"})
	assert.False(t, res.Get("isError").Bool(), res.Raw)
	assert.Equal(t, "Ada Lovelace", res.Get("structuredContent.name").String())
	assert.Equal(t, int64(1), res.Get("structuredContent.seq").Int())

	res = h.call("dispatch_action", map[string]any{"type": "OPEN_MENU"})
	assert.Equal(t, "openMenu", res.Get("structuredContent.action").String())

	res = h.call("get_state", map[string]any{})
	assert.Equal(t, "Ada Lovelace", res.Get("structuredContent.name").String())
	assert.Equal(t, "openMenu", res.Get("structuredContent.action").String())
	assert.Equal(t, domain.ActionState{Name: "Ada Lovelace", Action: domain.ActionOpenMenu}, h.app.State())
}

func TestDispatchAction_UnknownType(t *testing.T) {
	h := newHarness(t)

	res := h.call("dispatch_action", map[string]any{"type": "SHUFFLE"})
	assert.True(t, res.Get("isError").Bool())
	assert.Contains(t, res.Get("content.0.text").String(), "unknown message type")
	assert.Equal(t, uint64(0), h.app.Seq())
}

func TestCardsTools(t *testing.T) {
	exec := memory.NewExecutor(domain.CardsPayload{Items: []domain.Card{{Title: "Styled Components"}}})
	h := newHarness(t, homeview.WithExecutor(exec))
	require.Eventually(t, func() bool { return h.app.Cards().Phase == query.Resolved }, time.Second, 5*time.Millisecond)

	res := h.call("get_cards", map[string]any{})
	assert.Equal(t, "resolved", res.Get("structuredContent.phase").String())
	assert.Equal(t, "Styled Components", res.Get("structuredContent.items.0.title").String())

	h.call("refresh_cards", map[string]any{})
	require.Eventually(t, func() bool { return exec.Calls() == 2 }, time.Second, 5*time.Millisecond)
}

func TestRefreshCards_PostsToLoop(t *testing.T) {
	lp := loop.New()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = lp.Run(ctx) }()

	exec := memory.NewExecutor(domain.CardsPayload{Items: []domain.Card{{Title: "Styled Components"}}})
	h := newHarness(t, homeview.WithExecutor(exec), homeview.WithScheduler(lp))
	require.Eventually(t, func() bool { return h.app.Cards().Phase == query.Resolved }, time.Second, 5*time.Millisecond)

	res := h.call("refresh_cards", map[string]any{})
	assert.False(t, res.Get("isError").Bool(), res.Raw)
	require.Eventually(t, func() bool { return exec.Calls() == 2 }, time.Second, 5*time.Millisecond)

	lp.Stop()
	<-lp.Done()
	res = h.call("refresh_cards", map[string]any{})
	assert.True(t, res.Get("isError").Bool())
	assert.Contains(t, res.Get("content.0.text").String(), "shutting down")
	assert.Equal(t, 2, exec.Calls())
}

func TestCardsTools_Failed(t *testing.T) {
	h := newHarness(t, homeview.WithExecutor(memory.NewFailingExecutor(errors.New("NetworkError"))))
	require.Eventually(t, func() bool { return h.app.Cards().Phase == query.Failed }, time.Second, 5*time.Millisecond)

	res := h.call("get_cards", map[string]any{})
	assert.Equal(t, "failed", res.Get("structuredContent.phase").String())
	assert.Contains(t, res.Get("structuredContent.error").String(), "NetworkError")
}

func TestGetHome(t *testing.T) {
	h := newHarness(t)
	h.app.Dispatch(domain.UpdateName("Grace"))

	res := h.call("get_home", map[string]any{})
	assert.Contains(t, res.Get("content.0.text").String(), "Welcome back,\nGrace")
}

func TestStateResource(t *testing.T) {
	h := newHarness(t)
	h.app.Dispatch(domain.UpdateName("Grace"))

	resp := h.rpc("resources/read", map[string]any{"uri": StateURI})
	contents := resp.Get("result.contents.0")
	assert.Equal(t, StateURI, contents.Get("uri").String())
	assert.Equal(t, "application/json", contents.Get("mimeType").String())
	assert.JSONEq(t, `{"name":"Grace","action":"","seq":1}`, contents.Get("text").String())
}
