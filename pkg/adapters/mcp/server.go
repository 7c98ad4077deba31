package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/homeview"
	"github.com/aretw0/homeview/internal/logging"
	"github.com/aretw0/homeview/pkg/domain"
	"github.com/aretw0/homeview/pkg/query"
	"github.com/aretw0/homeview/pkg/runner"
	"github.com/aretw0/homeview/pkg/store"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// StateURI is the resource holding the current flags.
const StateURI = "homeview://state"

// StateResponse is returned by get_state and dispatch_action.
type StateResponse struct {
	Name   string `json:"name" jsonschema_description:"Display name shown in the title bar"`
	Action string `json:"action" jsonschema_description:"Last menu action: openMenu, closeMenu or empty"`
	Seq    uint64 `json:"seq" jsonschema_description:"Number of dispatches reduced so far"`
}

// CardsResponse is returned by get_cards and refresh_cards.
type CardsResponse struct {
	Phase string        `json:"phase" jsonschema_description:"pending, resolved or failed"`
	Items []domain.Card `json:"items,omitempty" jsonschema_description:"The cards, once resolved"`
	Error string        `json:"error,omitempty" jsonschema_description:"Why the query failed"`
}

// DispatchArgs are the arguments of dispatch_action.
type DispatchArgs struct {
	Type string `json:"type"`
	Name string `json:"name,omitempty"`
}

// App is the part of the home screen exposed to agents.
type App interface {
	State() domain.ActionState
	Seq() uint64
	DispatchThen(msg domain.Message, then store.Listener)
	Cards() query.Lifecycle[domain.CardsPayload]
	RequestRefresh(ctx context.Context) bool
	Home() string
}

var _ App = (*homeview.App)(nil)

// Server exposes an App as an MCP server.
type Server struct {
	app       App
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets a custom structured logger for the server.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(app App, opts ...Option) *Server {
	s := &Server{
		app:    app,
		logger: logging.NewNop(),
		mcpServer: server.NewMCPServer("homeview-mcp", strings.TrimSpace(homeview.Version),
			server.WithToolCapabilities(false),
			server.WithResourceCapabilities(false, false),
		),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves over SSE on addr until ctx is cancelled.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("get_state",
		mcp.WithDescription("Get the display name and the menu state of the home screen."),
		mcp.WithOutputSchema[StateResponse](),
	), mcp.NewStructuredToolHandler(s.handleGetState))

	s.mcpServer.AddTool(mcp.NewTool("dispatch_action",
		mcp.WithDescription("Dispatch a message to the home screen store: open or close the menu, or change the display name."),
		mcp.WithString("type", mcp.Required(),
			mcp.Description("Message type"),
			mcp.Enum(string(domain.TagOpenMenu), string(domain.TagCloseMenu), string(domain.TagUpdateName)),
		),
		mcp.WithString("name", mcp.Description("New display name (UPDATE_NAME only)")),
		mcp.WithOutputSchema[StateResponse](),
	), mcp.NewStructuredToolHandler(s.handleDispatch))

	s.mcpServer.AddTool(mcp.NewTool("get_cards",
		mcp.WithDescription("Get the phase and, once resolved, the items of the continue-learning cards query."),
		mcp.WithOutputSchema[CardsResponse](),
	), mcp.NewStructuredToolHandler(s.handleGetCards))

	s.mcpServer.AddTool(mcp.NewTool("refresh_cards",
		mcp.WithDescription("Re-issue the cards query. The result is pending until the content service answers."),
		mcp.WithOutputSchema[CardsResponse](),
	), mcp.NewStructuredToolHandler(s.handleRefreshCards))

	s.mcpServer.AddTool(mcp.NewTool("get_home",
		mcp.WithDescription("Render the home screen as plain text."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText(s.app.Home()), nil
	})
}

func (s *Server) state() StateResponse {
	st := s.app.State()
	return StateResponse{Name: st.Name, Action: string(st.Action), Seq: s.app.Seq()}
}

func (s *Server) cards() CardsResponse {
	l := s.app.Cards()
	resp := CardsResponse{Phase: l.Phase.String()}
	switch l.Phase {
	case query.Resolved:
		resp.Items = l.Data.Items
	case query.Failed:
		resp.Error = l.Err.Error()
	}
	return resp
}

func (s *Server) handleGetState(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (StateResponse, error) {
	return s.state(), nil
}

func (s *Server) handleDispatch(ctx context.Context, request mcp.CallToolRequest, args DispatchArgs) (StateResponse, error) {
	var msg domain.Message
	switch domain.ActionTag(args.Type) {
	case domain.TagOpenMenu:
		msg = domain.OpenMenu()
	case domain.TagCloseMenu:
		msg = domain.CloseMenu()
	case domain.TagUpdateName:
		clean, err := runner.SanitizeName(args.Name)
		if err != nil {
			s.logger.Warn("MCP dispatch: name rejected", "err", err, "size", len(args.Name))
			return StateResponse{}, fmt.Errorf("name rejected: %w", err)
		}
		msg = domain.UpdateName(clean)
	default:
		return StateResponse{}, fmt.Errorf("unknown message type %q", args.Type)
	}

	result := make(chan StateResponse, 1)
	s.app.DispatchThen(msg, func(state domain.ActionState) {
		result <- StateResponse{Name: state.Name, Action: string(state.Action), Seq: s.app.Seq()}
	})

	select {
	case resp := <-result:
		return resp, nil
	case <-ctx.Done():
		return StateResponse{}, ctx.Err()
	}
}

func (s *Server) handleGetCards(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (CardsResponse, error) {
	return s.cards(), nil
}

func (s *Server) handleRefreshCards(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (CardsResponse, error) {
	if !s.app.RequestRefresh(context.WithoutCancel(ctx)) {
		return CardsResponse{}, fmt.Errorf("refresh unavailable: shutting down")
	}
	return s.cards(), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(StateURI, "Home screen state",
		mcp.WithResourceDescription("Display name and menu state"),
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.state())
		if err != nil {
			return nil, fmt.Errorf("failed to encode state: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      StateURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
