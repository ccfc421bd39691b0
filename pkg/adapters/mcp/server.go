// Package mcp exposes a switchboard engine as a Model Context Protocol server.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"golang.org/x/sync/errgroup"

	"github.com/aretw0/switchboard"
	"github.com/aretw0/switchboard/internal/presentation/graph"
	"github.com/aretw0/switchboard/pkg/domain"
	flow "github.com/aretw0/switchboard/pkg/graph"
)

const (
	GraphURI        = "switchboard://graph"
	GraphMermaidURI = "switchboard://graph.mmd"
)

// SessionResult is the structured output of the session tools.
type SessionResult struct {
	SessionID string           `json:"session_id" jsonschema_description:"The session identifier"`
	LastNode  string           `json:"last_node" jsonschema_description:"The node execution resumes from"`
	Done      bool             `json:"done" jsonschema_description:"Whether the session reached the end of the flow"`
	Turn      int              `json:"turn" jsonschema_description:"Number of passes through the flow"`
	Messages  []domain.Message `json:"messages" jsonschema_description:"The full conversation"`
	Replies   []domain.Message `json:"replies,omitempty" jsonschema_description:"Assistant messages produced by this call"`
}

// Engine is the part of the switchboard engine the MCP server drives.
type Engine interface {
	Execute(ctx context.Context, sessionID string, input ...domain.Message) (*domain.Checkpoint, error)
	Checkpoint(ctx context.Context, sessionID string) (*domain.Checkpoint, error)
	Clear(ctx context.Context, sessionID string) error
	Graph() *flow.Graph
}

var _ Engine = (*switchboard.Engine)(nil)

// Server wraps the engine and exposes it as an MCP Server.
type Server struct {
	engine    Engine
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance.
func NewServer(engine Engine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		engine: engine,
		logger: logger,
		mcpServer: server.NewMCPServer("switchboard-mcp", strings.TrimSpace(switchboard.Version),
			server.WithToolCapabilities(false),
			server.WithResourceCapabilities(false, false),
		),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))
	httpServer := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	runTool := mcp.NewTool("run_session",
		mcp.WithDescription("Run a conversation session. A finished session starts a new turn when input is given."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session identifier")),
		mcp.WithString("input", mcp.Description("User message (optional)")),
		mcp.WithOutputSchema[SessionResult](),
	)
	s.mcpServer.AddTool(runTool, mcp.NewStructuredToolHandler(s.handleRunSession))

	getTool := mcp.NewTool("get_session",
		mcp.WithDescription("Get the stored checkpoint of a session."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session identifier")),
		mcp.WithOutputSchema[SessionResult](),
	)
	s.mcpServer.AddTool(getTool, mcp.NewStructuredToolHandler(s.handleGetSession))

	s.mcpServer.AddTool(mcp.NewTool("clear_session",
		mcp.WithDescription("Remove a session."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session identifier")),
	), s.handleClearSession)

	s.mcpServer.AddTool(mcp.NewTool("get_graph",
		mcp.WithDescription("Get the conversation graph for introspection."),
		mcp.WithString("format", mcp.Description("json (default) or mermaid")),
	), s.handleGetGraph)
}

func (s *Server) handleRunSession(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (SessionResult, error) {
	sessionID, _ := args["session_id"].(string)
	raw, _ := args["input"].(string)

	var input []domain.Message
	if raw != "" {
		clean, err := domain.SanitizeInput(raw)
		if err != nil {
			s.logger.Warn("MCP run_session: Input rejected", "err", err, "size", len(raw))
			return SessionResult{}, fmt.Errorf("input rejected: %w", err)
		}
		input = append(input, domain.UserMessage(clean))
	}

	before, err := s.engine.Checkpoint(ctx, sessionID)
	if err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
		return SessionResult{}, err
	}

	cp, err := s.engine.Execute(ctx, sessionID, input...)
	if err != nil {
		s.logger.Error("MCP run_session failed", "session_id", sessionID, "err", err)
		return SessionResult{}, fmt.Errorf("run failed: %w", err)
	}

	res := newSessionResult(cp)
	res.Replies = domain.Diff(before, cp).AssistantReplies()
	return res, nil
}

func (s *Server) handleGetSession(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (SessionResult, error) {
	sessionID, _ := args["session_id"].(string)
	cp, err := s.engine.Checkpoint(ctx, sessionID)
	if err != nil {
		return SessionResult{}, fmt.Errorf("get session failed: %w", err)
	}
	return newSessionResult(cp), nil
}

func (s *Server) handleClearSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.engine.Clear(ctx, sessionID); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("clear failed: %v", err)), nil
	}
	return mcp.NewToolResultText("cleared " + sessionID), nil
}

func (s *Server) handleGetGraph(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if request.GetString("format", "json") == "mermaid" {
		return mcp.NewToolResultText(graph.GenerateMermaid(s.engine.Graph(), nil)), nil
	}
	jsonBytes, err := json.Marshal(s.engine.Graph().Describe())
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("describe failed: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(GraphURI, "Conversation Graph",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.engine.Graph().Describe())
		if err != nil {
			return nil, fmt.Errorf("failed to describe graph: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{URI: GraphURI, MIMEType: "application/json", Text: string(jsonBytes)},
		}, nil
	})

	s.mcpServer.AddResource(mcp.NewResource(GraphMermaidURI, "Conversation Graph (Mermaid)",
		mcp.WithMIMEType("text/vnd.mermaid"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return []mcp.ResourceContents{
			mcp.TextResourceContents{URI: GraphMermaidURI, MIMEType: "text/vnd.mermaid", Text: graph.GenerateMermaid(s.engine.Graph(), nil)},
		}, nil
	})
}

func newSessionResult(cp *domain.Checkpoint) SessionResult {
	return SessionResult{
		SessionID: cp.SessionID,
		LastNode:  cp.LastNode,
		Done:      cp.Done(),
		Turn:      cp.Turn,
		Messages:  cp.State.Messages,
	}
}
