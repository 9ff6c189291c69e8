package mcpserver

import (
	"encoding/json"
	"fmt"
	"sync"

	"blocknotes/internal/logger"
	"blocknotes/internal/service"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Server is the MCP server for blocknotes.
// It exposes tools, resources, and prompts so AI agents can read and edit
// block documents.
type Server struct {
	mcp  *server.MCPServer
	log  *logger.Logger
	docs *service.DocumentService

	// Active document context (set by create_document / set_active_document)
	mu               sync.Mutex
	activeDocumentID string
}

// Deps holds the dependencies passed from main to the MCP server.
type Deps struct {
	Documents *service.DocumentService
	Log       *logger.Logger
}

// New creates and configures a new MCP server with all tools and resources.
func New(deps Deps) *Server {
	s := &Server{
		log:  deps.Log,
		docs: deps.Documents,
	}

	s.mcp = server.NewMCPServer(
		"blocknotes-mcp",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
		server.WithPromptCapabilities(true),
	)

	s.registerDocumentTools()
	s.registerBlockTools()
	s.registerResources()
	s.registerPrompts()

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	s.log.Info("starting MCP stdio server")
	return server.ServeStdio(s.mcp)
}

// ── Helpers ────────────────────────────────────────────────

// textResult creates a simple text tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}

func (s *Server) setActiveDocument(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeDocumentID = id
}

// resolveDocumentID returns the documentId from tool args or falls back to
// the active document.
func (s *Server) resolveDocumentID(args map[string]any) (string, error) {
	if id, ok := args["documentId"].(string); ok && id != "" {
		return id, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activeDocumentID != "" {
		return s.activeDocumentID, nil
	}
	return "", fmt.Errorf("no documentId provided and no active document set (use set_active_document first)")
}
