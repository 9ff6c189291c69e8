package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"blocknotes/internal/blocktree"
	"blocknotes/internal/domain"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerDocumentTools() {
	// ── list_documents ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_documents",
		mcp.WithDescription("List all documents, most recently edited first"),
	), s.handleListDocuments)

	// ── create_document ────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("create_document",
		mcp.WithDescription("Create a new document with an empty root page. The new document becomes the active document."),
		mcp.WithString("title",
			mcp.Description("Title of the document (defaults to Untitled)"),
		),
	), s.handleCreateDocument)

	// ── get_document ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("get_document",
		mcp.WithDescription("Get a document: an indented outline of its blocks followed by the full JSON"),
		mcp.WithString("documentId",
			mcp.Description("Document ID (optional, defaults to active document)"),
		),
	), s.handleGetDocument)

	// ── set_active_document ────────────────────────────
	s.mcp.AddTool(mcp.NewTool("set_active_document",
		mcp.WithDescription("Set the active document for subsequent tool calls. Tools that accept documentId will default to this."),
		mcp.WithString("documentId",
			mcp.Description("ID of the document to make active"),
			mcp.Required(),
		),
	), s.handleSetActiveDocument)
}

func (s *Server) handleListDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	docs, err := s.docs.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	if docs == nil {
		docs = []domain.Document{}
	}
	return jsonResult(docs)
}

func (s *Server) handleCreateDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, err := s.docs.CreateDocument(ctx, req.GetString("title", ""))
	if err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}
	s.setActiveDocument(doc.ID)
	return jsonResult(doc)
}

func (s *Server) handleGetDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	docID, err := s.resolveDocumentID(req.GetArguments())
	if err != nil {
		return nil, err
	}
	doc, state, err := s.docs.GetDocument(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}

	full, err := jsonResult(domain.DocumentExport{Document: *doc, Blocks: domain.ToDTOs(state.Blocks())})
	if err != nil {
		return nil, err
	}
	return &mcp.CallToolResult{
		Content: append([]mcp.Content{
			mcp.TextContent{Type: "text", Text: outline(state, doc.RootID)},
		}, full.Content...),
	}, nil
}

func (s *Server) handleSetActiveDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	docID := req.GetString("documentId", "")
	if docID == "" {
		return nil, fmt.Errorf("documentId is required")
	}
	if _, _, err := s.docs.GetDocument(ctx, docID); err != nil {
		return nil, fmt.Errorf("set active document: %w", err)
	}
	s.setActiveDocument(docID)
	return textResult(fmt.Sprintf("Active document set to %s", docID)), nil
}

// outline renders the tree under rootID one block per line, indented by depth,
// with each block's id in brackets so agents can refer back to it.
func outline(state blocktree.State, rootID string) string {
	var sb strings.Builder
	blocktree.Walk(state, rootID, func(b domain.Block, depth int) bool {
		sb.WriteString(strings.Repeat("  ", depth))
		switch b.Type {
		case domain.BlockTypePage:
			sb.WriteString("▸ ")
		case domain.BlockTypeHeader:
			level := 1
			switch b.Size {
			case domain.HeaderH2:
				level = 2
			case domain.HeaderH3:
				level = 3
			}
			sb.WriteString(strings.Repeat("#", level) + " ")
		case domain.BlockTypeCheckbox:
			if b.Checked {
				sb.WriteString("[x] ")
			} else {
				sb.WriteString("[ ] ")
			}
		default:
			sb.WriteString("- ")
		}
		sb.WriteString(b.Title)
		fmt.Fprintf(&sb, " [%s]\n", b.ID)
		return true
	})
	return sb.String()
}
