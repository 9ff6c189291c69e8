package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"blocknotes/internal/domain"

	"github.com/mark3labs/mcp-go/mcp"
)

const (
	documentsURI      = "blocknotes://documents"
	documentURIPrefix = "blocknotes://document/"
	blocksURISuffix   = "/blocks"
)

func (s *Server) registerResources() {
	// ── blocknotes://documents ─────────────────────────
	s.mcp.AddResource(mcp.NewResource(
		documentsURI,
		"All Documents",
		mcp.WithMIMEType("application/json"),
	), s.handleDocumentsResource)

	// ── blocknotes://document/{documentId}/blocks ──────
	s.mcp.AddResourceTemplate(
		mcp.NewResourceTemplate(
			documentURIPrefix+"{documentId}"+blocksURISuffix,
			"Blocks of a Document",
		),
		s.handleDocumentBlocksResource,
	)
}

func (s *Server) handleDocumentsResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	docs, err := s.docs.ListDocuments(ctx)
	if err != nil {
		return nil, err
	}

	type documentSummary struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	}

	summaries := make([]documentSummary, 0, len(docs))
	for _, d := range docs {
		summaries = append(summaries, documentSummary{ID: d.ID, Title: d.Title})
	}

	data, _ := json.MarshalIndent(summaries, "", "  ")
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      documentsURI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) handleDocumentBlocksResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	docID := documentIDFromURI(uri)
	if docID == "" {
		return nil, fmt.Errorf("could not extract documentId from URI: %s", uri)
	}

	_, state, err := s.docs.GetDocument(ctx, docID)
	if err != nil {
		return nil, err
	}

	data, _ := json.MarshalIndent(domain.ToDTOs(state.Blocks()), "", "  ")
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// documentIDFromURI extracts the id from "blocknotes://document/{id}/blocks".
func documentIDFromURI(uri string) string {
	rest, ok := strings.CutPrefix(uri, documentURIPrefix)
	if !ok {
		return ""
	}
	id, ok := strings.CutSuffix(rest, blocksURISuffix)
	if !ok || strings.Contains(id, "/") {
		return ""
	}
	return id
}
