package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPrompts() {
	s.mcp.AddPrompt(mcp.NewPrompt("draft_document",
		mcp.WithPromptDescription("Guide through drafting a structured document from a topic"),
		mcp.WithArgument("topic",
			mcp.ArgumentDescription("Topic or title for the document"),
			mcp.RequiredArgument(),
		),
	), s.handleDraftDocumentPrompt)

	s.mcp.AddPrompt(mcp.NewPrompt("checklist",
		mcp.WithPromptDescription("Turn a goal into a checklist of checkbox blocks in the active document"),
		mcp.WithArgument("goal",
			mcp.ArgumentDescription("What the checklist should accomplish"),
			mcp.RequiredArgument(),
		),
	), s.handleChecklistPrompt)
}

func (s *Server) handleDraftDocumentPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	topic := req.Params.Arguments["topic"]
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Draft a document about: %s", topic),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Draft a document about "%s". Follow these steps:

1. Use create_document with the title "%s"; it becomes the active document
2. Add an h1 header block (add_block type=header size=h1) with a one-line summary
3. For each major section, add a header block (size=h2) followed by text blocks
4. Put deeper material in sub-pages: add a page block, then add blocks with parentId set to that page's id
5. Finish with get_document and check that the outline reads well`, topic, topic),
				},
			},
		},
	}, nil
}

func (s *Server) handleChecklistPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	goal := req.Params.Arguments["goal"]
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Checklist for: %s", goal),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Build a checklist for: %s.

1. Use get_document to see the active document's outline
2. Add an h2 header block naming the goal
3. Add one checkbox block per concrete step, in the order they should be done
4. Use update_block with checked=true for any step that is already complete`, goal),
				},
			},
		},
	}, nil
}
