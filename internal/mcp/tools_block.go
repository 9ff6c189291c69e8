package mcpserver

import (
	"context"
	"fmt"

	"blocknotes/internal/domain"
	"blocknotes/internal/service"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerBlockTools() {
	// ── add_block ──────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("add_block",
		mcp.WithDescription("Add a new block under a parent block. Appends to the parent's children unless position is given."),
		mcp.WithString("type",
			mcp.Description("Block type: text, checkbox, header, page. Anything else creates a text block."),
			mcp.Required(),
		),
		mcp.WithString("documentId", mcp.Description("Document ID (optional, defaults to active document)")),
		mcp.WithString("parentId", mcp.Description("Parent block ID (optional, defaults to the document's root page)")),
		mcp.WithNumber("position", mcp.Description("Insert right after the child at this index (optional)")),
		mcp.WithString("title", mcp.Description("Block title (optional)")),
		mcp.WithBoolean("checked", mcp.Description("Checkbox state (checkbox blocks only)")),
		mcp.WithString("size", mcp.Description("Heading level h1, h2 or h3 (header blocks only)")),
		mcp.WithString("options", mcp.Description("JSON object of block fields (optional, explicit arguments win)")),
	), s.handleAddBlock)

	// ── update_block ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("update_block",
		mcp.WithDescription("Update the title, checked state or heading size of a block"),
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
		mcp.WithString("documentId", mcp.Description("Document ID (optional, looked up from the block)")),
		mcp.WithString("title", mcp.Description("New title")),
		mcp.WithBoolean("checked", mcp.Description("New checkbox state")),
		mcp.WithString("size", mcp.Description("New heading level")),
	), s.handleUpdateBlock)

	// ── delete_block (destructive) ─────────────────────
	s.mcp.AddTool(mcp.NewTool("delete_block",
		mcp.WithDescription("🛑 DESTRUCTIVE: Delete a block and every block beneath it."),
		mcp.WithString("blockId", mcp.Description("Block ID to delete"), mcp.Required()),
		mcp.WithString("documentId", mcp.Description("Document ID (optional, looked up from the block)")),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleDeleteBlock)

	// ── convert_block ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("convert_block",
		mcp.WithDescription("Replace a block with a fresh block of another type in the same position. The old block's title and children are discarded."),
		mcp.WithString("blockId", mcp.Description("Block ID to convert"), mcp.Required()),
		mcp.WithString("type", mcp.Description("Target type: text, checkbox, header, page"), mcp.Required()),
		mcp.WithString("documentId", mcp.Description("Document ID (optional, looked up from the block)")),
		mcp.WithString("title", mcp.Description("Title for the new block")),
		mcp.WithBoolean("checked", mcp.Description("Checkbox state for the new block")),
		mcp.WithString("size", mcp.Description("Heading level for the new block")),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleConvertBlock)
}

func boolPtr(v bool) *bool { return &v }

// ── Handlers ───────────────────────────────────────────────

func (s *Server) handleAddBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	blockType := req.GetString("type", "")
	if blockType == "" {
		return nil, fmt.Errorf("type is required")
	}
	docID, err := s.resolveDocumentID(args)
	if err != nil {
		return nil, err
	}
	patch, err := patchFromArgs(args)
	if err != nil {
		return nil, err
	}

	in := service.AddBlockInput{
		ParentID: req.GetString("parentId", ""),
		Type:     domain.BlockType(blockType),
		Options:  patch,
	}
	if in.ParentID == "" {
		doc, _, err := s.docs.GetDocument(ctx, docID)
		if err != nil {
			return nil, fmt.Errorf("add block: %w", err)
		}
		in.ParentID = doc.RootID
	}
	if pos, ok := args["position"].(float64); ok {
		p := int(pos)
		in.Position = &p
	}

	b, err := s.docs.AddBlock(ctx, docID, in)
	if err != nil {
		return nil, fmt.Errorf("add block: %w", err)
	}
	return jsonResult(domain.ToDTO(b))
}

func (s *Server) handleUpdateBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	docID, blockID, err := s.resolveBlock(ctx, args)
	if err != nil {
		return nil, err
	}
	patch, err := patchFromArgs(args)
	if err != nil {
		return nil, err
	}
	b, err := s.docs.UpdateBlock(ctx, docID, blockID, patch)
	if err != nil {
		return nil, fmt.Errorf("update block: %w", err)
	}
	return jsonResult(domain.ToDTO(b))
}

func (s *Server) handleDeleteBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	docID, blockID, err := s.resolveBlock(ctx, req.GetArguments())
	if err != nil {
		return nil, err
	}
	if err := s.docs.DeleteBlock(ctx, docID, blockID); err != nil {
		return nil, fmt.Errorf("delete block: %w", err)
	}
	s.log.Info("block deleted via mcp", "document_id", docID, "block_id", blockID)
	return textResult(fmt.Sprintf("Deleted block %s", blockID)), nil
}

func (s *Server) handleConvertBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	target := req.GetString("type", "")
	if target == "" {
		return nil, fmt.Errorf("type is required")
	}
	docID, blockID, err := s.resolveBlock(ctx, args)
	if err != nil {
		return nil, err
	}
	patch, err := patchFromArgs(args)
	if err != nil {
		return nil, err
	}
	b, err := s.docs.ConvertBlock(ctx, docID, blockID, domain.BlockType(target), patch)
	if err != nil {
		return nil, fmt.Errorf("convert block: %w", err)
	}
	return jsonResult(domain.ToDTO(b))
}

// resolveBlock reads blockId and finds its document when documentId is absent.
func (s *Server) resolveBlock(ctx context.Context, args map[string]any) (docID, blockID string, err error) {
	blockID, _ = args["blockId"].(string)
	if blockID == "" {
		return "", "", fmt.Errorf("blockId is required")
	}
	if id, ok := args["documentId"].(string); ok && id != "" {
		return id, blockID, nil
	}
	docID, err = s.docs.DocumentIDOf(ctx, blockID)
	if err != nil {
		return "", "", err
	}
	return docID, blockID, nil
}

// patchFromArgs builds a Patch from the options JSON and then the explicit
// title, checked and size arguments.
func patchFromArgs(args map[string]any) (domain.Patch, error) {
	var p domain.Patch
	if raw, ok := args["options"].(string); ok && raw != "" {
		if err := parseJSON(raw, &p); err != nil {
			return p, fmt.Errorf("options must be a JSON object: %w", err)
		}
	}
	if v, ok := args["title"].(string); ok {
		p.Title = &v
	}
	if v, ok := args["checked"].(bool); ok {
		p.Checked = &v
	}
	if v, ok := args["size"].(string); ok && v != "" {
		size := domain.HeaderSize(v)
		p.Size = &size
	}
	return p, nil
}
