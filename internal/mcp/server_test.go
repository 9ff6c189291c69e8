package mcpserver

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blocknotes/internal/domain"
	"blocknotes/internal/logger"
	"blocknotes/internal/service"
	"blocknotes/internal/storage"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	db, err := storage.New(filepath.Join(t.TempDir(), "mcp.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	log := logger.Nop()
	docs := service.NewDocumentService(storage.NewDocumentStore(db), storage.NewBlockStore(db), service.NoopEmitter{}, log)
	return New(Deps{Documents: docs, Log: log})
}

func callTool(name string, args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult, i int) string {
	t.Helper()
	require.NotNil(t, res)
	require.Greater(t, len(res.Content), i)
	tc, ok := res.Content[i].(mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func decodeResult[T any](t *testing.T, res *mcp.CallToolResult, i int) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res, i)), &v))
	return v
}

func TestDocumentTools(t *testing.T) {
	ctx := context.Background()
	s := newTestServer(t)

	_, err := s.handleGetDocument(ctx, callTool("get_document", nil))
	assert.ErrorContains(t, err, "no active document")

	res, err := s.handleCreateDocument(ctx, callTool("create_document", map[string]any{"title": "Groceries"}))
	require.NoError(t, err)
	doc := decodeResult[domain.Document](t, res, 0)
	assert.Equal(t, "Groceries", doc.Title)
	assert.Equal(t, doc.ID, s.activeDocumentID)

	res, err = s.handleListDocuments(ctx, callTool("list_documents", nil))
	require.NoError(t, err)
	assert.Len(t, decodeResult[[]domain.Document](t, res, 0), 1)

	_, err = s.handleSetActiveDocument(ctx, callTool("set_active_document", map[string]any{"documentId": "nope"}))
	assert.ErrorIs(t, err, service.ErrNotFound)
	assert.Equal(t, doc.ID, s.activeDocumentID)
}

func TestBlockTools(t *testing.T) {
	ctx := context.Background()
	s := newTestServer(t)

	res, err := s.handleCreateDocument(ctx, callTool("create_document", map[string]any{"title": "Trip"}))
	require.NoError(t, err)
	doc := decodeResult[domain.Document](t, res, 0)

	res, err = s.handleAddBlock(ctx, callTool("add_block", map[string]any{"type": "header", "title": "Packing", "size": "h2"}))
	require.NoError(t, err)
	header := decodeResult[domain.BlockDTO](t, res, 0)
	assert.Equal(t, domain.HeaderH2, header.Size)

	res, err = s.handleAddBlock(ctx, callTool("add_block", map[string]any{
		"type":    "checkbox",
		"options": `{"title":"passport","checked":true}`,
	}))
	require.NoError(t, err)
	cb := decodeResult[domain.BlockDTO](t, res, 0)
	assert.True(t, cb.Checked)
	assert.Equal(t, "passport", cb.Title)

	// JSON numbers arrive as float64
	res, err = s.handleAddBlock(ctx, callTool("add_block", map[string]any{"type": "text", "title": "between", "position": float64(0)}))
	require.NoError(t, err)
	text := decodeResult[domain.BlockDTO](t, res, 0)

	res, err = s.handleGetDocument(ctx, callTool("get_document", map[string]any{"documentId": doc.ID}))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(resultText(t, res, 0)), "\n")
	assert.Equal(t, []string{
		"▸ Trip [" + doc.RootID + "]",
		"  ## Packing [" + header.ID + "]",
		"  - between [" + text.ID + "]",
		"  [x] passport [" + cb.ID + "]",
	}, lines)
	exp := decodeResult[domain.DocumentExport](t, res, 1)
	assert.Len(t, exp.Blocks, 4)

	res, err = s.handleUpdateBlock(ctx, callTool("update_block", map[string]any{"blockId": cb.ID, "checked": false}))
	require.NoError(t, err)
	assert.False(t, decodeResult[domain.BlockDTO](t, res, 0).Checked)

	res, err = s.handleConvertBlock(ctx, callTool("convert_block", map[string]any{"blockId": text.ID, "type": "page", "title": "Details"}))
	require.NoError(t, err)
	page := decodeResult[domain.BlockDTO](t, res, 0)
	assert.Equal(t, domain.BlockTypePage, page.Type)
	assert.Equal(t, "Details", page.Title)

	res, err = s.handleDeleteBlock(ctx, callTool("delete_block", map[string]any{"blockId": page.ID}))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, res, 0), page.ID)

	_, state, err := s.docs.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	root, _ := state.Get(doc.RootID)
	assert.Equal(t, []string{header.ID, cb.ID}, root.Children)
}

func TestBlockTools_Errors(t *testing.T) {
	ctx := context.Background()
	s := newTestServer(t)

	_, err := s.handleAddBlock(ctx, callTool("add_block", map[string]any{"documentId": "d"}))
	assert.ErrorContains(t, err, "type is required")

	_, err = s.handleUpdateBlock(ctx, callTool("update_block", map[string]any{}))
	assert.ErrorContains(t, err, "blockId is required")

	_, err = s.handleDeleteBlock(ctx, callTool("delete_block", map[string]any{"blockId": "ghost"}))
	assert.ErrorIs(t, err, service.ErrNotFound)

	res, err := s.handleCreateDocument(ctx, callTool("create_document", nil))
	require.NoError(t, err)
	doc := decodeResult[domain.Document](t, res, 0)

	_, err = s.handleAddBlock(ctx, callTool("add_block", map[string]any{"type": "text", "options": "{"}))
	assert.ErrorContains(t, err, "options must be a JSON object")

	_, err = s.handleDeleteBlock(ctx, callTool("delete_block", map[string]any{"blockId": doc.RootID, "documentId": doc.ID}))
	assert.ErrorIs(t, err, service.ErrInvalidArgument)
}

func TestDocumentBlocksResource(t *testing.T) {
	ctx := context.Background()
	s := newTestServer(t)

	res, err := s.handleCreateDocument(ctx, callTool("create_document", map[string]any{"title": "R"}))
	require.NoError(t, err)
	doc := decodeResult[domain.Document](t, res, 0)

	req := mcp.ReadResourceRequest{}
	req.Params.URI = "blocknotes://document/" + doc.ID + "/blocks"
	contents, err := s.handleDocumentBlocksResource(ctx, req)
	require.NoError(t, err)
	require.Len(t, contents, 1)

	trc, ok := contents[0].(mcp.TextResourceContents)
	require.True(t, ok)
	var blocks []domain.BlockDTO
	require.NoError(t, json.Unmarshal([]byte(trc.Text), &blocks))
	require.Len(t, blocks, 1)
	assert.Equal(t, doc.RootID, blocks[0].ID)

	req.Params.URI = "blocknotes://page/x/blocks"
	_, err = s.handleDocumentBlocksResource(ctx, req)
	assert.Error(t, err)
}

func TestDocumentIDFromURI(t *testing.T) {
	cases := map[string]string{
		"blocknotes://document/abc-123/blocks": "abc-123",
		"blocknotes://document/abc/def/blocks": "",
		"blocknotes://document/abc":            "",
		"notes://page/abc/blocks":              "",
	}
	for uri, want := range cases {
		assert.Equal(t, want, documentIDFromURI(uri), uri)
	}
}
