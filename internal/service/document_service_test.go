package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blocknotes/internal/blocktree"
	"blocknotes/internal/domain"
	"blocknotes/internal/service"
)

func ptr[T any](v T) *T { return &v }

func rootChildren(t *testing.T, svc *service.DocumentService, doc *domain.Document) []string {
	t.Helper()
	_, state, err := svc.GetDocument(context.Background(), doc.ID)
	require.NoError(t, err)
	root, ok := state.Get(doc.RootID)
	require.True(t, ok)
	return root.Children
}

func TestDocumentService_CreateDocument(t *testing.T) {
	ctx := context.Background()
	svc, em := newDocumentService(t)

	doc, err := svc.CreateDocument(ctx, "  Plans ")
	require.NoError(t, err)
	assert.Equal(t, "Plans", doc.Title)

	got, state, err := svc.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.RootID, got.RootID)
	require.Equal(t, 1, state.Len())

	root, _ := state.Get(doc.RootID)
	assert.Equal(t, domain.BlockTypePage, root.Type)
	assert.Equal(t, "Plans", root.Title)
	assert.Empty(t, root.Children)

	assert.Equal(t, []string{service.EventDocumentsChanged}, em.Names())
}

func TestDocumentService_CreateDocument_DefaultTitle(t *testing.T) {
	svc, _ := newDocumentService(t)

	doc, err := svc.CreateDocument(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultPageTitle, doc.Title)
}

func TestDocumentService_ListRenameDelete(t *testing.T) {
	ctx := context.Background()
	svc, _ := newDocumentService(t)

	a, err := svc.CreateDocument(ctx, "A")
	require.NoError(t, err)
	_, err = svc.CreateDocument(ctx, "B")
	require.NoError(t, err)

	list, err := svc.ListDocuments(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	renamed, err := svc.RenameDocument(ctx, a.ID, "A2")
	require.NoError(t, err)
	assert.Equal(t, "A2", renamed.Title)

	renamed, err = svc.RenameDocument(ctx, a.ID, "   ")
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultPageTitle, renamed.Title)

	require.NoError(t, svc.DeleteDocument(ctx, a.ID))
	_, _, err = svc.GetDocument(ctx, a.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)

	assert.ErrorIs(t, svc.DeleteDocument(ctx, a.ID), service.ErrNotFound)
	_, err = svc.RenameDocument(ctx, a.ID, "x")
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestDocumentService_AddBlock(t *testing.T) {
	ctx := context.Background()
	svc, em := newDocumentService(t)
	doc, err := svc.CreateDocument(ctx, "Doc")
	require.NoError(t, err)

	a, err := svc.AddBlock(ctx, doc.ID, service.AddBlockInput{ParentID: doc.RootID, Type: domain.BlockTypeText, Options: domain.Patch{Title: ptr("a")}})
	require.NoError(t, err)
	b, err := svc.AddBlock(ctx, doc.ID, service.AddBlockInput{ParentID: doc.RootID, Type: domain.BlockTypeCheckbox, Options: domain.Patch{Checked: ptr(true)}})
	require.NoError(t, err)
	assert.True(t, b.Checked)

	// lands right after the child at position 0
	c, err := svc.AddBlock(ctx, doc.ID, service.AddBlockInput{ParentID: doc.RootID, Type: domain.BlockTypeHeader, Position: ptr(0)})
	require.NoError(t, err)
	assert.Equal(t, domain.HeaderH1, c.Size)

	assert.Equal(t, []string{a.ID, c.ID, b.ID}, rootChildren(t, svc, doc))
	assert.Contains(t, em.Names(), service.EventBlocksChanged)

	docID, err := svc.DocumentIDOf(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, docID)
}

func TestDocumentService_AddBlock_UnknownTypeIsText(t *testing.T) {
	ctx := context.Background()
	svc, _ := newDocumentService(t)
	doc, err := svc.CreateDocument(ctx, "Doc")
	require.NoError(t, err)

	b, err := svc.AddBlock(ctx, doc.ID, service.AddBlockInput{ParentID: doc.RootID, Type: "table"})
	require.NoError(t, err)
	assert.Equal(t, domain.BlockTypeText, b.Type)
}

func TestDocumentService_AddBlock_NotFound(t *testing.T) {
	ctx := context.Background()
	svc, _ := newDocumentService(t)
	doc, err := svc.CreateDocument(ctx, "Doc")
	require.NoError(t, err)

	_, err = svc.AddBlock(ctx, doc.ID, service.AddBlockInput{ParentID: "nope", Type: domain.BlockTypeText})
	assert.ErrorIs(t, err, service.ErrNotFound)

	_, err = svc.AddBlock(ctx, "missing-doc", service.AddBlockInput{ParentID: doc.RootID})
	assert.ErrorIs(t, err, service.ErrNotFound)

	assert.Empty(t, rootChildren(t, svc, doc))
}

func TestDocumentService_UpdateBlock(t *testing.T) {
	ctx := context.Background()
	svc, _ := newDocumentService(t)
	doc, err := svc.CreateDocument(ctx, "Doc")
	require.NoError(t, err)
	cb, err := svc.AddBlock(ctx, doc.ID, service.AddBlockInput{ParentID: doc.RootID, Type: domain.BlockTypeCheckbox})
	require.NoError(t, err)

	updated, err := svc.UpdateBlock(ctx, doc.ID, cb.ID, domain.Patch{Title: ptr("buy milk"), Checked: ptr(true), Size: ptr(domain.HeaderH2)})
	require.NoError(t, err)
	assert.Equal(t, cb.ID, updated.ID)
	assert.Equal(t, "buy milk", updated.Title)
	assert.True(t, updated.Checked)
	assert.Empty(t, updated.Size)
	assert.Equal(t, cb.CreatedAt, updated.CreatedAt)

	_, err = svc.UpdateBlock(ctx, doc.ID, "nope", domain.Patch{})
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestDocumentService_DeleteBlockRemovesSubtree(t *testing.T) {
	ctx := context.Background()
	svc, _ := newDocumentService(t)
	doc, err := svc.CreateDocument(ctx, "Doc")
	require.NoError(t, err)

	page, err := svc.AddBlock(ctx, doc.ID, service.AddBlockInput{ParentID: doc.RootID, Type: domain.BlockTypePage})
	require.NoError(t, err)
	child, err := svc.AddBlock(ctx, doc.ID, service.AddBlockInput{ParentID: page.ID, Type: domain.BlockTypeText})
	require.NoError(t, err)
	keep, err := svc.AddBlock(ctx, doc.ID, service.AddBlockInput{ParentID: doc.RootID, Type: domain.BlockTypeText})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteBlock(ctx, doc.ID, page.ID))

	_, state, err := svc.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{doc.RootID, keep.ID}, state.IDs())
	assert.False(t, state.Has(child.ID))
	assert.NoError(t, blocktree.Validate(state, doc.RootID))

	_, err = svc.DocumentIDOf(ctx, child.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestDocumentService_RootCannotBeDeletedOrConverted(t *testing.T) {
	ctx := context.Background()
	svc, _ := newDocumentService(t)
	doc, err := svc.CreateDocument(ctx, "Doc")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.DeleteBlock(ctx, doc.ID, doc.RootID), service.ErrInvalidArgument)
	_, err = svc.ConvertBlock(ctx, doc.ID, doc.RootID, domain.BlockTypeText, domain.Patch{})
	assert.ErrorIs(t, err, service.ErrInvalidArgument)
	assert.ErrorIs(t, svc.DeleteBlock(ctx, doc.ID, "nope"), service.ErrNotFound)
}

func TestDocumentService_ConvertBlock(t *testing.T) {
	ctx := context.Background()
	svc, _ := newDocumentService(t)
	doc, err := svc.CreateDocument(ctx, "Doc")
	require.NoError(t, err)

	first, err := svc.AddBlock(ctx, doc.ID, service.AddBlockInput{ParentID: doc.RootID, Type: domain.BlockTypeText})
	require.NoError(t, err)
	page, err := svc.AddBlock(ctx, doc.ID, service.AddBlockInput{ParentID: doc.RootID, Type: domain.BlockTypePage, Options: domain.Patch{Title: ptr("Sub")}})
	require.NoError(t, err)
	nested, err := svc.AddBlock(ctx, doc.ID, service.AddBlockInput{ParentID: page.ID, Type: domain.BlockTypeText})
	require.NoError(t, err)
	last, err := svc.AddBlock(ctx, doc.ID, service.AddBlockInput{ParentID: doc.RootID, Type: domain.BlockTypeText})
	require.NoError(t, err)

	header, err := svc.ConvertBlock(ctx, doc.ID, page.ID, domain.BlockTypeHeader, domain.Patch{Size: ptr(domain.HeaderH3)})
	require.NoError(t, err)
	assert.NotEqual(t, page.ID, header.ID)
	assert.Equal(t, domain.BlockTypeHeader, header.Type)
	assert.Equal(t, domain.HeaderH3, header.Size)
	assert.Empty(t, header.Title, "nothing of the converted block carries over")

	assert.Equal(t, []string{first.ID, header.ID, last.ID}, rootChildren(t, svc, doc))

	_, state, err := svc.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.False(t, state.Has(page.ID))
	assert.False(t, state.Has(nested.ID))
	assert.Equal(t, 4, state.Len())
}

func TestDocumentService_ExportImport(t *testing.T) {
	ctx := context.Background()
	src, _ := newDocumentService(t)
	doc, err := src.CreateDocument(ctx, "Doc")
	require.NoError(t, err)
	page, err := src.AddBlock(ctx, doc.ID, service.AddBlockInput{ParentID: doc.RootID, Type: domain.BlockTypePage})
	require.NoError(t, err)
	_, err = src.AddBlock(ctx, doc.ID, service.AddBlockInput{ParentID: page.ID, Type: domain.BlockTypeCheckbox, Options: domain.Patch{Checked: ptr(true)}})
	require.NoError(t, err)

	exp, err := src.ExportDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Len(t, exp.Blocks, 3)

	dst, em := newDocumentService(t)
	require.NoError(t, dst.ImportDocument(ctx, *exp))

	got, err := dst.ExportDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, exp.Blocks, got.Blocks)
	assert.Equal(t, exp.Document.RootID, got.Document.RootID)
	assert.Equal(t, exp.Document.CreatedAt, got.Document.CreatedAt)
	assert.Equal(t, []string{service.EventDocumentsChanged, service.EventBlocksChanged}, em.Names())

	// importing again replaces rather than duplicates
	require.NoError(t, dst.ImportDocument(ctx, *exp))
	list, err := dst.ListDocuments(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestDocumentService_ImportUnderAnotherDocumentLeavesItIntact(t *testing.T) {
	ctx := context.Background()
	svc, _ := newDocumentService(t)
	a, err := svc.CreateDocument(ctx, "A")
	require.NoError(t, err)
	b, err := svc.CreateDocument(ctx, "B")
	require.NoError(t, err)

	exp, err := svc.ExportDocument(ctx, a.ID)
	require.NoError(t, err)
	exp.Document.ID = b.ID
	exp.Document.Title = "B-import"

	assert.ErrorIs(t, svc.ImportDocument(ctx, *exp), service.ErrInvalidArgument)

	got, state, err := svc.GetDocument(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "B", got.Title)
	assert.Equal(t, b.RootID, got.RootID)
	assert.True(t, state.Has(b.RootID))

	// edits on B still see its root
	added, err := svc.AddBlock(ctx, b.ID, service.AddBlockInput{ParentID: b.RootID, Type: domain.BlockTypeText})
	require.NoError(t, err)
	_, state, err = svc.GetDocument(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, state.Has(added.ID))
	assert.Equal(t, 2, state.Len())
}

func TestDocumentService_ImportRejectsBrokenTrees(t *testing.T) {
	ctx := context.Background()
	svc, _ := newDocumentService(t)
	d := domain.Document{ID: "doc-1", Title: "Broken", RootID: "root"}

	cases := map[string]domain.DocumentExport{
		"missing ids": {Document: domain.Document{Title: "x"}},
		"missing root": {
			Document: d,
			Blocks:   []domain.BlockDTO{{ID: "other", Type: domain.BlockTypeText}},
		},
		"dangling child": {
			Document: d,
			Blocks:   []domain.BlockDTO{{ID: "root", Type: domain.BlockTypePage, Children: []string{"ghost"}}},
		},
		"orphan": {
			Document: d,
			Blocks: []domain.BlockDTO{
				{ID: "root", Type: domain.BlockTypePage},
				{ID: "lost", Type: domain.BlockTypeText},
			},
		},
	}
	for name, exp := range cases {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, svc.ImportDocument(ctx, exp), service.ErrInvalidArgument)
		})
	}

	list, err := svc.ListDocuments(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}
