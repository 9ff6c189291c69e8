package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"blocknotes/internal/blocktree"
	"blocknotes/internal/domain"
	"blocknotes/internal/logger"
	"blocknotes/internal/storage"
)

// ─────────────────────────────────────────────────────────────
// Document Service: block tree edits on persisted documents
// ─────────────────────────────────────────────────────────────

// DocumentService loads a document's state, applies a pure blocktree
// operation, drops unreachable blocks and writes the result back. Mutations
// are serialized so concurrent callers never lose each other's edits.
type DocumentService struct {
	docs    *storage.DocumentStore
	blocks  *storage.BlockStore
	emitter EventEmitter
	log     *logger.Logger
	factory domain.Factory

	mu sync.Mutex
}

// NewDocumentService creates a DocumentService.
func NewDocumentService(docs *storage.DocumentStore, blocks *storage.BlockStore, emitter EventEmitter, log *logger.Logger) *DocumentService {
	return &DocumentService{
		docs:    docs,
		blocks:  blocks,
		emitter: emitter,
		log:     log,
		factory: domain.DefaultFactory,
	}
}

// AddBlockInput describes a block to create under ParentID. A nil Position
// appends; otherwise the block lands right after the child at Position.
type AddBlockInput struct {
	ParentID string           `json:"parentId"`
	Type     domain.BlockType `json:"type"`
	Position *int             `json:"position,omitempty"`
	Options  domain.Patch     `json:"options"`
}

// ── Documents ──────────────────────────────────────────────

// CreateDocument creates a document with an empty root page titled title.
func (s *DocumentService) CreateDocument(ctx context.Context, title string) (*domain.Document, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = domain.DefaultPageTitle
	}
	root := s.factory.Page(domain.Patch{Title: &title})
	doc := &domain.Document{
		ID:     s.factory.NewID(),
		Title:  title,
		RootID: root.ID,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.docs.CreateDocument(ctx, doc); err != nil {
		return nil, err
	}
	if err := s.blocks.ReplaceDocumentBlocks(ctx, doc.ID, []domain.BlockDTO{domain.ToDTO(root)}); err != nil {
		return nil, fmt.Errorf("create root block: %w", err)
	}

	s.log.Info("document created", "document_id", doc.ID, "root_id", root.ID)
	s.emitter.Emit(ctx, EventDocumentsChanged, map[string]string{"documentId": doc.ID})
	return doc, nil
}

func (s *DocumentService) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	return s.docs.ListDocuments(ctx)
}

// GetDocument returns a document and its current block state.
func (s *DocumentService) GetDocument(ctx context.Context, id string) (*domain.Document, blocktree.State, error) {
	return s.load(ctx, id)
}

func (s *DocumentService) RenameDocument(ctx context.Context, id, title string) (*domain.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.docs.GetDocument(ctx, id)
	if err != nil {
		return nil, notFound(err, "document "+id)
	}
	doc.Title = strings.TrimSpace(title)
	if doc.Title == "" {
		doc.Title = domain.DefaultPageTitle
	}
	if err := s.docs.UpdateDocument(ctx, doc); err != nil {
		return nil, notFound(err, "document "+id)
	}
	s.emitter.Emit(ctx, EventDocumentsChanged, map[string]string{"documentId": id})
	return doc, nil
}

func (s *DocumentService) DeleteDocument(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.docs.DeleteDocument(ctx, id); err != nil {
		return notFound(err, "document "+id)
	}
	s.log.Info("document deleted", "document_id", id)
	s.emitter.Emit(ctx, EventDocumentsChanged, map[string]string{"documentId": id})
	return nil
}

// ── Blocks ─────────────────────────────────────────────────

// AddBlock creates a block of in.Type and attaches it to in.ParentID.
// Unknown types produce a text block.
func (s *DocumentService) AddBlock(ctx context.Context, documentID string, in AddBlockInput) (domain.Block, error) {
	var created domain.Block
	err := s.mutate(ctx, documentID, func(_ *domain.Document, state blocktree.State) (blocktree.State, error) {
		parent, ok := state.Get(in.ParentID)
		if !ok {
			return state, fmt.Errorf("parent block %s: %w", in.ParentID, ErrNotFound)
		}
		created = s.factory.For(in.Type)(in.Options)
		if in.Position == nil {
			return blocktree.AddBlock(state, parent, created), nil
		}
		return blocktree.InsertBlock(state, parent, created, *in.Position), nil
	})
	if err != nil {
		return domain.Block{}, err
	}
	s.log.Debug("block added", "document_id", documentID, "block_id", created.ID, "type", created.Type)
	return created, nil
}

// UpdateBlock applies the overridable fields of patch to an existing block.
func (s *DocumentService) UpdateBlock(ctx context.Context, documentID, blockID string, patch domain.Patch) (domain.Block, error) {
	var updated domain.Block
	err := s.mutate(ctx, documentID, func(_ *domain.Document, state blocktree.State) (blocktree.State, error) {
		target, ok := state.Get(blockID)
		if !ok {
			return state, fmt.Errorf("block %s: %w", blockID, ErrNotFound)
		}
		next := blocktree.Edit(state, target, patch, s.factory.Now())
		updated, _ = next.Get(blockID)
		return next, nil
	})
	if err != nil {
		return domain.Block{}, err
	}
	return updated, nil
}

// DeleteBlock removes a block and everything beneath it. The root page
// cannot be deleted.
func (s *DocumentService) DeleteBlock(ctx context.Context, documentID, blockID string) error {
	err := s.mutate(ctx, documentID, func(doc *domain.Document, state blocktree.State) (blocktree.State, error) {
		target, parent, err := s.childAndParent(doc, state, blockID)
		if err != nil {
			return state, err
		}
		return blocktree.DeleteBlock(state, parent, target), nil
	})
	if err != nil {
		return err
	}
	s.log.Debug("block deleted", "document_id", documentID, "block_id", blockID)
	return nil
}

// ConvertBlock recreates a block as type t from options alone, keeping its
// position. The old block's children go with it.
func (s *DocumentService) ConvertBlock(ctx context.Context, documentID, blockID string, t domain.BlockType, options domain.Patch) (domain.Block, error) {
	var created domain.Block
	err := s.mutate(ctx, documentID, func(doc *domain.Document, state blocktree.State) (blocktree.State, error) {
		target, parent, err := s.childAndParent(doc, state, blockID)
		if err != nil {
			return state, err
		}
		var next blocktree.State
		next, created = blocktree.ConvertBlockTypeWith(s.factory, state, parent, target, t, options)
		return next, nil
	})
	if err != nil {
		return domain.Block{}, err
	}
	s.log.Debug("block converted", "document_id", documentID, "from", blockID, "to", created.ID, "type", created.Type)
	return created, nil
}

// ── Export / Import ────────────────────────────────────────

// ExportDocument returns a document in its serializable form.
func (s *DocumentService) ExportDocument(ctx context.Context, id string) (*domain.DocumentExport, error) {
	doc, state, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return &domain.DocumentExport{Document: *doc, Blocks: domain.ToDTOs(state.Blocks())}, nil
}

// ImportDocument writes an exported document, replacing any document with the
// same id. The blocks must form one tree under the document's root.
func (s *DocumentService) ImportDocument(ctx context.Context, exp domain.DocumentExport) error {
	doc := exp.Document
	if doc.ID == "" || doc.RootID == "" {
		return fmt.Errorf("%w: document id and root id are required", ErrInvalidArgument)
	}
	state := blocktree.NewState(domain.FromDTOs(exp.Blocks)...)
	if err := blocktree.Validate(state, doc.RootID); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.blocks.ImportDocument(ctx, &doc, domain.ToDTOs(state.Blocks())); err != nil {
		if errors.Is(err, storage.ErrBlockConflict) {
			return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
		}
		return err
	}

	s.log.Info("document imported", "document_id", doc.ID, "blocks", state.Len())
	s.emitter.Emit(ctx, EventDocumentsChanged, map[string]string{"documentId": doc.ID})
	s.emitter.Emit(ctx, EventBlocksChanged, map[string]string{"documentId": doc.ID})
	return nil
}

// DocumentIDOf finds the document that holds blockID.
func (s *DocumentService) DocumentIDOf(ctx context.Context, blockID string) (string, error) {
	id, err := s.blocks.DocumentIDOf(ctx, blockID)
	if err != nil {
		return "", notFound(err, "block "+blockID)
	}
	return id, nil
}

// ── Helpers ────────────────────────────────────────────────

func (s *DocumentService) load(ctx context.Context, id string) (*domain.Document, blocktree.State, error) {
	doc, err := s.docs.GetDocument(ctx, id)
	if err != nil {
		return nil, blocktree.State{}, notFound(err, "document "+id)
	}
	dtos, err := s.blocks.ListBlocks(ctx, id)
	if err != nil {
		return nil, blocktree.State{}, fmt.Errorf("load blocks: %w", err)
	}
	return doc, blocktree.NewState(domain.FromDTOs(dtos)...), nil
}

type mutation func(doc *domain.Document, state blocktree.State) (blocktree.State, error)

func (s *DocumentService) mutate(ctx context.Context, documentID string, fn mutation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, state, err := s.load(ctx, documentID)
	if err != nil {
		return err
	}
	next, err := fn(doc, state)
	if err != nil {
		return err
	}
	next = blocktree.Prune(next, doc.RootID)
	if err := s.blocks.ReplaceDocumentBlocks(ctx, documentID, domain.ToDTOs(next.Blocks())); err != nil {
		return fmt.Errorf("save blocks: %w", notFound(err, "document "+documentID))
	}

	s.emitter.Emit(ctx, EventBlocksChanged, map[string]string{"documentId": documentID})
	return nil
}

// childAndParent resolves a non-root block and the block that lists it.
func (s *DocumentService) childAndParent(doc *domain.Document, state blocktree.State, blockID string) (domain.Block, domain.Block, error) {
	if blockID == doc.RootID {
		return domain.Block{}, domain.Block{}, fmt.Errorf("%w: the root block cannot be removed or converted", ErrInvalidArgument)
	}
	target, ok := state.Get(blockID)
	if !ok {
		return domain.Block{}, domain.Block{}, fmt.Errorf("block %s: %w", blockID, ErrNotFound)
	}
	parent, ok := blocktree.ParentOf(state, blockID)
	if !ok {
		return domain.Block{}, domain.Block{}, fmt.Errorf("block %s has no parent: %w", blockID, ErrNotFound)
	}
	return target, parent, nil
}
