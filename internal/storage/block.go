package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"blocknotes/internal/domain"
)

// ErrBlockConflict is returned when a block id is already held by another
// document.
var ErrBlockConflict = errors.New("block id belongs to another document")

// BlockStore persists a document's blocks in their serializable form.
type BlockStore struct {
	db *DB
}

func NewBlockStore(db *DB) *BlockStore {
	return &BlockStore{db: db}
}

const blockColumns = `id, type, title, checked, size, children_json, created_at, updated_at`

// ListBlocks returns a document's blocks in stored order.
func (s *BlockStore) ListBlocks(ctx context.Context, documentID string) ([]domain.BlockDTO, error) {
	rows, err := s.db.conn.QueryContext(ctx,
		`SELECT `+blockColumns+` FROM blocks WHERE document_id = ? ORDER BY position ASC`,
		documentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	blocks := []domain.BlockDTO{}
	for rows.Next() {
		b, err := scanBlock(rows)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, b)
	}
	return blocks, rows.Err()
}

// DocumentIDOf returns the id of the document holding blockID.
func (s *BlockStore) DocumentIDOf(ctx context.Context, blockID string) (string, error) {
	var documentID string
	err := s.db.conn.QueryRowContext(ctx, `SELECT document_id FROM blocks WHERE id = ?`, blockID).Scan(&documentID)
	if err != nil {
		return "", fmt.Errorf("find block %s: %w", blockID, err)
	}
	return documentID, nil
}

// ReplaceDocumentBlocks atomically replaces all blocks of a document and bumps
// the document's updated_at.
func (s *BlockStore) ReplaceDocumentBlocks(ctx context.Context, documentID string, blocks []domain.BlockDTO) error {
	tx, err := s.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE documents SET updated_at = ? WHERE id = ?`,
		domain.Timestamp(time.Now()).UnixMilli(), documentID,
	)
	if err != nil {
		return fmt.Errorf("touch document: %w", err)
	}
	if err := requireAffected(res, "document", documentID); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM blocks WHERE document_id = ?`, documentID); err != nil {
		return fmt.Errorf("delete blocks: %w", err)
	}

	if err := insertBlocks(ctx, tx, documentID, blocks); err != nil {
		return err
	}
	return tx.Commit()
}

// ImportDocument writes d exactly as given and replaces its blocks in one
// transaction. Nothing is written if any block id is held by another document.
func (s *BlockStore) ImportDocument(ctx context.Context, d *domain.Document, blocks []domain.BlockDTO) error {
	tx, err := s.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, b := range blocks {
		var owner string
		err := tx.QueryRowContext(ctx, `SELECT document_id FROM blocks WHERE id = ?`, b.ID).Scan(&owner)
		switch {
		case errors.Is(err, sql.ErrNoRows):
		case err != nil:
			return fmt.Errorf("check block %s: %w", b.ID, err)
		case owner != d.ID:
			return fmt.Errorf("%w: %s is in %s", ErrBlockConflict, b.ID, owner)
		}
	}

	if _, err := tx.ExecContext(ctx, upsertDocument,
		d.ID, d.Title, d.RootID, d.CreatedAt.UnixMilli(), d.UpdatedAt.UnixMilli(),
	); err != nil {
		return fmt.Errorf("upsert document: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM blocks WHERE document_id = ?`, d.ID); err != nil {
		return fmt.Errorf("delete blocks: %w", err)
	}
	if err := insertBlocks(ctx, tx, d.ID, blocks); err != nil {
		return err
	}
	return tx.Commit()
}

func insertBlocks(ctx context.Context, tx *sql.Tx, documentID string, blocks []domain.BlockDTO) error {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO blocks (document_id, position, `+blockColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, b := range blocks {
		children := b.Children
		if children == nil {
			children = []string{}
		}
		childrenJSON, err := json.Marshal(children)
		if err != nil {
			return fmt.Errorf("encode children of %s: %w", b.ID, err)
		}
		if _, err := stmt.ExecContext(ctx,
			documentID, i, b.ID, b.Type, b.Title, b.Checked, b.Size, string(childrenJSON), b.CreatedAt, b.UpdatedAt,
		); err != nil {
			return fmt.Errorf("insert block %s: %w", b.ID, err)
		}
	}

	return nil
}

func scanBlock(r rowScanner) (domain.BlockDTO, error) {
	var (
		b            domain.BlockDTO
		childrenJSON string
	)
	if err := r.Scan(&b.ID, &b.Type, &b.Title, &b.Checked, &b.Size, &childrenJSON, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return b, err
	}
	if err := json.Unmarshal([]byte(childrenJSON), &b.Children); err != nil {
		return b, fmt.Errorf("decode children of %s: %w", b.ID, err)
	}
	if b.Children == nil {
		b.Children = []string{}
	}
	return b, nil
}

func requireAffected(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, sql.ErrNoRows)
	}
	return nil
}
