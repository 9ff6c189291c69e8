package storage

import (
	"context"
	"fmt"
	"time"

	"blocknotes/internal/domain"
)

// DocumentStore persists document metadata in SQLite.
type DocumentStore struct {
	db *DB
}

func NewDocumentStore(db *DB) *DocumentStore {
	return &DocumentStore{db: db}
}

const documentColumns = `id, title, root_id, created_at, updated_at`

// upsertDocument writes a document as given, keeping its timestamps.
const upsertDocument = `INSERT INTO documents (` + documentColumns + `) VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET title = excluded.title, root_id = excluded.root_id,
	created_at = excluded.created_at, updated_at = excluded.updated_at`

func (s *DocumentStore) CreateDocument(ctx context.Context, d *domain.Document) error {
	now := domain.Timestamp(time.Now())
	d.CreatedAt = now
	d.UpdatedAt = now
	_, err := s.db.conn.ExecContext(ctx,
		`INSERT INTO documents (`+documentColumns+`) VALUES (?, ?, ?, ?, ?)`,
		d.ID, d.Title, d.RootID, d.CreatedAt.UnixMilli(), d.UpdatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("create document: %w", err)
	}
	return nil
}

func (s *DocumentStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := s.db.conn.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = ?`, id)
	d, err := scanDocument(row)
	if err != nil {
		return nil, fmt.Errorf("get document %s: %w", id, err)
	}
	return d, nil
}

func (s *DocumentStore) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	rows, err := s.db.conn.QueryContext(ctx, `SELECT `+documentColumns+` FROM documents ORDER BY updated_at DESC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *d)
	}
	return docs, rows.Err()
}

func (s *DocumentStore) UpdateDocument(ctx context.Context, d *domain.Document) error {
	d.UpdatedAt = domain.Timestamp(time.Now())
	res, err := s.db.conn.ExecContext(ctx,
		`UPDATE documents SET title = ?, updated_at = ? WHERE id = ?`,
		d.Title, d.UpdatedAt.UnixMilli(), d.ID,
	)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	return requireAffected(res, "document", d.ID)
}

// DeleteDocument removes a document together with its blocks.
func (s *DocumentStore) DeleteDocument(ctx context.Context, id string) error {
	tx, err := s.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM blocks WHERE document_id = ?`, id); err != nil {
		return fmt.Errorf("delete blocks: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if err := requireAffected(res, "document", id); err != nil {
		return err
	}
	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(r rowScanner) (*domain.Document, error) {
	var (
		d                    domain.Document
		createdAt, updatedAt int64
	)
	if err := r.Scan(&d.ID, &d.Title, &d.RootID, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	d.CreatedAt = time.UnixMilli(createdAt).UTC()
	d.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return &d, nil
}
