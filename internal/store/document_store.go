package store

import (
	"database/sql"
	"fmt"
	"time"
)

// StoredDocument is a raw source file kept for cross-session restoration.
type StoredDocument struct {
	ID      string
	Name    string
	Size    int64
	Data    []byte
	AddedAt time.Time
}

// DocumentStore keeps the raw bytes of every loaded source document so a
// later session can re-parse them.
type DocumentStore struct {
	db *sql.DB
}

func NewDocumentStore(db *sql.DB) *DocumentStore {
	return &DocumentStore{db: db}
}

func (s *DocumentStore) Put(projectID string, doc StoredDocument) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO documents (id, project_id, name, size, data, added_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		doc.ID, projectID, doc.Name, doc.Size, doc.Data, doc.AddedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to store document %s: %w", doc.Name, err)
	}
	return nil
}

// List returns a project's documents in the order they were added.
func (s *DocumentStore) List(projectID string) ([]StoredDocument, error) {
	rows, err := s.db.Query(`SELECT id, name, size, data, added_at
		FROM documents WHERE project_id = ? ORDER BY rowid`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []StoredDocument
	for rows.Next() {
		var doc StoredDocument
		var addedAt int64
		if err := rows.Scan(&doc.ID, &doc.Name, &doc.Size, &doc.Data, &addedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		doc.AddedAt = time.Unix(addedAt, 0)
		docs = append(docs, doc)
	}

	return docs, rows.Err()
}

func (s *DocumentStore) Delete(projectID, id string) error {
	_, err := s.db.Exec(`DELETE FROM documents WHERE project_id = ? AND id = ?`, projectID, id)
	if err != nil {
		return fmt.Errorf("failed to delete document %s: %w", id, err)
	}
	return nil
}

func (s *DocumentStore) DeleteAll(projectID string) error {
	_, err := s.db.Exec(`DELETE FROM documents WHERE project_id = ?`, projectID)
	if err != nil {
		return fmt.Errorf("failed to clear documents: %w", err)
	}
	return nil
}
