package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kovancilartr/quizclip/pkg/models"
)

// QueueStore persists full pending-queue snapshots per project.
// Last writer wins; no cross-session locking is attempted.
type QueueStore struct {
	db *sql.DB
}

func NewQueueStore(db *sql.DB) *QueueStore {
	return &QueueStore{db: db}
}

// Save replaces the stored snapshot for projectID with the given items.
func (s *QueueStore) Save(projectID string, items []models.PendingQuestion, at time.Time) error {
	payload, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to encode queue snapshot: %w", err)
	}

	_, err = s.db.Exec(`INSERT INTO pending_queue (project_id, payload, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(project_id) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		projectID, string(payload), at.Unix())
	if err != nil {
		return fmt.Errorf("failed to save queue snapshot: %w", err)
	}
	return nil
}

// Load returns the stored snapshot and its timestamp. A missing snapshot is
// not an error; it returns an empty slice and a zero time.
func (s *QueueStore) Load(projectID string) ([]models.PendingQuestion, time.Time, error) {
	var payload string
	var updatedAt int64
	err := s.db.QueryRow(`SELECT payload, updated_at FROM pending_queue WHERE project_id = ?`,
		projectID).Scan(&payload, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, time.Time{}, nil
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to load queue snapshot: %w", err)
	}

	var items []models.PendingQuestion
	if err := json.Unmarshal([]byte(payload), &items); err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to decode queue snapshot: %w", err)
	}

	return items, time.Unix(updatedAt, 0), nil
}

// Delete removes the stored snapshot for projectID, if any.
func (s *QueueStore) Delete(projectID string) error {
	_, err := s.db.Exec(`DELETE FROM pending_queue WHERE project_id = ?`, projectID)
	if err != nil {
		return fmt.Errorf("failed to delete queue snapshot: %w", err)
	}
	return nil
}
