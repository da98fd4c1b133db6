// Package queue holds accepted crops awaiting commit. The queue is durable:
// every mutation snapshots the full contents to the project-scoped store,
// and a snapshot older than the freshness window is discarded wholesale on
// restore instead of being loaded.
package queue

import (
	"fmt"
	"time"

	"github.com/kovancilartr/quizclip/pkg/logger"
	"github.com/kovancilartr/quizclip/pkg/models"
)

// FreshnessWindow bounds how old a stored snapshot may be before it is
// thrown away at load time.
const FreshnessWindow = 30 * time.Minute

// Store persists full queue snapshots keyed by project.
type Store interface {
	Save(projectID string, items []models.PendingQuestion, at time.Time) error
	Load(projectID string) ([]models.PendingQuestion, time.Time, error)
	Delete(projectID string) error
}

// Queue is an insertion-ordered collection of pending questions for one
// project. Not safe for concurrent use; last writer wins in the store.
type Queue struct {
	projectID string
	items     []models.PendingQuestion
	store     Store
	log       *logger.Logger
}

// New opens the project's queue, restoring a stored snapshot if one exists
// and is still within the freshness window.
func New(projectID string, store Store, log *logger.Logger) (*Queue, error) {
	q := &Queue{
		projectID: projectID,
		store:     store,
		log:       log,
	}

	items, savedAt, err := store.Load(projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to restore queue for project %s: %w", projectID, err)
	}

	if len(items) > 0 {
		if time.Since(savedAt) < FreshnessWindow {
			q.items = items
			log.Debug("restored %d pending questions for project %s", len(items), projectID)
		} else {
			log.Info("discarding %d stale pending questions for project %s (saved %s ago)",
				len(items), projectID, time.Since(savedAt).Round(time.Minute))
			if err := store.Delete(projectID); err != nil {
				log.Warn("failed to drop stale queue snapshot: %v", err)
			}
		}
	}

	return q, nil
}

// Append adds an accepted crop to the end of the queue and persists the
// full snapshot.
func (q *Queue) Append(item models.PendingQuestion) error {
	if err := item.Validate(); err != nil {
		return err
	}

	q.items = append(q.items, item)
	if err := q.store.Save(q.projectID, q.items, time.Now()); err != nil {
		return fmt.Errorf("failed to persist queue: %w", err)
	}

	q.log.Debug("queued question %s (page %d), %d pending", item.ID, item.PageNumber, len(q.items))
	return nil
}

// Items returns the pending questions in acceptance order.
func (q *Queue) Items() []models.PendingQuestion {
	items := make([]models.PendingQuestion, len(q.items))
	copy(items, q.items)
	return items
}

func (q *Queue) Len() int {
	return len(q.items)
}

// Clear drops all pending questions and their stored snapshot. Clearing an
// already-empty queue is a no-op and performs no storage write.
func (q *Queue) Clear() error {
	if len(q.items) == 0 {
		return nil
	}

	q.items = nil
	if err := q.store.Delete(q.projectID); err != nil {
		return fmt.Errorf("failed to clear stored queue: %w", err)
	}

	q.log.Debug("cleared pending queue for project %s", q.projectID)
	return nil
}
