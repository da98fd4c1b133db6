// Package commit flushes the pending queue into durable question records,
// either through the backend API (authenticated) or the local guest store.
package commit

import (
	"context"
	"fmt"

	"github.com/kovancilartr/quizclip/internal/queue"
	"github.com/kovancilartr/quizclip/internal/store"
	"github.com/kovancilartr/quizclip/pkg/logger"
	"github.com/kovancilartr/quizclip/pkg/models"
)

// Mode selects the commit strategy, once per session. There is no
// id-prefix sniffing: the caller states the mode explicitly.
type Mode int

const (
	ModeGuest Mode = iota
	ModeAuthenticated
)

// Strategy converts pending questions into committed records.
type Strategy interface {
	Commit(ctx context.Context, items []models.PendingQuestion) ([]models.QuestionRecord, error)
}

// Cache is the remote question cache invalidated after an authenticated
// commit.
type Cache interface {
	Invalidate(projectID string)
}

// ServiceConfig wires a Service for one project session.
type ServiceConfig struct {
	ProjectID string
	Mode      Mode

	// Guest mode.
	GuestStore *store.GuestStore
	Optimizer  Optimizer

	// Authenticated mode.
	BaseURL   string
	AuthToken string
	Cache     Cache

	Log *logger.Logger
}

// Service commits the pending queue and clears it on success. A failed
// authenticated commit leaves the queue untouched for operator retry.
type Service struct {
	projectID string
	mode      Mode
	strategy  Strategy
	cache     Cache
	records   []models.QuestionRecord
	log       *logger.Logger
}

func NewService(cfg ServiceConfig) (*Service, error) {
	s := &Service{
		projectID: cfg.ProjectID,
		mode:      cfg.Mode,
		cache:     cfg.Cache,
		log:       cfg.Log,
	}

	switch cfg.Mode {
	case ModeGuest:
		if cfg.GuestStore == nil {
			return nil, fmt.Errorf("guest mode requires a guest store")
		}
		s.strategy = NewLocalStrategy(cfg.ProjectID, cfg.GuestStore, cfg.Optimizer, cfg.Log)
	case ModeAuthenticated:
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("authenticated mode requires an API base URL")
		}
		s.strategy = NewRemoteStrategy(cfg.BaseURL, cfg.AuthToken, cfg.Log)
	default:
		return nil, fmt.Errorf("unknown commit mode %d", cfg.Mode)
	}

	return s, nil
}

// Commit flushes the queue through the session's strategy. On success the
// queue is cleared in full and the created records are merged into the
// service's record list.
func (s *Service) Commit(ctx context.Context, q *queue.Queue) ([]models.QuestionRecord, error) {
	items := q.Items()
	if len(items) == 0 {
		return nil, nil
	}

	records, err := s.strategy.Commit(ctx, items)
	if err != nil {
		return nil, fmt.Errorf("failed to commit %d pending questions: %w", len(items), err)
	}

	s.records = append(s.records, records...)

	if s.mode == ModeAuthenticated && s.cache != nil {
		s.cache.Invalidate(s.projectID)
	}

	if err := q.Clear(); err != nil {
		s.log.Warn("committed but failed to clear queue: %v", err)
	}

	s.log.Info("committed %d questions for project %s", len(records), s.projectID)
	return records, nil
}

// Records returns every record committed through this service instance.
func (s *Service) Records() []models.QuestionRecord {
	records := make([]models.QuestionRecord, len(s.records))
	copy(records, s.records)
	return records
}
