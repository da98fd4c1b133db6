package commit

import (
	"bytes"
	"context"
	"encoding/base64"
	"image/png"
	"time"

	"github.com/google/uuid"

	"github.com/kovancilartr/quizclip/internal/store"
	"github.com/kovancilartr/quizclip/pkg/logger"
	"github.com/kovancilartr/quizclip/pkg/models"
)

// Optimizer recompresses an encoded preview before guest storage. The
// real implementation lives outside this module; commits fall back to the
// unoptimized image when it fails.
type Optimizer interface {
	Optimize(data []byte) ([]byte, error)
}

type noopOptimizer struct{}

func (noopOptimizer) Optimize(data []byte) ([]byte, error) { return data, nil }

// LocalStrategy converts pending questions into guest records, strictly
// sequentially so a failure partway through leaves earlier items committed.
type LocalStrategy struct {
	projectID string
	store     *store.GuestStore
	optimizer Optimizer
	log       *logger.Logger
}

func NewLocalStrategy(projectID string, guestStore *store.GuestStore, optimizer Optimizer, log *logger.Logger) *LocalStrategy {
	if optimizer == nil {
		optimizer = noopOptimizer{}
	}
	return &LocalStrategy{
		projectID: projectID,
		store:     guestStore,
		optimizer: optimizer,
		log:       log,
	}
}

// Commit processes each item in order. An undecodable preview skips that
// item and the batch continues; an optimization failure stores the raw
// preview instead. Neither is surfaced to the operator.
func (s *LocalStrategy) Commit(ctx context.Context, items []models.PendingQuestion) ([]models.QuestionRecord, error) {
	var records []models.QuestionRecord

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return records, err
		}

		if _, err := png.Decode(bytes.NewReader(item.Preview)); err != nil {
			s.log.Warn("skipping guest question %s: preview not decodable: %v", item.ID, err)
			continue
		}

		data := item.Preview
		if optimized, err := s.optimizer.Optimize(data); err != nil {
			s.log.Debug("optimization failed for %s, storing original image: %v", item.ID, err)
		} else {
			data = optimized
		}

		rec := models.QuestionRecord{
			ID:            uuid.NewString(),
			ProjectID:     s.projectID,
			ImageURI:      "data:image/png;base64," + base64.StdEncoding.EncodeToString(data),
			Difficulty:    item.Difficulty,
			CorrectAnswer: item.CorrectAnswer,
			CreatedAt:     time.Now(),
		}

		if err := s.store.Append(rec); err != nil {
			s.log.Warn("failed to store guest question %s: %v", item.ID, err)
			continue
		}

		records = append(records, rec)
	}

	return records, nil
}
