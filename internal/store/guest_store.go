package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/kovancilartr/quizclip/pkg/models"
)

// GuestStore holds locally committed question records for guest projects.
// Each record is self-contained: the image travels as a data URI.
type GuestStore struct {
	db *sql.DB
}

func NewGuestStore(db *sql.DB) *GuestStore {
	return &GuestStore{db: db}
}

// Append adds a record at the next position for its project.
func (s *GuestStore) Append(rec models.QuestionRecord) error {
	var difficulty interface{}
	if rec.Difficulty != nil {
		difficulty = *rec.Difficulty
	}
	var answer interface{}
	if rec.CorrectAnswer != nil {
		answer = string(*rec.CorrectAnswer)
	}

	_, err := s.db.Exec(`INSERT INTO guest_questions (id, project_id, position, image_uri, difficulty, correct_answer, created_at)
		VALUES (?, ?, (SELECT COALESCE(MAX(position), 0) + 1 FROM guest_questions WHERE project_id = ?), ?, ?, ?, ?)`,
		rec.ID, rec.ProjectID, rec.ProjectID, rec.ImageURI, difficulty, answer, rec.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to append guest question: %w", err)
	}
	return nil
}

// List returns a project's records in append order.
func (s *GuestStore) List(projectID string) ([]models.QuestionRecord, error) {
	rows, err := s.db.Query(`SELECT id, image_uri, difficulty, correct_answer, created_at
		FROM guest_questions WHERE project_id = ? ORDER BY position`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list guest questions: %w", err)
	}
	defer rows.Close()

	var records []models.QuestionRecord
	for rows.Next() {
		rec := models.QuestionRecord{ProjectID: projectID}
		var difficulty sql.NullInt64
		var answer sql.NullString
		var createdAt int64
		if err := rows.Scan(&rec.ID, &rec.ImageURI, &difficulty, &answer, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan guest question: %w", err)
		}
		if difficulty.Valid {
			d := int(difficulty.Int64)
			rec.Difficulty = &d
		}
		if answer.Valid {
			a := models.Answer(answer.String)
			rec.CorrectAnswer = &a
		}
		rec.CreatedAt = time.Unix(createdAt, 0)
		records = append(records, rec)
	}

	return records, rows.Err()
}
