package models

import (
	"fmt"
	"time"
)

// Answer is a multiple-choice answer key.
type Answer string

const (
	AnswerA Answer = "A"
	AnswerB Answer = "B"
	AnswerC Answer = "C"
	AnswerD Answer = "D"
	AnswerE Answer = "E"
)

func (a Answer) Valid() bool {
	switch a {
	case AnswerA, AnswerB, AnswerC, AnswerD, AnswerE:
		return true
	}
	return false
}

// PendingQuestion is an accepted crop waiting in the pending queue for
// commit. Preview holds the encoded (PNG) question image; SourceRect is the
// crop rectangle in the surface's backing pixel space.
type PendingQuestion struct {
	ID            string  `json:"id"`
	DocumentID    string  `json:"documentId"`
	DocumentName  string  `json:"documentName"`
	Preview       []byte  `json:"preview"`
	SourceRect    Rect    `json:"sourceRect"`
	PageNumber    int     `json:"pageNumber"`
	Difficulty    *int    `json:"difficulty,omitempty"`
	CorrectAnswer *Answer `json:"correctAnswer,omitempty"`
}

func (q PendingQuestion) Validate() error {
	if q.ID == "" {
		return fmt.Errorf("pending question has no id")
	}
	if len(q.Preview) == 0 {
		return fmt.Errorf("pending question %s has an empty preview", q.ID)
	}
	if q.CorrectAnswer != nil && !q.CorrectAnswer.Valid() {
		return fmt.Errorf("pending question %s has invalid answer %q", q.ID, *q.CorrectAnswer)
	}
	return nil
}

// QuestionRecord is a committed question, either created by the backend
// (authenticated commit) or assigned locally (guest commit).
type QuestionRecord struct {
	ID            string    `json:"id"`
	ProjectID     string    `json:"projectId"`
	ImageURI      string    `json:"imageUri"`
	Difficulty    *int      `json:"difficulty,omitempty"`
	CorrectAnswer *Answer   `json:"correctAnswer,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}
