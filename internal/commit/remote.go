package commit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/kovancilartr/quizclip/pkg/logger"
	"github.com/kovancilartr/quizclip/pkg/models"
)

// questionMeta is the per-item metadata array, aligned by position with the
// uploaded images.
type questionMeta struct {
	Difficulty    *int           `json:"difficulty"`
	CorrectAnswer *models.Answer `json:"correctAnswer"`
}

type batchResponse struct {
	Questions []models.QuestionRecord `json:"questions"`
}

// RemoteStrategy uploads the whole batch in one multipart request. Any
// failure is returned to the caller; the queue stays intact for retry.
// Request timeouts belong to the backend, none are enforced here.
type RemoteStrategy struct {
	baseURL string
	token   string
	client  *http.Client
	log     *logger.Logger
}

func NewRemoteStrategy(baseURL, token string, log *logger.Logger) *RemoteStrategy {
	return &RemoteStrategy{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{},
		log:     log,
	}
}

func (s *RemoteStrategy) Commit(ctx context.Context, items []models.PendingQuestion) ([]models.QuestionRecord, error) {
	body, contentType, err := buildBatchRequest(items)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/questions/batch", body)
	if err != nil {
		return nil, fmt.Errorf("failed to build upload request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("upload rejected: %s: %s", resp.Status, bytes.TrimSpace(detail))
	}

	var result batchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to parse upload response: %w", err)
	}

	s.log.Debug("server created %d question records", len(result.Questions))
	return result.Questions, nil
}

func buildBatchRequest(items []models.PendingQuestion) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	meta := make([]questionMeta, 0, len(items))
	for i, item := range items {
		part, err := w.CreateFormFile("images", fmt.Sprintf("question_%d.png", i+1))
		if err != nil {
			return nil, "", fmt.Errorf("failed to build multipart body: %w", err)
		}
		if _, err := part.Write(item.Preview); err != nil {
			return nil, "", fmt.Errorf("failed to write image %d: %w", i+1, err)
		}
		meta = append(meta, questionMeta{
			Difficulty:    item.Difficulty,
			CorrectAnswer: item.CorrectAnswer,
		})
	}

	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode metadata: %w", err)
	}
	if err := w.WriteField("metadata", string(metaJSON)); err != nil {
		return nil, "", fmt.Errorf("failed to write metadata field: %w", err)
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}

	return &buf, w.FormDataContentType(), nil
}
