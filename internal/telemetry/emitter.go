// Package telemetry reports accepted crop geometry to the detection-model
// feedback endpoint. Delivery is fire-and-forget: at most once, never
// retried, never surfaced to the operator.
package telemetry

import (
	"bytes"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/kovancilartr/quizclip/pkg/logger"
	"github.com/kovancilartr/quizclip/pkg/models"
)

type cropReport struct {
	Rect       models.Rect `json:"rect"`
	PageWidth  int         `json:"pageWidth"`
	PageHeight int         `json:"pageHeight"`
	Timestamp  time.Time   `json:"timestamp"`
}

// Emitter posts anonymized crop geometry in detached goroutines. Failures
// are logged for diagnostics only; the crop-acceptance flow that triggers a
// report never blocks on it.
type Emitter struct {
	endpoint string
	client   *http.Client
	log      *logger.Logger
	wg       sync.WaitGroup
}

func NewEmitter(endpoint string, log *logger.Logger) *Emitter {
	return &Emitter{
		endpoint: endpoint,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log,
	}
}

// Report spawns a detached send and returns immediately.
func (e *Emitter) Report(rect models.Rect, surfaceWidth, surfaceHeight int, at time.Time) {
	if e.endpoint == "" {
		return
	}

	report := cropReport{
		Rect:       rect,
		PageWidth:  surfaceWidth,
		PageHeight: surfaceHeight,
		Timestamp:  at,
	}

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.send(report)
	}()
}

func (e *Emitter) send(report cropReport) {
	body, err := json.Marshal(report)
	if err != nil {
		e.log.Debug("telemetry encode failed: %v", err)
		return
	}

	resp, err := e.client.Post(e.endpoint, "application/json", bytes.NewReader(body))
	if err != nil {
		e.log.Debug("telemetry send failed: %v", err)
		return
	}
	resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		e.log.Debug("telemetry rejected: %s", resp.Status)
	}
}

// Wait blocks until every in-flight report has finished. Used on shutdown.
func (e *Emitter) Wait() {
	e.wg.Wait()
}
