package recorder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Submission is the payload accepted by the submission sink.
type Submission struct {
	Time  string `json:"time"`
	Event string `json:"event"`
}

// Sink posts encoded events to the external submission endpoint. Failures
// are transient from the encoder's point of view: answer state is never
// touched here, so a retry needs no re-entry.
type Sink struct {
	url    string
	client *http.Client
	log    *zap.Logger
}

// NewSink creates a sink client for the given endpoint URL.
func NewSink(url string, timeout time.Duration, log *zap.Logger) *Sink {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Sink{
		url:    url,
		client: &http.Client{Timeout: timeout},
		log:    log,
	}
}

// Submit posts one (timestamp, encoded event) pair. Any non-2xx status is
// reported as an error; no response payload is consumed.
func (s *Sink) Submit(ctx context.Context, sub Submission) error {
	body, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("marshal submission: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post event: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("sink status: %d", resp.StatusCode)
	}
	s.log.Debug("submission accepted", zap.String("time", sub.Time), zap.String("event", sub.Event))
	return nil
}
