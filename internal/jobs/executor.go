package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shortsforge/ShortsForgeGuard/internal/guard"

	log "github.com/sirupsen/logrus"
)

// HTTPExecutor hands admitted jobs to an external converter service over
// HTTP. The call spans the whole conversion, so the concurrency slot stays
// held until the converter answers or the per-job deadline fires.
type HTTPExecutor struct {
	client   *http.Client
	endpoint string
}

// NewHTTPExecutor constructs an HTTPExecutor. timeout bounds one conversion
// call; zero leaves the deadline to the caller's context.
func NewHTTPExecutor(endpoint string, timeout time.Duration) *HTTPExecutor {
	return &HTTPExecutor{
		client:   &http.Client{Timeout: timeout},
		endpoint: endpoint,
	}
}

// convertRequest is the JSON payload sent to the converter service.
type convertRequest struct {
	JobID     string `json:"job_id"`
	SourceURL string `json:"source_url"`
	ChatID    string `json:"chat_id,omitempty"`
}

// Execute implements Executor.
func (e *HTTPExecutor) Execute(ctx context.Context, job Job) error {
	payload, errMarshal := json.Marshal(convertRequest{
		JobID:     job.ID,
		SourceURL: job.SourceURL,
		ChatID:    job.ChatID,
	})
	if errMarshal != nil {
		return fmt.Errorf("marshal convert request: %w", errMarshal)
	}

	req, errReq := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(payload))
	if errReq != nil {
		return fmt.Errorf("build convert request: %w", errReq)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, errDo := e.client.Do(req)
	if errDo != nil {
		return fmt.Errorf("call converter: %w", errDo)
	}
	defer func() {
		if errClose := resp.Body.Close(); errClose != nil {
			log.WithError(errClose).Debug("close converter response body")
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("converter returned status %d", resp.StatusCode)
	}
	return nil
}

// LogExecutor is used when no converter endpoint is configured. It accepts
// the job and logs it so the rest of the pipeline stays exercisable in dev.
func LogExecutor() Executor {
	return ExecutorFunc(func(ctx context.Context, job Job) error {
		log.WithField("job_id", job.ID).
			WithField("source_url", job.SourceURL).
			Warn("no converter endpoint configured, job dropped")
		return nil
	})
}

// LogNotifier logs rejection notices. Deployments plug a chat transport in
// its place.
func LogNotifier() Notifier {
	return NotifierFunc(func(ctx context.Context, job Job, decision guard.Decision) {
		log.WithField("identity", job.Identity).
			WithField("job_id", job.ID).
			WithField("outcome", decision.Outcome.String()).
			WithField("retry_after", decision.RetryAfter.String()).
			Info("job rejected")
	})
}
