package integration

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

type statusResponse struct {
	Active        bool `json:"active"`
	Configured    bool `json:"configured"`
	UserSubmit    bool `json:"user_submit"`
	HandleOrQueue bool `json:"handle_or_queue"`
}

type submitRequest struct {
	UserID     int64 `json:"user_id"`
	Subscribed bool  `json:"subscribed"`
}

// HTTPIntegration talks to the integration's bridge endpoints:
//
//	GET  /status            integration presence and configuration
//	POST /jobs/user-submit  queue a user submission job
type HTTPIntegration struct {
	client *resty.Client
	logger *zap.Logger
}

// NewHTTPIntegration builds a client for baseURL. token is sent as a bearer
// token when non-empty. Retries are left to the integration's own queue.
func NewHTTPIntegration(baseURL, token string, timeout time.Duration, logger *zap.Logger) *HTTPIntegration {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Accept", "application/json")
	if token != "" {
		client.SetAuthToken(token)
	}
	return &HTTPIntegration{client: client, logger: logger}
}

// Status reports the integration as absent when the status call fails.
func (h *HTTPIntegration) Status(ctx context.Context) Status {
	var out statusResponse
	resp, err := h.client.R().
		SetContext(ctx).
		SetResult(&out).
		Get("/status")
	if err != nil {
		h.logger.Debug("integration status unreachable", zap.Error(err))
		return Status{}
	}
	if resp.IsError() {
		h.logger.Debug("integration status error", zap.Int("status", resp.StatusCode()))
		return Status{}
	}
	return Status{
		Present:         out.Active,
		Configured:      out.Active && out.Configured,
		SubmitAvailable: out.Active && out.UserSubmit && out.HandleOrQueue,
	}
}

func (h *HTTPIntegration) NewSubmissionJob(userID int64, subscribed bool) (SubmissionJob, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("user submission: invalid user id %d", userID)
	}
	return &httpSubmissionJob{client: h.client, req: submitRequest{UserID: userID, Subscribed: subscribed}}, nil
}

type httpSubmissionJob struct {
	client *resty.Client
	req    submitRequest
}

func (j *httpSubmissionJob) Handoff(ctx context.Context) error {
	resp, err := j.client.R().
		SetContext(ctx).
		SetBody(j.req).
		Post("/jobs/user-submit")
	if err != nil {
		return fmt.Errorf("queue user submission: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("queue user submission: unexpected status %d", resp.StatusCode())
	}
	return nil
}

// compile-time check that HTTPIntegration implements Integration
var _ Integration = (*HTTPIntegration)(nil)
