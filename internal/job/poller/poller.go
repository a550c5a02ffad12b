// Package poller implements the asynchronous completion loop: it queries the
// job status endpoint with a fixed back-off schedule until the job reaches a
// terminal state or the attempt budget runs out.
package poller

import (
	"context"
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"

	"verid/internal/job/metrics"
	"verid/internal/job/models"
	"verid/internal/signature"
	dErrors "verid/pkg/domain-errors"
)

// The fixed retry policy. The first few queries come quickly because most
// jobs finish fast; the rest are spaced out to roughly 80 seconds of total
// budget.
const (
	maxAttempts    = 21
	shortDelay     = 2 * time.Second
	longDelay      = 4 * time.Second
	shortDelayUpTo = 4 // attempts 1..4 use shortDelay
)

// StatusRequest identifies the job being polled.
type StatusRequest struct {
	UserID           string
	JobID            string
	ReturnHistory    bool
	ReturnImageLinks bool
}

// StatusClient issues one signed status query. The transport client satisfies
// this through a thin wrapper; tests substitute their own.
type StatusClient interface {
	JobStatus(ctx context.Context, body StatusBody) (*models.JobStatusResponse, error)
}

// StatusBody is the wire payload of one status query.
type StatusBody struct {
	UserID     string `json:"user_id"`
	JobID      string `json:"job_id"`
	PartnerID  string `json:"partner_id"`
	History    bool   `json:"history"`
	ImageLinks bool   `json:"image_links"`
	Timestamp  string `json:"timestamp"`
	Signature  string `json:"signature"`
}

// Poller polls sequentially: one in-flight request per chain, never more.
type Poller struct {
	client    StatusClient
	partnerID string
	apiKey    string
	clock     clock.Clock
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

// Option configures the Poller.
type Option func(*Poller)

// WithClock injects a clock, keeping the retry schedule testable without
// wall-clock delays.
func WithClock(c clock.Clock) Option {
	return func(p *Poller) {
		p.clock = c
	}
}

// WithLogger sets the logger for the poller.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Poller) {
		p.logger = logger
	}
}

// WithMetrics sets the metrics sink for the poller.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Poller) {
		p.metrics = m
	}
}

// New creates a poller bound to the partner credentials.
func New(client StatusClient, partnerID, apiKey string, opts ...Option) *Poller {
	p := &Poller{
		client:    client,
		partnerID: partnerID,
		apiKey:    apiKey,
		clock:     clock.New(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Status issues a single signed status query and verifies the response's own
// signature before returning it.
func (p *Poller) Status(ctx context.Context, req StatusRequest) (*models.JobStatusResponse, error) {
	resp, err := p.query(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := p.checkIntegrity(resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Wait polls until the job completes, the 21-attempt budget is exhausted, or
// the context is done. Transport failures are retryable and consume the same
// attempt counter. A completed response whose signature does not verify fails
// the chain immediately.
func (p *Poller) Wait(ctx context.Context, req StatusRequest) (*models.JobStatusResponse, error) {
	start := p.clock.Now()
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		resp, err := p.query(ctx, req)
		switch {
		case err != nil && ctx.Err() != nil:
			return nil, dErrors.Wrap(err, dErrors.CodeTransport, "status query canceled")
		case err != nil:
			p.logger.Warn("status query failed, will retry",
				"job_id", req.JobID,
				"attempt", attempt,
				"error", err,
			)
		case resp.JobComplete:
			if err := p.checkIntegrity(resp); err != nil {
				return nil, err
			}
			if p.metrics != nil {
				p.metrics.ObservePollDuration(p.clock.Since(start))
			}
			return resp, nil
		}

		if attempt == maxAttempts {
			break
		}
		if err := p.sleep(ctx, delayFor(attempt)); err != nil {
			return nil, err
		}
	}
	if p.metrics != nil {
		p.metrics.ObservePollDuration(p.clock.Since(start))
	}
	return nil, dErrors.New(dErrors.CodePollTimeout, "job did not complete within the polling budget")
}

func (p *Poller) query(ctx context.Context, req StatusRequest) (*models.JobStatusResponse, error) {
	if p.metrics != nil {
		p.metrics.RecordPollAttempt()
	}
	envelope := signature.Generate(p.partnerID, p.apiKey, p.clock.Now())
	return p.client.JobStatus(ctx, StatusBody{
		UserID:     req.UserID,
		JobID:      req.JobID,
		PartnerID:  p.partnerID,
		History:    req.ReturnHistory,
		ImageLinks: req.ReturnImageLinks,
		Timestamp:  envelope.Timestamp,
		Signature:  envelope.Signature,
	})
}

// checkIntegrity recomputes the response signature from its stated timestamp
// and rejects bodies that do not match.
func (p *Poller) checkIntegrity(resp *models.JobStatusResponse) error {
	if !signature.Verify(p.partnerID, p.apiKey, resp.Timestamp, resp.Signature) {
		return dErrors.New(dErrors.CodeResponseIntegrity, "job status response signature did not verify")
	}
	return nil
}

func (p *Poller) sleep(ctx context.Context, d time.Duration) error {
	t := p.clock.Timer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return dErrors.Wrap(ctx.Err(), dErrors.CodeTransport, "polling canceled")
	}
}

// delayFor returns the fixed back-off after the given attempt number.
func delayFor(attempt int) time.Duration {
	if attempt <= shortDelayUpTo {
		return shortDelay
	}
	return longDelay
}
