package service

import (
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"

	"verid/internal/job/metrics"
	"verid/internal/platform/tracer"
	"verid/internal/transport"
)

// serviceConfig holds optional dependencies for the service.
type serviceConfig struct {
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  tracer.Tracer
	clock   clock.Clock
	doer    transport.Doer
	now     func() time.Time

	// test seams: pre-built collaborators replace the defaults when set
	uploader Uploader
	poller   StatusPoller
	idapi    IDVerifier
}

// Option configures the service.
type Option func(c *serviceConfig)

// WithLogger sets the logger shared by the service and its collaborators.
func WithLogger(logger *slog.Logger) Option {
	return func(c *serviceConfig) {
		c.logger = logger
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *serviceConfig) {
		c.metrics = m
	}
}

// WithTracer sets the tracer. Defaults to a no-op tracer.
func WithTracer(t tracer.Tracer) Option {
	return func(c *serviceConfig) {
		c.tracer = t
	}
}

// WithClock injects the clock driving the polling schedule.
func WithClock(cl clock.Clock) Option {
	return func(c *serviceConfig) {
		c.clock = cl
	}
}

// WithHTTPDoer injects the HTTP client used for every remote call.
func WithHTTPDoer(d transport.Doer) Option {
	return func(c *serviceConfig) {
		c.doer = d
	}
}

// WithNow injects the time source used to stamp signatures.
func WithNow(now func() time.Time) Option {
	return func(c *serviceConfig) {
		c.now = now
	}
}

// WithUploader replaces the upload coordinator (for testing).
func WithUploader(u Uploader) Option {
	return func(c *serviceConfig) {
		c.uploader = u
	}
}

// WithStatusPoller replaces the status poller (for testing).
func WithStatusPoller(p StatusPoller) Option {
	return func(c *serviceConfig) {
		c.poller = p
	}
}

// WithIDVerifier replaces the ID-lookup client (for testing).
func WithIDVerifier(v IDVerifier) Option {
	return func(c *serviceConfig) {
		c.idapi = v
	}
}
