// Package tracer provides a lightweight tracing abstraction for the SDK.
//
// It defines a local tracer interface that doesn't depend directly on
// OpenTelemetry APIs, so submission and polling code can emit spans while
// staying decoupled from a specific tracing implementation.
//
// Implementations:
//   - NoopTracer: for tests and callers that don't trace (zero overhead)
//   - OTelTracer: OpenTelemetry adapter for production
package tracer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Span represents an active trace span.
type Span interface {
	// End completes the span, recording any error that occurred.
	// End must be called exactly once, typically via defer.
	End(err error)

	// SetAttributes adds key-value pairs to the span.
	SetAttributes(attrs ...Attribute)

	// AddEvent records a timestamped event within the span.
	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans. Implementations must be safe for concurrent use.
type Tracer interface {
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Attribute represents a key-value pair attached to spans.
type Attribute struct {
	Key   string
	Value any
}

// String creates a string attribute.
func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

// Bool creates a boolean attribute.
func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

// Int creates an integer attribute.
func Int(key string, value int) Attribute {
	return Attribute{Key: key, Value: int64(value)}
}

// Duration creates a duration attribute in milliseconds.
func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value.Milliseconds()}
}

// HashUserID returns a truncated SHA-256 hash of a user id for safe trace
// correlation without exposing the raw identifier.
func HashUserID(userID string) string {
	if userID == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(userID))
	return hex.EncodeToString(hash[:8])
}

// Span names used by the SDK.
const (
	SpanSubmit   = "job.submit"
	SpanUpload   = "job.upload"
	SpanPoll     = "job.poll"
	SpanIDLookup = "job.id_lookup"
)

// Attribute keys used by the SDK.
const (
	AttrJobType = "job_type"
	AttrPathway = "pathway"
	AttrUserID  = "user_id"
	AttrJobID   = "job_id"
)
