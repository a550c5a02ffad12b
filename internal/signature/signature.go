// Package signature produces and checks the keyed, time-bound signature that
// authenticates every request to the verification service. Both directions use
// the same pure functions: outgoing envelopes are generated with Generate, and
// incoming bodies are checked by recomputing with Verify.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"time"

	dErrors "verid/pkg/domain-errors"
)

// WireTimeLayout is the timestamp representation placed on the wire and fed to
// the HMAC. The hashed bytes and the payload bytes are always identical.
const WireTimeLayout = "2006-01-02T15:04:05.000Z"

// payloadSuffix is the constant trailer the remote service expects in the
// signed string.
const payloadSuffix = "sid_request"

// Envelope is the timestamp+signature pair attached to every outbound payload.
type Envelope struct {
	PartnerID string `json:"partner_id"`
	Timestamp string `json:"timestamp"`
	Signature string `json:"signature"`
}

// Sign computes the request signature over (timestamp, partnerID) keyed by the
// api key. The timestamp must already be in wire representation.
func Sign(partnerID, apiKey, timestamp string) string {
	mac := hmac.New(sha256.New, []byte(apiKey))
	mac.Write([]byte(timestamp))
	mac.Write([]byte(partnerID))
	mac.Write([]byte(payloadSuffix))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// Verify recomputes the signature for (partnerID, apiKey, timestamp) and
// compares it against the provided one in constant time.
func Verify(partnerID, apiKey, timestamp, sig string) bool {
	expected := Sign(partnerID, apiKey, timestamp)
	return hmac.Equal([]byte(expected), []byte(sig))
}

// Generate builds a signed envelope for the given instant.
func Generate(partnerID, apiKey string, at time.Time) Envelope {
	ts := at.UTC().Format(WireTimeLayout)
	return Envelope{
		PartnerID: partnerID,
		Timestamp: ts,
		Signature: Sign(partnerID, apiKey, ts),
	}
}

// NormalizeTimestamp coerces caller-supplied timestamps into the wire
// representation. Parseable timestamp strings pass through unchanged so that a
// signature computed elsewhere over the same string still verifies. Numeric
// values are interpreted as epoch milliseconds.
func NormalizeTimestamp(v any) (string, error) {
	switch ts := v.(type) {
	case time.Time:
		return ts.UTC().Format(WireTimeLayout), nil
	case string:
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, WireTimeLayout} {
			if _, err := time.Parse(layout, ts); err == nil {
				return ts, nil
			}
		}
		return "", dErrors.New(dErrors.CodeInvalidTimestamp, fmt.Sprintf("%q is not a parseable timestamp", ts))
	case int:
		return epochMillis(float64(ts))
	case int64:
		return epochMillis(float64(ts))
	case float64:
		return epochMillis(ts)
	case json.Number:
		f, err := ts.Float64()
		if err != nil {
			return "", dErrors.New(dErrors.CodeInvalidTimestamp, fmt.Sprintf("%q is not a finite number", ts.String()))
		}
		return epochMillis(f)
	default:
		return "", dErrors.New(dErrors.CodeInvalidTimestamp, fmt.Sprintf("unsupported timestamp type %T", v))
	}
}

func epochMillis(ms float64) (string, error) {
	// int64(ms) is undefined for values outside the int64 range, so the bound
	// check must happen before the conversion.
	if math.IsNaN(ms) || math.IsInf(ms, 0) || ms < 0 || ms >= math.MaxInt64 {
		return "", dErrors.New(dErrors.CodeInvalidTimestamp, "epoch timestamp must be a non-negative finite number of milliseconds")
	}
	t := time.UnixMilli(int64(ms))
	return t.UTC().Format(WireTimeLayout), nil
}
