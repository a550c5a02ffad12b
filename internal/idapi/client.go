// Package idapi implements the ID-lookup pathway: enhanced-KYC and
// business-verification jobs are a single signed POST against an identity
// registry, with no image handling and no polling.
package idapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"verid/internal/job/models"
	"verid/internal/job/validate"
	"verid/internal/signature"
	"verid/internal/transport"
	dErrors "verid/pkg/domain-errors"
	"verid/pkg/platform/circuit"
)

// Client submits ID-lookup verifications. The remote registries behind these
// endpoints have real outages, so calls run behind a circuit breaker: while
// the circuit is open, failures surface as unavailability rather than raw
// transport errors, and successful probes close it again.
type Client struct {
	api       *transport.Client
	partnerID string
	apiKey    string
	breaker   *circuit.Breaker
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures the Client.
type Option func(*Client)

// WithLogger sets the logger for the client.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithBreaker injects a pre-configured circuit breaker.
func WithBreaker(b *circuit.Breaker) Option {
	return func(c *Client) {
		c.breaker = b
	}
}

// WithNow injects the time source (for testing).
func WithNow(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// New creates an ID-lookup client bound to the partner credentials.
func New(api *transport.Client, partnerID, apiKey string, opts ...Option) *Client {
	c := &Client{
		api:       api,
		partnerID: partnerID,
		apiKey:    apiKey,
		breaker:   circuit.New("idapi"),
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Request is one ID-lookup verification.
type Request struct {
	PartnerParams models.PartnerParams
	IDInfo        models.IDInfo
}

// verificationBody is the wire payload of an ID-lookup verification.
type verificationBody struct {
	Signature     string               `json:"signature"`
	Timestamp     string               `json:"timestamp"`
	PartnerID     string               `json:"partner_id"`
	PartnerParams models.PartnerParams `json:"partner_params"`
	Country       string               `json:"country"`
	IDType        string               `json:"id_type"`
	IDNumber      string               `json:"id_number"`
	FirstName     string               `json:"first_name,omitempty"`
	MiddleName    string               `json:"middle_name,omitempty"`
	LastName      string               `json:"last_name,omitempty"`
	DOB           string               `json:"dob,omitempty"`
	PhoneNumber   string               `json:"phone_number,omitempty"`
}

// Verify validates the request, signs it and posts it to the verification
// endpoint matching the job type. The raw result body is returned so callers
// keep every field the registry supplied.
func (c *Client) Verify(ctx context.Context, req Request) (json.RawMessage, error) {
	if err := validate.PartnerParams(&req.PartnerParams); err != nil {
		return nil, err
	}
	if req.IDInfo.Country == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "Please make sure that country is included in the id_info")
	}
	if req.IDInfo.IDType == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "Please make sure that id_type is included in the id_info")
	}
	if req.IDInfo.IDNumber == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "Please make sure that id_number is included in the id_info")
	}

	path := "/id_verification"
	if req.PartnerParams.JobType == models.JobTypeBusinessVerification {
		path = "/business_verification"
	}

	envelope := signature.Generate(c.partnerID, c.apiKey, c.now())
	body := verificationBody{
		Signature:     envelope.Signature,
		Timestamp:     envelope.Timestamp,
		PartnerID:     c.partnerID,
		PartnerParams: req.PartnerParams,
		Country:       req.IDInfo.Country,
		IDType:        req.IDInfo.IDType,
		IDNumber:      req.IDInfo.IDNumber,
		FirstName:     req.IDInfo.FirstName,
		MiddleName:    req.IDInfo.MiddleName,
		LastName:      req.IDInfo.LastName,
		DOB:           req.IDInfo.DOB,
		PhoneNumber:   req.IDInfo.PhoneNumber,
	}

	wasOpen := c.breaker.IsOpen()
	var result json.RawMessage
	if err := c.api.PostJSON(ctx, path, body, &result); err != nil {
		if c.breaker.RecordFailure() && wasOpen {
			// Not Wrap: the unavailability code must replace the transport code.
			return nil, &dErrors.Error{
				Code:    dErrors.CodeUnavailable,
				Message: "id verification service unavailable",
				Err:     err,
			}
		}
		return nil, err
	}
	if c.breaker.RecordSuccess() {
		c.logger.Info("id verification circuit closed", "breaker", c.breaker.Name())
	}
	return result, nil
}
