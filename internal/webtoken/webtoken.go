// Package webtoken obtains hosted-session tokens for web and mobile
// integrations that embed the verification flow.
package webtoken

import (
	"context"
	"time"

	"github.com/google/uuid"

	"verid/internal/signature"
	"verid/internal/transport"
	dErrors "verid/pkg/domain-errors"
)

// Client requests hosted-session tokens.
type Client struct {
	api         *transport.Client
	partnerID   string
	apiKey      string
	callbackURL string
	now         func() time.Time
}

// Option configures the Client.
type Option func(*Client)

// WithNow injects the time source (for testing).
func WithNow(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// New creates a token client. callbackURL is the instance default used when a
// request does not carry its own.
func New(api *transport.Client, partnerID, apiKey, callbackURL string, opts ...Option) *Client {
	c := &Client{
		api:         api,
		partnerID:   partnerID,
		apiKey:      apiKey,
		callbackURL: callbackURL,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Request identifies the hosted session being opened.
type Request struct {
	UserID      string
	JobID       string
	Product     string
	CallbackURL string
}

type tokenBody struct {
	UserID      string `json:"user_id"`
	JobID       string `json:"job_id"`
	Product     string `json:"product"`
	CallbackURL string `json:"callback_url"`
	Signature   string `json:"signature"`
	Timestamp   string `json:"timestamp"`
	PartnerID   string `json:"partner_id"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// Token requests a hosted-session token. An empty job id is defaulted to a
// generated one; user id, product and a usable callback are required.
func (c *Client) Token(ctx context.Context, req Request) (string, error) {
	if req.UserID == "" {
		return "", dErrors.New(dErrors.CodeValidation, "user_id is required to get a web token")
	}
	if req.Product == "" {
		return "", dErrors.New(dErrors.CodeValidation, "product is required to get a web token")
	}
	callback := req.CallbackURL
	if callback == "" {
		callback = c.callbackURL
	}
	if callback == "" {
		return "", dErrors.New(dErrors.CodeValidation, "callback_url is required to get a web token")
	}
	jobID := req.JobID
	if jobID == "" {
		jobID = "job-" + uuid.NewString()
	}

	envelope := signature.Generate(c.partnerID, c.apiKey, c.now())
	var resp tokenResponse
	err := c.api.PostJSON(ctx, "/token", tokenBody{
		UserID:      req.UserID,
		JobID:       jobID,
		Product:     req.Product,
		CallbackURL: callback,
		Signature:   envelope.Signature,
		Timestamp:   envelope.Timestamp,
		PartnerID:   envelope.PartnerID,
	}, &resp)
	if err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", dErrors.New(dErrors.CodeTransport, "token response carried no token")
	}
	return resp.Token, nil
}
