// Package upload implements the image-submission pathway: it requests an
// upload destination from the service, packages the image set plus metadata
// into a single archive, and transfers it.
package upload

import (
	"context"
	"errors"
	"log/slog"

	"verid/internal/job/metrics"
	"verid/internal/job/models"
	"verid/internal/sentinel"
	"verid/internal/signature"
	"verid/internal/transport"
	dErrors "verid/pkg/domain-errors"
)

const archiveFileName = "attachments.zip"

// sourceSDK identifies this client to the service in upload requests.
const (
	sourceSDK        = "verid-go"
	sourceSDKVersion = "1.0.0"
)

// Coordinator drives one upload-pathway submission.
type Coordinator struct {
	api     *transport.Client
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option configures the Coordinator.
type Option func(*Coordinator)

// WithLogger sets the logger for the coordinator.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

// WithMetrics sets the metrics sink for the coordinator.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Coordinator) {
		c.metrics = m
	}
}

// New creates an upload coordinator on top of the shared transport client.
func New(api *transport.Client, opts ...Option) *Coordinator {
	c := &Coordinator{
		api:    api,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Request is one validated, signed upload-pathway submission.
type Request struct {
	Envelope      signature.Envelope
	PartnerParams models.PartnerParams
	IDInfo        models.IDInfo
	Images        []models.Image
	CallbackURL   string
}

// Result reports where the archive landed and the job it belongs to.
type Result struct {
	JobID     string
	UploadURL string
}

// uploadRequest asks the service for an upload destination.
type uploadRequest struct {
	FileName         string               `json:"file_name"`
	Signature        string               `json:"signature"`
	Timestamp        string               `json:"timestamp"`
	PartnerID        string               `json:"smile_client_id"`
	PartnerParams    models.PartnerParams `json:"partner_params"`
	CallbackURL      string               `json:"callback_url"`
	SourceSDK        string               `json:"source_sdk"`
	SourceSDKVersion string               `json:"source_sdk_version"`
}

// Submit requests a destination, builds the archive and transfers it.
// The archive is assembled (and every image file read) before any byte goes
// over the wire, so a local failure leaves no partial remote state beyond the
// destination request itself.
func (c *Coordinator) Submit(ctx context.Context, req Request) (*Result, error) {
	body := uploadRequest{
		FileName:         archiveFileName,
		Signature:        req.Envelope.Signature,
		Timestamp:        req.Envelope.Timestamp,
		PartnerID:        req.Envelope.PartnerID,
		PartnerParams:    req.PartnerParams,
		CallbackURL:      req.CallbackURL,
		SourceSDK:        sourceSDK,
		SourceSDKVersion: sourceSDKVersion,
	}

	var dest models.UploadResponse
	if err := c.api.PostJSON(ctx, "/upload", body, &dest); err != nil {
		// Wrap keeps the transport code of remote failures; CodeUploadRequest
		// marks only failures of this step with no more specific cause, like
		// the missing-URL response below. Don't match on it for destination
		// errors.
		return nil, dErrors.Wrap(err, dErrors.CodeUploadRequest, "failed to request upload destination")
	}
	if dest.UploadURL == "" {
		return nil, dErrors.New(dErrors.CodeUploadRequest, "upload destination response carried no upload_url")
	}

	archive, err := buildArchive(req.Envelope, req.PartnerParams, req.IDInfo, req.Images, req.CallbackURL)
	if err != nil {
		return nil, err
	}
	if c.metrics != nil {
		c.metrics.ObserveArchiveBytes(len(archive))
	}

	if err := c.api.Put(ctx, dest.UploadURL, "application/zip", archive); err != nil {
		if errors.Is(err, sentinel.ErrBadStatus) {
			return nil, dErrors.New(dErrors.CodeUploadTransfer, "upload transfer did not report success")
		}
		return nil, err
	}

	c.logger.Info("upload transferred",
		"job_id", dest.JobID,
		"archive_bytes", len(archive),
	)
	return &Result{JobID: dest.JobID, UploadURL: dest.UploadURL}, nil
}
