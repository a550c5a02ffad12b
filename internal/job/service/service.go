// Package service is the submission façade: given job parameters it selects
// the pathway for the job kind, runs the full validation front-load, and
// hands off to the upload coordinator or the ID-lookup client, optionally
// chaining into the status poller.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"verid/internal/idapi"
	"verid/internal/job/metrics"
	"verid/internal/job/models"
	"verid/internal/job/poller"
	"verid/internal/job/upload"
	"verid/internal/job/validate"
	"verid/internal/platform/tracer"
	"verid/internal/signature"
	"verid/internal/transport"
	"verid/internal/webtoken"
	dErrors "verid/pkg/domain-errors"
)

// Config carries the long-lived partner credentials and instance defaults.
type Config struct {
	PartnerID   string
	APIKey      string
	Server      string // "0" sandbox, "1" production, anything else a custom base URL
	CallbackURL string
	HTTPTimeout time.Duration
}

// Service orchestrates job submissions. It holds no per-job state; every
// submission is an independent computation over caller-supplied data plus the
// read-only credentials.
type Service struct {
	cfg      Config
	uploader Uploader
	poller   StatusPoller
	idapi    IDVerifier
	tokens   *webtoken.Client
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   tracer.Tracer
	now      func() time.Time
}

// New creates a submission service. PartnerID and APIKey are required.
func New(cfg Config, opts ...Option) (*Service, error) {
	if cfg.PartnerID == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "partner id is required")
	}
	if cfg.APIKey == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "api key is required")
	}
	if cfg.HTTPTimeout == 0 {
		cfg.HTTPTimeout = 30 * time.Second
	}

	c := &serviceConfig{}
	for _, opt := range opts {
		opt(c)
	}

	logger := c.logger
	if logger == nil {
		logger = slog.Default()
	}
	trc := c.tracer
	if trc == nil {
		trc = tracer.NewNoop()
	}
	now := c.now
	if now == nil {
		now = time.Now
	}

	var apiOpts []transport.Option
	if c.doer != nil {
		apiOpts = append(apiOpts, transport.WithDoer(c.doer))
	}
	api := transport.New(cfg.Server, cfg.HTTPTimeout, apiOpts...)

	uploader := c.uploader
	if uploader == nil {
		uploadOpts := []upload.Option{upload.WithLogger(logger)}
		if c.metrics != nil {
			uploadOpts = append(uploadOpts, upload.WithMetrics(c.metrics))
		}
		uploader = upload.New(api, uploadOpts...)
	}

	statusPoller := c.poller
	if statusPoller == nil {
		pollOpts := []poller.Option{poller.WithLogger(logger)}
		if c.clock != nil {
			pollOpts = append(pollOpts, poller.WithClock(c.clock))
		}
		if c.metrics != nil {
			pollOpts = append(pollOpts, poller.WithMetrics(c.metrics))
		}
		statusPoller = poller.New(statusTransport{api: api}, cfg.PartnerID, cfg.APIKey, pollOpts...)
	}

	verifier := c.idapi
	if verifier == nil {
		verifier = idapi.New(api, cfg.PartnerID, cfg.APIKey, idapi.WithLogger(logger), idapi.WithNow(now))
	}

	return &Service{
		cfg:      cfg,
		uploader: uploader,
		poller:   statusPoller,
		idapi:    verifier,
		tokens:   webtoken.New(api, cfg.PartnerID, cfg.APIKey, cfg.CallbackURL, webtoken.WithNow(now)),
		logger:   logger,
		metrics:  c.metrics,
		tracer:   trc,
		now:      now,
	}, nil
}

// SubmitRequest is one job submission as supplied by the caller.
type SubmitRequest struct {
	PartnerParams *models.PartnerParams
	IDInfo        models.IDInfo
	Images        []models.Image
	Options       models.Options
}

// SubmitResult is the terminal outcome of a submission. Exactly one of the
// three shapes is populated: IDResult for the ID-lookup pathway, Status when
// a synchronous job status was requested, or the plain acknowledgement.
type SubmitResult struct {
	Success  bool                      `json:"success"`
	JobID    string                    `json:"job_id,omitempty"`
	Status   *models.JobStatusResponse `json:"status,omitempty"`
	IDResult json.RawMessage           `json:"id_result,omitempty"`
}

// SubmitJob dispatches a submission to the pathway registered for its job
// kind. All validation failures surface before any network call is made.
func (s *Service) SubmitJob(ctx context.Context, req SubmitRequest) (result *SubmitResult, err error) {
	jobType := models.JobType(0)
	if req.PartnerParams != nil {
		jobType = req.PartnerParams.JobType
	}
	kind := kindFor(jobType)

	ctx, span := s.tracer.Start(ctx, tracer.SpanSubmit,
		tracer.Int(tracer.AttrJobType, int(jobType)),
		tracer.String(tracer.AttrPathway, string(kind.pathway)),
	)
	defer func() {
		span.End(err)
		s.recordOutcome(jobType, kind.pathway, err)
	}()

	if kind.pathway == PathwayIDLookup {
		return s.submitIDLookup(ctx, req)
	}
	return s.submitUpload(ctx, req, kind)
}

func (s *Service) submitIDLookup(ctx context.Context, req SubmitRequest) (result *SubmitResult, err error) {
	var params models.PartnerParams
	if req.PartnerParams != nil {
		params = *req.PartnerParams
	}
	ctx, span := s.tracer.Start(ctx, tracer.SpanIDLookup,
		tracer.String(tracer.AttrUserID, tracer.HashUserID(params.UserID)),
	)
	defer func() { span.End(err) }()

	raw, err := s.idapi.Verify(ctx, idapi.Request{PartnerParams: params, IDInfo: req.IDInfo})
	if err != nil {
		return nil, err
	}
	return &SubmitResult{Success: true, JobID: params.JobID, IDResult: raw}, nil
}

func (s *Service) submitUpload(ctx context.Context, req SubmitRequest, kind kindSpec) (*SubmitResult, error) {
	if err := validate.PartnerParams(req.PartnerParams); err != nil {
		return nil, err
	}
	params := *req.PartnerParams

	callback := req.Options.OptionalCallback
	if callback == "" {
		callback = s.cfg.CallbackURL
	}
	if err := validate.CallbackURL(callback); err != nil {
		return nil, err
	}

	entered, err := validate.IDInfo(req.IDInfo, params.JobType)
	if err != nil {
		return nil, err
	}
	idInfo := req.IDInfo
	idInfo.Entered = entered

	if err := validate.Images(req.Images, req.Options.UseEnrolledImage, params.JobType); err != nil {
		return nil, err
	}
	if err := validate.ReturnData(callback, req.Options.ReturnJobStatus); err != nil {
		return nil, err
	}
	if kind.structural != nil {
		if err := kind.structural(req.Images, entered); err != nil {
			return nil, err
		}
	}

	envelope := signature.Generate(s.cfg.PartnerID, s.cfg.APIKey, s.now())
	uploadCtx, uploadSpan := s.tracer.Start(ctx, tracer.SpanUpload,
		tracer.String(tracer.AttrJobID, params.JobID),
	)
	uploadResult, err := s.uploader.Submit(uploadCtx, upload.Request{
		Envelope:      envelope,
		PartnerParams: params,
		IDInfo:        idInfo,
		Images:        req.Images,
		CallbackURL:   callback,
	})
	uploadSpan.End(err)
	if err != nil {
		return nil, err
	}

	jobID := uploadResult.JobID
	if jobID == "" {
		jobID = params.JobID
	}
	s.logger.Info("job submitted",
		"job_id", jobID,
		"job_type", int(params.JobType),
		"return_job_status", req.Options.ReturnJobStatus,
	)

	if !req.Options.ReturnJobStatus {
		return &SubmitResult{Success: true, JobID: jobID}, nil
	}

	pollCtx, pollSpan := s.tracer.Start(ctx, tracer.SpanPoll,
		tracer.String(tracer.AttrJobID, params.JobID),
	)
	status, err := s.poller.Wait(pollCtx, poller.StatusRequest{
		UserID:           params.UserID,
		JobID:            params.JobID,
		ReturnHistory:    req.Options.ReturnHistory,
		ReturnImageLinks: req.Options.ReturnImageLinks,
	})
	pollSpan.End(err)
	if err != nil {
		return nil, err
	}
	return &SubmitResult{Success: true, JobID: jobID, Status: status}, nil
}

// JobStatus issues one signed status query for a previously submitted job.
func (s *Service) JobStatus(ctx context.Context, userID, jobID string, opts models.Options) (*models.JobStatusResponse, error) {
	if userID == "" || jobID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "user_id and job_id are required to query job status")
	}
	return s.poller.Status(ctx, poller.StatusRequest{
		UserID:           userID,
		JobID:            jobID,
		ReturnHistory:    opts.ReturnHistory,
		ReturnImageLinks: opts.ReturnImageLinks,
	})
}

// WebToken requests a hosted-session token.
func (s *Service) WebToken(ctx context.Context, req webtoken.Request) (string, error) {
	return s.tokens.Token(ctx, req)
}

func (s *Service) recordOutcome(jobType models.JobType, pathway Pathway, err error) {
	if s.metrics == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
		var dErr *dErrors.Error
		if errors.As(err, &dErr) {
			outcome = string(dErr.Code)
		}
	}
	s.metrics.RecordSubmission(fmt.Sprintf("%d", int(jobType)), string(pathway), outcome)
}

// statusTransport adapts the shared transport client to the poller's
// StatusClient contract.
type statusTransport struct {
	api *transport.Client
}

func (t statusTransport) JobStatus(ctx context.Context, body poller.StatusBody) (*models.JobStatusResponse, error) {
	var resp models.JobStatusResponse
	if err := t.api.PostJSON(ctx, "/job_status", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
