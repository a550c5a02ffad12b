package service

//go:generate mockgen -source=contracts.go -destination=mocks/mocks.go -package=mocks Uploader,StatusPoller,IDVerifier

import (
	"context"
	"encoding/json"

	"verid/internal/idapi"
	"verid/internal/job/models"
	"verid/internal/job/poller"
	"verid/internal/job/upload"
)

// Uploader drives the image-submission pathway.
type Uploader interface {
	Submit(ctx context.Context, req upload.Request) (*upload.Result, error)
}

// StatusPoller queries job status, either once or until a terminal state.
type StatusPoller interface {
	Wait(ctx context.Context, req poller.StatusRequest) (*models.JobStatusResponse, error)
	Status(ctx context.Context, req poller.StatusRequest) (*models.JobStatusResponse, error)
}

// IDVerifier drives the ID-lookup pathway.
type IDVerifier interface {
	Verify(ctx context.Context, req idapi.Request) (json.RawMessage, error)
}
