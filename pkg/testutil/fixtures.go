package testutil

import (
	"github.com/google/uuid"

	"verid/internal/job/models"
)

// Test credentials shared across suites. The api key is only ever fed to the
// local HMAC, never to a real service.
const (
	PartnerID = "001"
	APIKey    = "api-key-for-tests-only"
)

// TestIDs provides pre-generated ids for deterministic test data.
var TestIDs = struct {
	UserID1 string
	UserID2 string
	JobID1  string
	JobID2  string
}{
	UserID1: "user-11111111",
	UserID2: "user-22222222",
	JobID1:  "job-aaaa0001",
	JobID2:  "job-aaaa0002",
}

// JobBuilder provides a fluent interface for building test submissions.
type JobBuilder struct {
	params models.PartnerParams
	idInfo models.IDInfo
	images []models.Image
}

// NewJobBuilder creates a JobBuilder with sensible defaults: a fresh user id,
// a fresh job id and a biometric-KYC job type.
func NewJobBuilder() *JobBuilder {
	return &JobBuilder{
		params: models.PartnerParams{
			UserID:  "user-" + uuid.NewString(),
			JobID:   "job-" + uuid.NewString(),
			JobType: models.JobTypeBiometricKYC,
		},
	}
}

func (b *JobBuilder) WithUserID(userID string) *JobBuilder {
	b.params.UserID = userID
	return b
}

func (b *JobBuilder) WithJobID(jobID string) *JobBuilder {
	b.params.JobID = jobID
	return b
}

func (b *JobBuilder) WithJobType(t models.JobType) *JobBuilder {
	b.params.JobType = t
	return b
}

func (b *JobBuilder) WithIDInfo(info models.IDInfo) *JobBuilder {
	b.idInfo = info
	return b
}

func (b *JobBuilder) WithImages(images ...models.Image) *JobBuilder {
	b.images = images
	return b
}

// WithSelfie appends an inline selfie image.
func (b *JobBuilder) WithSelfie() *JobBuilder {
	b.images = append(b.images, models.Image{TypeID: models.ImageTypeSelfieBase64, Value: "c2VsZmllLWJ5dGVz"})
	return b
}

// WithIDCard appends an inline id-card image.
func (b *JobBuilder) WithIDCard() *JobBuilder {
	b.images = append(b.images, models.Image{TypeID: models.ImageTypeIDCardBase64, Value: "aWQtY2FyZC1ieXRlcw=="})
	return b
}

// PartnerParams returns the built partner params.
func (b *JobBuilder) PartnerParams() *models.PartnerParams {
	p := b.params
	return &p
}

// IDInfo returns the built id info.
func (b *JobBuilder) IDInfo() models.IDInfo {
	return b.idInfo
}

// Images returns the built image list.
func (b *JobBuilder) Images() []models.Image {
	return b.images
}
