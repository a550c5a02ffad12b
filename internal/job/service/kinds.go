package service

import (
	"verid/internal/job/models"
	"verid/internal/job/validate"
)

// Pathway names the submission route a job kind takes.
type Pathway string

const (
	PathwayUpload   Pathway = "upload"
	PathwayIDLookup Pathway = "id_lookup"
)

// kindSpec is the registered behavior for one job kind: which pathway it
// takes and which structural check applies on top of the shared validation.
type kindSpec struct {
	pathway    Pathway
	structural func(images []models.Image, entered string) error
}

// kinds maps each known job type to its registered behavior. Unknown types
// fall back to the upload pathway with no extra structural rule, matching how
// the service treats new products.
var kinds = map[models.JobType]kindSpec{
	models.JobTypeBiometricKYC: {
		pathway:    PathwayUpload,
		structural: validate.EnrollWithID,
	},
	models.JobTypeSelfieAuth:       {pathway: PathwayUpload},
	models.JobTypeSelfieEnrollment: {pathway: PathwayUpload},
	models.JobTypeDocVerification: {
		pathway: PathwayUpload,
		structural: func(images []models.Image, _ string) error {
			return validate.DocumentVerification(images)
		},
	},
	models.JobTypeEnhancedKYC:          {pathway: PathwayIDLookup},
	models.JobTypeBusinessVerification: {pathway: PathwayIDLookup},
}

// kindFor resolves the registered behavior for a job type.
func kindFor(t models.JobType) kindSpec {
	if k, ok := kinds[t]; ok {
		return k
	}
	return kindSpec{pathway: PathwayUpload}
}
