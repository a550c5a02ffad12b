// Package validate enforces the per-job-type input contracts. Every check is
// synchronous and runs before any request is issued; the messages are part of
// the SDK's public behavior and are kept stable.
package validate

import (
	"fmt"
	"strconv"

	"verid/internal/job/models"
	dErrors "verid/pkg/domain-errors"
	"verid/pkg/validation"
)

// PartnerParams checks the required job-identity triple, in fixed order:
// user_id, job_id, job_type.
func PartnerParams(p *models.PartnerParams) error {
	if p == nil {
		return dErrors.New(dErrors.CodeValidation, "Please ensure that you send through partner params")
	}
	if p.UserID == "" {
		return missingPartnerField("user_id")
	}
	if p.JobID == "" {
		return missingPartnerField("job_id")
	}
	if p.JobType == 0 {
		return missingPartnerField("job_type")
	}
	return nil
}

func missingPartnerField(name string) error {
	return dErrors.New(dErrors.CodeValidation,
		fmt.Sprintf("Please make sure that %s is included in the partner params", name))
}

// PartnerParamsFromMap coerces loosely-typed caller input into PartnerParams.
// job_type accepts numbers and numeric strings; everything the triple does not
// claim passes through in Extra.
func PartnerParamsFromMap(v any) (*models.PartnerParams, error) {
	raw, ok := v.(map[string]any)
	if !ok {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "Partner params needs to be an object")
	}

	p := &models.PartnerParams{Extra: make(map[string]any)}
	for k, val := range raw {
		switch k {
		case "user_id":
			p.UserID, _ = val.(string)
		case "job_id":
			p.JobID, _ = val.(string)
		case "job_type":
			jt, err := coerceInt(val)
			if err != nil {
				return nil, dErrors.New(dErrors.CodeInvalidInput, "job_type must be a number")
			}
			p.JobType = models.JobType(jt)
		default:
			p.Extra[k] = val
		}
	}
	return p, nil
}

func coerceInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	case string:
		return strconv.Atoi(n)
	default:
		return 0, fmt.Errorf("cannot coerce %T to int", v)
	}
}

// IDInfo normalizes the entered flag and enforces the attribute subset the
// job type requires. It returns the normalized entered string for payload
// construction.
func IDInfo(info models.IDInfo, jobType models.JobType) (string, error) {
	entered := info.Entered
	switch entered {
	case "":
		entered = models.EnteredFalse
	case models.EnteredTrue, models.EnteredFalse:
	default:
		return "", dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("The entered flag must be either %q or %q", models.EnteredTrue, models.EnteredFalse))
	}

	if entered == models.EnteredFalse {
		if jobType == models.JobTypeDocVerification {
			if info.Country == "" {
				return "", missingIDField("country")
			}
			if info.IDType == "" {
				return "", missingIDField("id_type")
			}
		}
		return entered, nil
	}

	if info.Country == "" {
		return "", missingIDField("country")
	}
	if info.IDType == "" {
		return "", missingIDField("id_type")
	}
	if info.IDNumber == "" {
		return "", missingIDField("id_number")
	}
	return entered, nil
}

func missingIDField(name string) error {
	return dErrors.New(dErrors.CodeValidation,
		fmt.Sprintf("Please make sure that %s is included in the id_info", name))
}

// Images checks the image list shape and the selfie requirement. The one
// documented bypass: document-verification jobs may rely on a previously
// enrolled selfie.
func Images(images []models.Image, useEnrolledImage bool, jobType models.JobType) error {
	if images == nil {
		return dErrors.New(dErrors.CodeValidation, "Please ensure that you send through image details")
	}
	if hasSelfie(images) {
		return nil
	}
	if useEnrolledImage && jobType == models.JobTypeDocVerification {
		return nil
	}
	return dErrors.New(dErrors.CodeValidation, "You need to send through at least one selfie image")
}

// EnrollWithID enforces the biometric-KYC structural rule: an ID-card image is
// required unless identity attributes were entered instead.
func EnrollWithID(images []models.Image, entered string) error {
	if entered == models.EnteredTrue || hasIDCard(images) {
		return nil
	}
	return dErrors.New(dErrors.CodeValidation,
		"You are attempting to complete a job type 1 without providing an id card image or id info")
}

// DocumentVerification enforces the document-verification structural rule: an
// ID-card image is required unconditionally.
func DocumentVerification(images []models.Image) error {
	if hasIDCard(images) {
		return nil
	}
	return dErrors.New(dErrors.CodeValidation,
		"You are attempting to complete a Document Verification job without providing an id card image")
}

func hasSelfie(images []models.Image) bool {
	for _, img := range images {
		if img.TypeID.IsSelfie() {
			return true
		}
	}
	return false
}

func hasIDCard(images []models.Image) bool {
	for _, img := range images {
		if img.TypeID.IsIDCard() {
			return true
		}
	}
	return false
}

// booleanOptionKeys are checked in a fixed order so failures are deterministic.
var booleanOptionKeys = []string{
	"return_job_status",
	"return_history",
	"return_image_links",
	"use_enrolled_image",
}

// Options coerces a loosely-typed options bag into the typed form. A present
// value that is truthy but not strictly boolean is a validation error; absent
// or falsy values normalize to false.
func Options(raw map[string]any) (models.Options, error) {
	var opts models.Options
	for _, key := range booleanOptionKeys {
		val, present := raw[key]
		if !present {
			continue
		}
		b, err := strictBool(key, val)
		if err != nil {
			return models.Options{}, err
		}
		switch key {
		case "return_job_status":
			opts.ReturnJobStatus = b
		case "return_history":
			opts.ReturnHistory = b
		case "return_image_links":
			opts.ReturnImageLinks = b
		case "use_enrolled_image":
			opts.UseEnrolledImage = b
		}
	}
	if cb, ok := raw["optional_callback"].(string); ok {
		opts.OptionalCallback = cb
	}
	return opts, nil
}

func strictBool(key string, v any) (bool, error) {
	switch b := v.(type) {
	case nil:
		return false, nil
	case bool:
		return b, nil
	case float64:
		if b == 0 {
			return false, nil
		}
	case string:
		if b == "" {
			return false, nil
		}
	}
	return false, dErrors.New(dErrors.CodeValidation,
		fmt.Sprintf("%s needs to be either true or false", key))
}

// ReturnData checks that the caller chose at least one channel to receive the
// result on.
func ReturnData(callbackURL string, returnJobStatus bool) error {
	if callbackURL == "" && !returnJobStatus {
		return dErrors.New(dErrors.CodeValidation,
			"Please choose to either get your response via the callback or job status query")
	}
	return nil
}

// CallbackURL rejects malformed non-empty callback URLs before submission.
func CallbackURL(u string) error {
	if u == "" {
		return nil
	}
	return validation.URL("callback_url", u)
}
