package models

// JobType identifies a verification product. The remote service keys its
// behavior off this integer, so the values are fixed by the wire contract.
type JobType int

const (
	JobTypeBiometricKYC         JobType = 1
	JobTypeSelfieAuth           JobType = 2
	JobTypeSelfieEnrollment     JobType = 4
	JobTypeEnhancedKYC          JobType = 5
	JobTypeDocVerification      JobType = 6
	JobTypeBusinessVerification JobType = 7
)

// IsIDLookup reports whether the job type is served by the ID-lookup pathway
// (a direct signed POST with no image handling).
func (t JobType) IsIDLookup() bool {
	return t == JobTypeEnhancedKYC || t == JobTypeBusinessVerification
}

// ImageType identifies what an image entry carries and how it travels.
// File-backed entries are packaged into the upload archive; base64 entries
// travel inside the archive's metadata document.
type ImageType int

const (
	ImageTypeSelfieFile   ImageType = 0
	ImageTypeIDCardFile   ImageType = 1
	ImageTypeSelfieBase64 ImageType = 2
	ImageTypeIDCardBase64 ImageType = 3
)

// IsSelfie reports whether the image is a selfie in either encoding.
func (t ImageType) IsSelfie() bool {
	return t == ImageTypeSelfieFile || t == ImageTypeSelfieBase64
}

// IsIDCard reports whether the image is an ID document in either encoding.
func (t ImageType) IsIDCard() bool {
	return t == ImageTypeIDCardFile || t == ImageTypeIDCardBase64
}

// FileBacked reports whether the image value is a filesystem path rather than
// inline base64 data.
func (t ImageType) FileBacked() bool {
	return t == ImageTypeSelfieFile || t == ImageTypeIDCardFile
}

// Entered is the tri-state flag describing whether the caller supplied
// identity attributes alongside images. Only the two string forms below (and
// absence) are accepted.
const (
	EnteredTrue  = "true"
	EnteredFalse = "false"
)
