// Package models holds the request-scoped value objects one verification job
// is built from. All of them are created by the caller or derived from caller
// input; the remote service owns durable job state.
package models

import "encoding/json"

// PartnerParams uniquely identifies one verification job. The ids are chosen
// by the caller, not generated server-side. Extra fields pass through to the
// remote service unmodified.
type PartnerParams struct {
	UserID  string
	JobID   string
	JobType JobType
	Extra   map[string]any
}

// MarshalJSON flattens the pass-through fields into the same object as the
// required triple.
func (p PartnerParams) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(p.Extra)+3)
	for k, v := range p.Extra {
		out[k] = v
	}
	out["user_id"] = p.UserID
	out["job_id"] = p.JobID
	out["job_type"] = int(p.JobType)
	return json.Marshal(out)
}

// IDInfo carries the identity attributes a job may require. Which subset is
// mandatory depends on the job type and the Entered flag; see the validate
// package. Extra fields pass through unmodified.
type IDInfo struct {
	FirstName   string
	MiddleName  string
	LastName    string
	Country     string
	IDType      string
	IDNumber    string
	DOB         string
	PhoneNumber string
	Entered     string
	Extra       map[string]any
}

// MarshalJSON emits only the populated attributes, plus pass-through fields.
func (i IDInfo) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(i.Extra)+9)
	for k, v := range i.Extra {
		out[k] = v
	}
	set := func(key, val string) {
		if val != "" {
			out[key] = val
		}
	}
	set("first_name", i.FirstName)
	set("middle_name", i.MiddleName)
	set("last_name", i.LastName)
	set("country", i.Country)
	set("id_type", i.IDType)
	set("id_number", i.IDNumber)
	set("dob", i.DOB)
	set("phone_number", i.PhoneNumber)
	set("entered", i.Entered)
	return json.Marshal(out)
}

// Image is one entry of a job's image list. Value is a filesystem path for
// file-backed types and raw base64 data otherwise.
type Image struct {
	TypeID ImageType `json:"image_type_id"`
	Value  string    `json:"image"`
}

// Options controls the response shape of a submission. The zero value asks
// for callback-only delivery.
type Options struct {
	ReturnJobStatus  bool
	ReturnHistory    bool
	ReturnImageLinks bool
	UseEnrolledImage bool

	// OptionalCallback overrides the instance-level callback URL for this
	// submission only.
	OptionalCallback string
}
