package models

import "encoding/json"

// UploadResponse is the destination handed back by the upload endpoint.
type UploadResponse struct {
	UploadURL string `json:"upload_url"`
	JobID     string `json:"job_id"`
}

// JobStatusResponse is one status-query result. The body carries its own
// signature so the caller can check response integrity before trusting it.
type JobStatusResponse struct {
	JobComplete bool            `json:"job_complete"`
	JobSuccess  bool            `json:"job_success"`
	Code        string          `json:"code,omitempty"`
	Result      json.RawMessage `json:"result,omitempty"`
	History     json.RawMessage `json:"history,omitempty"`
	ImageLinks  json.RawMessage `json:"image_links,omitempty"`
	Timestamp   string          `json:"timestamp"`
	Signature   string          `json:"signature"`
}
