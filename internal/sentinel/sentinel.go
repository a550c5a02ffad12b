package sentinel

import "errors"

// Sentinel dependency errors. Low-level collaborators return these (optionally
// wrapped) so callers can translate them into domain errors exactly once.
var (
	ErrBadStatus = errors.New("unexpected status")
)
