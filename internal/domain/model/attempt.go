package model

import "time"

// Attempt reasons recorded alongside a Decision.
const (
	ReasonAccepted    = "accepted"
	ReasonPromiscuous = "promiscuous"
	ReasonEmpty       = "empty"
	ReasonUnknown     = "unknown"
	ReasonMalformed   = "malformed"
	ReasonDisabled    = "disabled"
	ReasonExpired     = "expired"
	ReasonGateError   = "gate_error"
)

// AttemptRecord is one entry in the append-only attempt history.
type AttemptRecord struct {
	ID        string
	Code      string
	Decision  Decision
	Reason    string
	DecidedAt time.Time
}
