package entities

import (
	"encoding/json"
	"time"
)

// Deferred action names the engine accepts back from the scheduler.
const (
	ActionPassProposal  = "passprop"
	ActionClearAuditLog = "clrauditlog"
)

// DeferredAction is an outbound request handed to the external scheduling
// facility and replayed later as a fresh top-level call. Nothing is assumed
// carried across the boundary; the re-entry revalidates everything.
type DeferredAction struct {
	Action        string          `json:"action"`
	Target        string          `json:"target"`
	Payload       json.RawMessage `json:"payload"`
	NotValidAfter time.Time       `json:"not_valid_after"`
}

// Expired reports whether the execution window has closed.
func (a DeferredAction) Expired(now time.Time) bool {
	return !a.NotValidAfter.IsZero() && now.After(a.NotValidAfter)
}

// PassProposalPayload carries the proposal id for an approval execution.
type PassProposalPayload struct {
	ProposalID int64 `json:"proposal_id"`
}

// ClearAuditLogPayload carries the continuation cursor for paginated
// audit-log clearing.
type ClearAuditLogPayload struct {
	StartingID int64 `json:"starting_id"`
	BatchSize  int64 `json:"batch_size"`
}
