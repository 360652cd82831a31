package interfaces

import (
	"context"
	"time"

	"govpay/domain/entities"
)

// Poll registration constants. Every proposal ballot is a binary pass/fail
// poll weighted by voting power.
const (
	PollKind         = "poll"
	PollScheme       = "1token1vote"
	PollOptionPass   = "pass"
	PollOptionFail   = "fail"
)

// BallotTally is the read model returned by the poll service for a closed
// or in-flight ballot.
type BallotTally struct {
	Options        map[string]entities.Quantity
	TotalRawWeight entities.Quantity
}

// PollService is the external voting collaborator. Calls are synchronous
// and all-or-nothing.
type PollService interface {
	// Exists reports whether a ballot id is already registered.
	Exists(ctx context.Context, ballotID int64) (bool, error)

	// RegisterPoll registers a new ballot.
	RegisterPoll(ctx context.Context, ballotID int64, kind, publisher, denomination, scheme string, options []string) error

	// SetDetails attaches title, description and content to a ballot.
	SetDetails(ctx context.Context, ballotID int64, title, description, content string) error

	// Open opens voting until the expiration.
	Open(ctx context.Context, ballotID int64, expiration time.Time) error

	// Close finalizes a ballot, optionally marking it broadcastable.
	Close(ctx context.Context, ballotID int64, broadcast bool) error

	// Tally returns option totals and the total raw vote weight.
	Tally(ctx context.Context, ballotID int64) (*BallotTally, error)

	// TreasurySupply returns the total supply for a denomination.
	TreasurySupply(ctx context.Context, symbol string) (entities.Quantity, error)

	// Mint mints voting power directly to a recipient.
	Mint(ctx context.Context, to string, quantity entities.Quantity, memo string) error
}

// LedgerService is the external token-issuance collaborator. The engine
// issues to its own account and then transfers, never minting directly to
// a third party, so the contract stays the issuer of record.
type LedgerService interface {
	// Issue issues a quantity to the engine's own account.
	Issue(ctx context.Context, quantity entities.Quantity, memo string) error

	// Transfer moves a quantity from the engine's account to a recipient.
	Transfer(ctx context.Context, to string, quantity entities.Quantity, memo string) error
}

// Scheduler is the deferred-execution facility: it accepts a request and
// guarantees at-most-once-eventually delivery back into the engine as an
// ordinary call. No ordering guarantee relative to other requests.
type Scheduler interface {
	Schedule(ctx context.Context, senderID int64, action entities.DeferredAction) error
}
