package entities

import (
	"fmt"
	"time"
)

// ConfigState keys.
const (
	CfgPollServiceAccount   = "poll_service_account"
	CfgLedgerServiceAccount = "ledger_service_account"
	CfgLastBallotID         = "last_ballot_id"
	CfgVotingDurationSec    = "voting_duration_sec"
	CfgPaused               = "paused"
	CfgLastSenderID         = "last_sender_id"
)

// ConfigState is the domain configuration singleton: the same six typed
// maps as Record, versioned, validated on every write.
type ConfigState struct {
	Version int64 `db:"version"`

	Names      map[string]string         `db:"names"`
	Strings    map[string]string         `db:"strings"`
	Assets     map[string]Quantity       `db:"assets"`
	Timestamps map[string]time.Time      `db:"timestamps"`
	Ints       map[string]int64          `db:"ints"`
	Floats     map[string]float64        `db:"floats"`
	Actions    map[string]DeferredAction `db:"actions"`

	UpdatedAt time.Time `db:"updated_at"`
}

// NewConfigState returns an empty config with all maps allocated.
func NewConfigState() *ConfigState {
	return &ConfigState{
		Names:      map[string]string{},
		Strings:    map[string]string{},
		Assets:     map[string]Quantity{},
		Timestamps: map[string]time.Time{},
		Ints:       map[string]int64{},
		Floats:     map[string]float64{},
		Actions:    map[string]DeferredAction{},
	}
}

// Validate enforces the required keys. Runs on every write, not only at
// startup.
func (c *ConfigState) Validate() error {
	for _, key := range []string{CfgPollServiceAccount, CfgLedgerServiceAccount} {
		if c.Names[key] == "" {
			return fmt.Errorf("%w: name configuration %q is required but not provided", ErrValidation, key)
		}
	}
	for _, key := range []string{CfgVotingDurationSec, CfgLastBallotID} {
		if _, ok := c.Ints[key]; !ok {
			return fmt.Errorf("%w: int configuration %q is required but not provided", ErrValidation, key)
		}
	}
	if c.Ints[CfgVotingDurationSec] <= 0 {
		return fmt.Errorf("%w: voting_duration_sec must be positive, got %d", ErrValidation, c.Ints[CfgVotingDurationSec])
	}
	return nil
}

// Paused reports the global paused flag. A missing flag is an error, not a
// default: the administrator must set it explicitly.
func (c *ConfigState) Paused() (bool, error) {
	v, ok := c.Ints[CfgPaused]
	if !ok {
		return true, fmt.Errorf("%w: no pause configuration set; assuming paused, contact administrator", ErrValidation)
	}
	return v == 1, nil
}

// VotingDuration returns the configured ballot lifetime.
func (c *ConfigState) VotingDuration() time.Duration {
	return time.Duration(c.Ints[CfgVotingDurationSec]) * time.Second
}

// NextBallotID increments and returns the ballot counter.
func (c *ConfigState) NextBallotID() int64 {
	c.Ints[CfgLastBallotID]++
	return c.Ints[CfgLastBallotID]
}

// NextSenderID increments and returns the deferred-request sender counter.
func (c *ConfigState) NextSenderID() int64 {
	c.Ints[CfgLastSenderID]++
	return c.Ints[CfgLastSenderID]
}
