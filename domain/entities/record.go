package entities

import (
	"fmt"
	"time"
)

// Scopes partition the record store. Each scope has its own id space.
const (
	ScopeProposal    = "proposal"
	ScopeRole        = "role"
	ScopeAssignment  = "assignment"
	ScopePayout      = "payout"
	ScopeFailedProps = "failedprops"
	ScopePropArchive = "proparchive"
	ScopeChallenge   = "challenge"
)

// Well-known attribute keys. Different scopes and proposal types populate
// different keys by convention; unknown keys are a domain error caught at
// read time.
const (
	KeyOwner      = "owner"
	KeyType       = "type"
	KeyBallotID   = "ballot_id"
	KeyPriorScope = "prior_scope"
	KeyPriorID    = "prior_id"
	KeyFK         = "fk"

	KeyRoleID            = "role_id"
	KeyTimeShareX100     = "time_share_x100"
	KeyStartPeriod       = "start_period"
	KeyEndPeriod         = "end_period"
	KeyFulltimeCapX100   = "fulltime_capacity_x100"
	KeyMinTimeShareX100  = "min_time_share_x100"
	KeyAnnualUSDSalary   = "annual_usd_salary"
	KeyWeeklyRewardSal   = "weekly_reward_salary"
	KeyWeeklyVoteSal     = "weekly_vote_salary"
	KeyWeeklyUSDSal      = "weekly_usd_salary"
	KeyExecOnApproval    = "exec_on_approval"
	KeyTrxActionTarget   = "trx_action_contract"
	KeyTrxActionName     = "trx_action_name"
	KeyTitle             = "title"
	KeyDescription       = "description"
	KeyContent           = "content"
	KeyClientVersion     = "client_version"
	KeyContractVersion   = "contract_version"
	KeyChallengeReward   = "reward_amount"
	KeyChallengeUSD      = "usd_amount"
	KeyChallengeVote     = "vote_amount"
)

// Record is a schema-flexible entity: six independent typed attribute maps
// plus creation and update stamps. The id is unique within the scope.
type Record struct {
	ID    int64  `db:"id"`
	Scope string `db:"scope"`

	Names      map[string]string         `db:"names"`
	Strings    map[string]string         `db:"strings"`
	Assets     map[string]Quantity       `db:"assets"`
	Timestamps map[string]time.Time      `db:"timestamps"`
	Ints       map[string]int64          `db:"ints"`
	Floats     map[string]float64        `db:"floats"`
	Actions    map[string]DeferredAction `db:"actions"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// NewRecord returns a record with all attribute maps allocated.
func NewRecord(scope string) *Record {
	return &Record{
		Scope:      scope,
		Names:      map[string]string{},
		Strings:    map[string]string{},
		Assets:     map[string]Quantity{},
		Timestamps: map[string]time.Time{},
		Ints:       map[string]int64{},
		Floats:     map[string]float64{},
		Actions:    map[string]DeferredAction{},
	}
}

// EnsureMaps allocates any nil attribute maps in place.
func (r *Record) EnsureMaps() {
	if r.Names == nil {
		r.Names = map[string]string{}
	}
	if r.Strings == nil {
		r.Strings = map[string]string{}
	}
	if r.Assets == nil {
		r.Assets = map[string]Quantity{}
	}
	if r.Timestamps == nil {
		r.Timestamps = map[string]time.Time{}
	}
	if r.Ints == nil {
		r.Ints = map[string]int64{}
	}
	if r.Floats == nil {
		r.Floats = map[string]float64{}
	}
	if r.Actions == nil {
		r.Actions = map[string]DeferredAction{}
	}
}

// Owner returns the owner account name, empty if unset.
func (r *Record) Owner() string {
	return r.Names[KeyOwner]
}

// Type returns the declared type name, empty if unset.
func (r *Record) Type() string {
	return r.Names[KeyType]
}

// Name returns a required name attribute.
func (r *Record) Name(key string) (string, error) {
	v, ok := r.Names[key]
	if !ok {
		return "", fmt.Errorf("%w: record %s/%d has no name attribute %q", ErrNotFound, r.Scope, r.ID, key)
	}
	return v, nil
}

// Int returns a required integer attribute.
func (r *Record) Int(key string) (int64, error) {
	v, ok := r.Ints[key]
	if !ok {
		return 0, fmt.Errorf("%w: record %s/%d has no int attribute %q", ErrNotFound, r.Scope, r.ID, key)
	}
	return v, nil
}

// Asset returns a required quantity attribute.
func (r *Record) Asset(key string) (Quantity, error) {
	v, ok := r.Assets[key]
	if !ok {
		return Quantity{}, fmt.Errorf("%w: record %s/%d has no asset attribute %q", ErrNotFound, r.Scope, r.ID, key)
	}
	return v, nil
}

// Action returns a required deferred-action attribute.
func (r *Record) Action(key string) (DeferredAction, error) {
	v, ok := r.Actions[key]
	if !ok {
		return DeferredAction{}, fmt.Errorf("%w: record %s/%d has no action attribute %q", ErrNotFound, r.Scope, r.ID, key)
	}
	return v, nil
}

// Validate checks the invariants every record must hold: an owner, and a
// type when the record sits in the proposal scope.
func (r *Record) Validate() error {
	if r.Owner() == "" {
		return fmt.Errorf("%w: record in scope %s has no owner", ErrValidation, r.Scope)
	}
	if r.Scope == ScopeProposal && r.Type() == "" {
		return fmt.Errorf("%w: proposal record has no type", ErrValidation)
	}
	return nil
}

// CloneInto copies every attribute map into a fresh record destined for a
// new scope, stamping the prior-scope trail for traceability.
func (r *Record) CloneInto(newScope string) *Record {
	dst := NewRecord(newScope)
	for k, v := range r.Names {
		dst.Names[k] = v
	}
	for k, v := range r.Strings {
		dst.Strings[k] = v
	}
	for k, v := range r.Assets {
		dst.Assets[k] = v
	}
	for k, v := range r.Timestamps {
		dst.Timestamps[k] = v
	}
	for k, v := range r.Ints {
		dst.Ints[k] = v
	}
	for k, v := range r.Floats {
		dst.Floats[k] = v
	}
	for k, v := range r.Actions {
		dst.Actions[k] = v
	}
	dst.Names[KeyPriorScope] = r.Scope
	dst.Ints[KeyPriorID] = r.ID
	return dst
}
