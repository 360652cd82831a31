package testutil

import (
	"govpay/domain/entities"
)

// CreateTestRole creates a role record with default capacity and salary
func CreateTestRole(owner string) *entities.Record {
	role := entities.NewRecord(entities.ScopeRole)
	role.Names[entities.KeyOwner] = owner
	role.Names[entities.KeyType] = "role"
	role.Strings[entities.KeyTitle] = "Test Role"
	role.Ints[entities.KeyFulltimeCapX100] = 10000
	role.Ints[entities.KeyMinTimeShareX100] = 0
	role.Assets[entities.KeyAnnualUSDSalary] = entities.NewQuantity(10000000, entities.SymbolUSD)
	role.Assets[entities.KeyWeeklyRewardSal] = entities.NewQuantity(10000, entities.SymbolReward)
	role.Assets[entities.KeyWeeklyVoteSal] = entities.NewQuantity(10000, entities.SymbolVote)
	role.Assets[entities.KeyWeeklyUSDSal] = entities.NewQuantity(10000, entities.SymbolUSD)
	return role
}

// CreateTestAssignment creates an assignment record tied to a role
func CreateTestAssignment(owner string, roleID int64, timeShareX100 int64) *entities.Record {
	assignment := entities.NewRecord(entities.ScopeAssignment)
	assignment.Names[entities.KeyOwner] = owner
	assignment.Names[entities.KeyType] = "assignment"
	assignment.Ints[entities.KeyRoleID] = roleID
	assignment.Ints[entities.KeyFK] = roleID
	assignment.Ints[entities.KeyTimeShareX100] = timeShareX100
	ratio := float64(timeShareX100) / 10000.0
	assignment.Assets[entities.KeyWeeklyRewardSal] = entities.NewQuantity(10000, entities.SymbolReward).Scale(ratio)
	assignment.Assets[entities.KeyWeeklyVoteSal] = entities.NewQuantity(10000, entities.SymbolVote).Scale(ratio)
	assignment.Assets[entities.KeyWeeklyUSDSal] = entities.NewQuantity(10000, entities.SymbolUSD).Scale(ratio)
	return assignment
}

// CreateTestProposal creates a proposal record of the given type
func CreateTestProposal(owner, proposalType string) *entities.Record {
	proposal := entities.NewRecord(entities.ScopeProposal)
	proposal.Names[entities.KeyOwner] = owner
	proposal.Names[entities.KeyType] = proposalType
	proposal.Strings[entities.KeyTitle] = "Test Proposal"
	proposal.Strings[entities.KeyDescription] = "A proposal used in tests"
	proposal.Strings[entities.KeyContent] = "Details"
	return proposal
}

// CreateTestPayment creates a ledger line with default values
func CreateTestPayment(recipient string, periodID, assignmentID int64) *entities.Payment {
	return &entities.Payment{
		PeriodID:     periodID,
		AssignmentID: assignmentID,
		Recipient:    recipient,
		Amount:       entities.NewQuantity(10000, entities.SymbolReward),
		Memo:         "test payment",
	}
}

// CreateTestConfig creates a config state passing validation
func CreateTestConfig() *entities.ConfigState {
	cfg := entities.NewConfigState()
	cfg.Names[entities.CfgPollServiceAccount] = "pollsvc"
	cfg.Names[entities.CfgLedgerServiceAccount] = "ledgersvc"
	cfg.Ints[entities.CfgVotingDurationSec] = 3600
	cfg.Ints[entities.CfgLastBallotID] = 0
	cfg.Ints[entities.CfgPaused] = 0
	return cfg
}
