package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"govpay/domain/entities"
	"govpay/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// Subjects served by the external poll service.
const (
	pollSubjectExists   = "polls.ballots.exists"
	pollSubjectRegister = "polls.ballots.register"
	pollSubjectDetails  = "polls.ballots.details"
	pollSubjectOpen     = "polls.ballots.open"
	pollSubjectClose    = "polls.ballots.close"
	pollSubjectTally    = "polls.ballots.tally"
	pollSubjectSupply   = "polls.treasury.supply"
	pollSubjectMint     = "polls.treasury.mint"
)

// pollReply is the common response envelope from the poll service.
type pollReply struct {
	OK    bool            `json:"ok"`
	Error string          `json:"error,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NATSPollService implements the PollService interface over NATS
// request/reply against the external voting service.
type NATSPollService struct {
	natsClient *NATSClient
}

// NewNATSPollService creates a new poll service client
func NewNATSPollService(natsClient *NATSClient) interfaces.PollService {
	return &NATSPollService{natsClient: natsClient}
}

func (s *NATSPollService) call(ctx context.Context, subject string, request any, out any) error {
	data, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("failed to marshal poll request: %w", err)
	}

	replyData, err := s.natsClient.Request(ctx, subject, data)
	if err != nil {
		return err
	}

	var reply pollReply
	if err := json.Unmarshal(replyData, &reply); err != nil {
		return fmt.Errorf("failed to unmarshal poll reply: %w", err)
	}
	if !reply.OK {
		return fmt.Errorf("poll service rejected %s: %s", subject, reply.Error)
	}
	if out != nil && len(reply.Data) > 0 {
		if err := json.Unmarshal(reply.Data, out); err != nil {
			return fmt.Errorf("failed to unmarshal poll reply data: %w", err)
		}
	}
	return nil
}

// Exists reports whether a ballot id is already registered
func (s *NATSPollService) Exists(ctx context.Context, ballotID int64) (bool, error) {
	var result struct {
		Exists bool `json:"exists"`
	}
	err := s.call(ctx, pollSubjectExists, map[string]int64{"ballot_id": ballotID}, &result)
	if err != nil {
		return false, err
	}
	return result.Exists, nil
}

// RegisterPoll registers a new ballot
func (s *NATSPollService) RegisterPoll(ctx context.Context, ballotID int64, kind, publisher, denomination, scheme string, options []string) error {
	request := map[string]any{
		"ballot_id":    ballotID,
		"kind":         kind,
		"publisher":    publisher,
		"denomination": denomination,
		"scheme":       scheme,
		"options":      options,
	}
	return s.call(ctx, pollSubjectRegister, request, nil)
}

// SetDetails attaches title, description and content to a ballot
func (s *NATSPollService) SetDetails(ctx context.Context, ballotID int64, title, description, content string) error {
	request := map[string]any{
		"ballot_id":   ballotID,
		"title":       title,
		"description": description,
		"content":     content,
	}
	return s.call(ctx, pollSubjectDetails, request, nil)
}

// Open opens voting until the expiration
func (s *NATSPollService) Open(ctx context.Context, ballotID int64, expiration time.Time) error {
	request := map[string]any{
		"ballot_id":  ballotID,
		"expiration": expiration.UTC(),
	}
	return s.call(ctx, pollSubjectOpen, request, nil)
}

// Close finalizes a ballot, optionally marking it broadcastable
func (s *NATSPollService) Close(ctx context.Context, ballotID int64, broadcast bool) error {
	request := map[string]any{
		"ballot_id": ballotID,
		"broadcast": broadcast,
	}
	return s.call(ctx, pollSubjectClose, request, nil)
}

// Tally returns option totals and the total raw vote weight
func (s *NATSPollService) Tally(ctx context.Context, ballotID int64) (*interfaces.BallotTally, error) {
	var result struct {
		Options        map[string]entities.Quantity `json:"options"`
		TotalRawWeight entities.Quantity            `json:"total_raw_weight"`
	}
	err := s.call(ctx, pollSubjectTally, map[string]int64{"ballot_id": ballotID}, &result)
	if err != nil {
		return nil, err
	}
	return &interfaces.BallotTally{
		Options:        result.Options,
		TotalRawWeight: result.TotalRawWeight,
	}, nil
}

// TreasurySupply returns the total supply for a denomination
func (s *NATSPollService) TreasurySupply(ctx context.Context, symbol string) (entities.Quantity, error) {
	var result struct {
		Supply entities.Quantity `json:"supply"`
	}
	err := s.call(ctx, pollSubjectSupply, map[string]string{"symbol": symbol}, &result)
	if err != nil {
		return entities.Quantity{}, err
	}
	return result.Supply, nil
}

// Mint mints voting power directly to a recipient
func (s *NATSPollService) Mint(ctx context.Context, to string, quantity entities.Quantity, memo string) error {
	request := map[string]any{
		"to":       to,
		"quantity": quantity,
		"memo":     memo,
	}
	if err := s.call(ctx, pollSubjectMint, request, nil); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"to":       to,
		"quantity": quantity.String(),
	}).Debug("Minted voting power")
	return nil
}
