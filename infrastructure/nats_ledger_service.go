package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"

	"govpay/config"
	"govpay/domain/entities"
	"govpay/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// Subjects served by the external token ledger.
const (
	ledgerSubjectIssue    = "ledger.tokens.issue"
	ledgerSubjectTransfer = "ledger.tokens.transfer"
)

// NATSLedgerService implements the LedgerService interface over NATS
// request/reply against the external token ledger. Issuance always lands
// on the engine's own account first; only transfers reach third parties.
type NATSLedgerService struct {
	natsClient *NATSClient
	config     *config.Config
}

// NewNATSLedgerService creates a new ledger service client
func NewNATSLedgerService(natsClient *NATSClient) interfaces.LedgerService {
	return &NATSLedgerService{
		natsClient: natsClient,
		config:     config.Get(),
	}
}

func (s *NATSLedgerService) call(ctx context.Context, subject string, request any) error {
	data, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("failed to marshal ledger request: %w", err)
	}

	replyData, err := s.natsClient.Request(ctx, subject, data)
	if err != nil {
		return err
	}

	var reply pollReply
	if err := json.Unmarshal(replyData, &reply); err != nil {
		return fmt.Errorf("failed to unmarshal ledger reply: %w", err)
	}
	if !reply.OK {
		return fmt.Errorf("ledger service rejected %s: %s", subject, reply.Error)
	}
	return nil
}

// Issue issues a quantity to the engine's own account
func (s *NATSLedgerService) Issue(ctx context.Context, quantity entities.Quantity, memo string) error {
	request := map[string]any{
		"to":       s.config.SystemAccount,
		"quantity": quantity,
		"memo":     memo,
	}
	return s.call(ctx, ledgerSubjectIssue, request)
}

// Transfer moves a quantity from the engine's account to a recipient
func (s *NATSLedgerService) Transfer(ctx context.Context, to string, quantity entities.Quantity, memo string) error {
	request := map[string]any{
		"from":     s.config.SystemAccount,
		"to":       to,
		"quantity": quantity,
		"memo":     memo,
	}
	if err := s.call(ctx, ledgerSubjectTransfer, request); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"to":       to,
		"quantity": quantity.String(),
	}).Debug("Transferred tokens")
	return nil
}
