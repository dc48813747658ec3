package ledger

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/dmitrijs2005/linkup/internal/logging"
)

// StubClient keeps local development working without operator credentials.
// Account ids are synthetic and only accounts it created can be queried.
type StubClient struct {
	network string
	logger  logging.Logger

	mu       sync.Mutex
	accounts map[string]string
}

func NewStubClient(network string, logger logging.Logger) *StubClient {
	return &StubClient{
		network:  network,
		logger:   logger.With("module", "ledger", "mode", "stub"),
		accounts: make(map[string]string),
	}
}

func (s *StubClient) Network() string { return s.network }

func (s *StubClient) CreateAccount(ctx context.Context, kp *KeyPair) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var id string
	for {
		id = fmt.Sprintf("0.0.%d", rand.IntN(1_000_000))
		if _, taken := s.accounts[id]; !taken {
			break
		}
	}
	s.accounts[id] = kp.PublicKeyHex()

	s.logger.Warn(ctx, "ledger operator not configured, using placeholder account", "account_id", id)
	return id, nil
}

// Register records an account that was created elsewhere.
func (s *StubClient) Register(accountID, publicKeyHex string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[accountID] = publicKeyHex
}

func (s *StubClient) AccountPublicKey(_ context.Context, accountID string, _ Credentials) (string, error) {
	if !ValidAccountID(accountID) {
		return "", ErrMalformedID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	pub, ok := s.accounts[accountID]
	if !ok {
		return "", ErrAccountNotFound
	}
	return pub, nil
}

func (s *StubClient) ExecuteContract(ctx context.Context, signer Credentials, call ContractCall) (*Receipt, error) {
	now := time.Now()
	txID := fmt.Sprintf("%s@%d.%09d", signer.AccountID, now.Unix(), now.Nanosecond())
	s.logger.Warn(ctx, "ledger operator not configured, contract call not submitted",
		"contract_id", call.ContractID, "function", call.Function, "tx_id", txID)
	return &Receipt{TransactionID: txID, Status: "SUCCESS"}, nil
}

func (s *StubClient) Close() error { return nil }
