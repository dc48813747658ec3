package ledger

import (
	"context"
	"errors"
	"regexp"
	"strings"
)

const (
	NetworkMainnet    = "mainnet"
	NetworkTestnet    = "testnet"
	NetworkPreviewnet = "previewnet"

	DefaultContractGas = 500_000
)

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrMalformedID     = errors.New("malformed account id")
)

var accountIDPattern = regexp.MustCompile(`^\d+\.\d+\.\d+$`)

// ValidAccountID reports whether s has the shard.realm.num shape.
func ValidAccountID(s string) bool {
	return accountIDPattern.MatchString(strings.TrimSpace(s))
}

// Credentials identify a wallet able to sign its own transactions.
type Credentials struct {
	AccountID string
	Keys      *KeyPair
}

// ContractCall carries already-encoded call data; the ledger does not know
// about contract ABIs.
type ContractCall struct {
	ContractID string
	Function   string
	Params     []byte
	Gas        uint64
}

type Receipt struct {
	TransactionID string
	Status        string
}

// Client is the ledger surface used by wallet custody. Implementations must
// release any per-call network resources before returning.
type Client interface {
	Network() string
	// CreateAccount funds a new account keyed by kp and returns its id.
	CreateAccount(ctx context.Context, kp *KeyPair) (string, error)
	// AccountPublicKey returns the raw hex public key currently registered for
	// accountID. The query is paid for by the signer.
	AccountPublicKey(ctx context.Context, accountID string, signer Credentials) (string, error)
	ExecuteContract(ctx context.Context, signer Credentials, call ContractCall) (*Receipt, error)
	Close() error
}
