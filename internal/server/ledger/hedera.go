package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dmitrijs2005/linkup/internal/logging"
	"github.com/ethereum/go-ethereum/crypto"
	hedera "github.com/hashgraph/hedera-sdk-go/v2"
)

// ErrClosed is returned by a HederaNetwork closed before its first use.
var ErrClosed = errors.New("ledger client closed")

type HederaConfig struct {
	Network            string
	KeyType            string
	OperatorID         string
	OperatorKey        string
	InitialBalanceHbar float64
}

// HederaNetwork talks to a real Hedera network. The operator client that
// pays for account creation is built on first use and shared; wallet-signed
// calls get their own client which is closed before returning.
type HederaNetwork struct {
	cfg    HederaConfig
	logger logging.Logger

	once     sync.Once
	operator *hedera.Client
	opErr    error
}

func NewHederaNetwork(cfg HederaConfig, logger logging.Logger) *HederaNetwork {
	return &HederaNetwork{cfg: cfg, logger: logger.With("module", "ledger")}
}

func (h *HederaNetwork) Network() string { return h.cfg.Network }

func clientForNetwork(name string) *hedera.Client {
	switch name {
	case NetworkMainnet:
		return hedera.ClientForMainnet()
	case NetworkPreviewnet:
		return hedera.ClientForPreviewnet()
	default:
		return hedera.ClientForTestnet()
	}
}

func (h *HederaNetwork) operatorClient() (*hedera.Client, error) {
	h.once.Do(func() {
		id, err := hedera.AccountIDFromString(h.cfg.OperatorID)
		if err != nil {
			h.opErr = fmt.Errorf("operator id: %w", err)
			return
		}

		var key hedera.PrivateKey
		if h.cfg.KeyType == KeyTypeECDSA {
			key, err = hedera.PrivateKeyFromStringECDSA(strings.TrimPrefix(h.cfg.OperatorKey, "0x"))
		} else {
			key, err = hedera.PrivateKeyFromString(h.cfg.OperatorKey)
		}
		if err != nil {
			h.opErr = fmt.Errorf("operator key: %w", err)
			return
		}

		c := clientForNetwork(h.cfg.Network)
		c.SetOperator(id, key)
		h.operator = c
	})
	return h.operator, h.opErr
}

func hederaKey(kp *KeyPair) (hedera.PrivateKey, error) {
	switch kp.Type {
	case KeyTypeED25519:
		return hedera.PrivateKeyFromBytesEd25519(kp.PrivateKey)
	case KeyTypeECDSA:
		return hedera.PrivateKeyFromBytesECDSA(kp.PrivateKey)
	default:
		return hedera.PrivateKey{}, fmt.Errorf("unsupported key type %q", kp.Type)
	}
}

func (h *HederaNetwork) walletClient(signer Credentials) (*hedera.Client, error) {
	if signer.Keys == nil {
		return nil, fmt.Errorf("missing signer keys")
	}
	id, err := hedera.AccountIDFromString(signer.AccountID)
	if err != nil {
		return nil, ErrMalformedID
	}
	key, err := hederaKey(signer.Keys)
	if err != nil {
		return nil, err
	}

	c := clientForNetwork(h.cfg.Network)
	c.SetOperator(id, key)
	return c, nil
}

func (h *HederaNetwork) CreateAccount(ctx context.Context, kp *KeyPair) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	op, err := h.operatorClient()
	if err != nil {
		return "", err
	}
	key, err := hederaKey(kp)
	if err != nil {
		return "", err
	}

	resp, err := hedera.NewAccountCreateTransaction().
		SetKey(key.PublicKey()).
		SetInitialBalance(hedera.NewHbar(h.cfg.InitialBalanceHbar)).
		Execute(op)
	if err != nil {
		return "", fmt.Errorf("account create: %w", err)
	}

	receipt, err := resp.GetReceipt(op)
	if err != nil {
		return "", fmt.Errorf("account create receipt: %w", err)
	}
	if receipt.AccountID == nil {
		return "", fmt.Errorf("account create: receipt has no account id (status %s)", receipt.Status)
	}

	h.logger.Info(ctx, "ledger account created", "account_id", receipt.AccountID.String(), "network", h.cfg.Network)
	return receipt.AccountID.String(), nil
}

func (h *HederaNetwork) AccountPublicKey(ctx context.Context, accountID string, signer Credentials) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	id, err := hedera.AccountIDFromString(accountID)
	if err != nil {
		return "", ErrMalformedID
	}

	c, err := h.walletClient(signer)
	if err != nil {
		return "", err
	}
	defer c.Close()

	info, err := hedera.NewAccountInfoQuery().
		SetAccountID(id).
		SetMaxQueryPayment(hedera.NewHbar(1)).
		Execute(c)
	if err != nil {
		return "", fmt.Errorf("account info: %w", err)
	}

	// Threshold keys and key lists never match a single derived key.
	switch k := info.Key.(type) {
	case hedera.PublicKey:
		return strings.ToLower(k.StringRaw()), nil
	default:
		return "", fmt.Errorf("account %s has unsupported key %T", accountID, info.Key)
	}
}

// ExecuteContract signs with the wallet key. call.Function is the canonical
// signature, e.g. "pay(address,uint256)"; its selector is prepended to
// call.Params.
func (h *HederaNetwork) ExecuteContract(ctx context.Context, signer Credentials, call ContractCall) (*Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cid, err := hedera.ContractIDFromString(call.ContractID)
	if err != nil {
		return nil, fmt.Errorf("contract id: %w", err)
	}

	c, err := h.walletClient(signer)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	gas := call.Gas
	if gas == 0 {
		gas = DefaultContractGas
	}

	resp, err := hedera.NewContractExecuteTransaction().
		SetContractID(cid).
		SetGas(gas).
		SetFunctionParameters(CallData(call)).
		Execute(c)
	if err != nil {
		return nil, fmt.Errorf("contract execute: %w", err)
	}

	receipt, err := resp.GetReceipt(c)
	if err != nil {
		return nil, fmt.Errorf("contract execute receipt: %w", err)
	}

	return &Receipt{TransactionID: resp.TransactionID.String(), Status: receipt.Status.String()}, nil
}

// CallData returns the selector of call.Function followed by call.Params.
// An empty Function sends Params as-is.
func CallData(call ContractCall) []byte {
	if call.Function == "" {
		return call.Params
	}
	data := make([]byte, 0, 4+len(call.Params))
	data = append(data, crypto.Keccak256([]byte(call.Function))[:4]...)
	return append(data, call.Params...)
}

func (h *HederaNetwork) Close() error {
	// an operator that was never built stays unbuilt
	h.once.Do(func() { h.opErr = ErrClosed })
	if h.operator != nil {
		return h.operator.Close()
	}
	return nil
}
