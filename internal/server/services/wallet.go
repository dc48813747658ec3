package services

import (
	"context"
	"errors"
	"strings"

	"github.com/dmitrijs2005/linkup/internal/common"
	"github.com/dmitrijs2005/linkup/internal/cryptox"
	"github.com/dmitrijs2005/linkup/internal/logging"
	"github.com/dmitrijs2005/linkup/internal/server/ledger"
	"github.com/dmitrijs2005/linkup/internal/server/models"
	"github.com/dmitrijs2005/linkup/internal/server/repositories/sellers"
)

const (
	msgOwnershipMismatch = "Account ID does not match the provided mnemonic"
	msgWalletMissing     = "Seller wallet is not provisioned"
)

// ProvisionedWallet is a storable wallet record plus the plaintext phrase,
// which the caller shows to the owner once.
type ProvisionedWallet struct {
	Record   *models.WalletRecord
	Mnemonic string
}

// WalletService creates custodial wallets, imports self-custodied ones after
// an on-chain ownership check and unlocks stored keys for signing.
type WalletService struct {
	ledger     ledger.Client
	vault      *cryptox.Vault
	sellers    sellers.Repository
	keyType    string
	contractID string
	logger     logging.Logger
}

func NewWalletService(client ledger.Client, vault *cryptox.Vault, sellers sellers.Repository, keyType, contractID string, logger logging.Logger) *WalletService {
	return &WalletService{
		ledger:     client,
		vault:      vault,
		sellers:    sellers,
		keyType:    keyType,
		contractID: contractID,
		logger:     logger.With("module", "wallet"),
	}
}

// Provision generates a mnemonic, funds a new ledger account for it and
// returns the sealed record.
func (s *WalletService) Provision(ctx context.Context) (*ProvisionedWallet, error) {
	mnemonic, err := ledger.NewMnemonic()
	if err != nil {
		return nil, common.Internal("Failed to generate wallet", err)
	}

	kp, err := ledger.DeriveKeyPair(mnemonic, s.keyType)
	if err != nil {
		return nil, common.Internal("Failed to derive wallet keys", err)
	}
	defer kp.Wipe()

	accountID, err := s.ledger.CreateAccount(ctx, kp)
	if err != nil {
		return nil, common.Upstream("Failed to create ledger account", err)
	}

	rec, err := s.seal(accountID, kp, mnemonic, false)
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "wallet provisioned", "account_id", accountID, "network", rec.Network)
	return &ProvisionedWallet{Record: rec, Mnemonic: mnemonic}, nil
}

// ImportFromSeed replaces seller's wallet with the account controlled by
// mnemonic. The ledger must report the derived public key for accountID;
// on any failure the stored wallet is left untouched.
func (s *WalletService) ImportFromSeed(ctx context.Context, seller *models.Seller, mnemonic, accountID string) (*models.WalletRecord, error) {
	accountID = strings.TrimSpace(accountID)
	if !ledger.ValidAccountID(accountID) {
		return nil, common.Validation("Invalid account id")
	}

	kp, err := ledger.DeriveKeyPair(mnemonic, s.keyType)
	if errors.Is(err, ledger.ErrInvalidMnemonic) {
		return nil, common.Validation("Invalid mnemonic")
	}
	if err != nil {
		return nil, common.Internal("Failed to derive wallet keys", err)
	}
	defer kp.Wipe()

	onChain, err := s.ledger.AccountPublicKey(ctx, accountID, ledger.Credentials{AccountID: accountID, Keys: kp})
	if err != nil {
		s.logger.Warn(ctx, "wallet ownership query failed", "account_id", accountID, "error", err)
		return nil, common.Ownership(msgOwnershipMismatch, err)
	}
	if !strings.EqualFold(onChain, kp.PublicKeyHex()) {
		return nil, common.Ownership(msgOwnershipMismatch, nil)
	}

	rec, err := s.seal(accountID, kp, ledger.NormalizeMnemonic(mnemonic), true)
	if err != nil {
		return nil, err
	}

	updated := *seller
	updated.Wallet = rec
	if err := s.sellers.Update(ctx, &updated); err != nil {
		return nil, common.Internal("Failed to store wallet", err)
	}
	*seller = updated

	s.logger.Info(ctx, "wallet imported", "seller_id", seller.ID, "account_id", accountID)
	return rec, nil
}

func (s *WalletService) seal(accountID string, kp *ledger.KeyPair, mnemonic string, seedRetrieved bool) (*models.WalletRecord, error) {
	priv, err := s.vault.Encrypt(kp.PrivateKeyHex())
	if err != nil {
		return nil, common.Internal("Failed to encrypt wallet key", err)
	}
	phrase, err := s.vault.Encrypt(mnemonic)
	if err != nil {
		return nil, common.Internal("Failed to encrypt wallet key", err)
	}

	return &models.WalletRecord{
		AccountID:     accountID,
		PublicKey:     kp.PublicKeyHex(),
		Network:       s.ledger.Network(),
		KeyType:       kp.Type,
		EVMAddress:    kp.EVMAddress(),
		PrivateKey:    priv,
		Mnemonic:      &phrase,
		SeedRetrieved: seedRetrieved,
	}, nil
}

// Credentials unlocks the seller's signing key.
func (s *WalletService) Credentials(seller *models.Seller) (*ledger.Credentials, error) {
	w := seller.Wallet
	if w == nil || w.AccountID == "" {
		return nil, common.Validation(msgWalletMissing)
	}

	priv, err := s.vault.Decrypt(w.PrivateKey)
	if err != nil {
		return nil, common.Integrity("Failed to unlock wallet key", err)
	}

	keyType := w.KeyType
	if keyType == "" {
		keyType = s.keyType
	}
	kp, err := ledger.KeyPairFromPrivateHex(priv, keyType)
	if err != nil {
		return nil, common.Integrity("Failed to unlock wallet key", err)
	}

	return &ledger.Credentials{AccountID: w.AccountID, Keys: kp}, nil
}

// ExecuteContract signs call with the seller's wallet. An empty ContractID
// targets the configured default contract.
func (s *WalletService) ExecuteContract(ctx context.Context, seller *models.Seller, call ledger.ContractCall) (*ledger.Receipt, error) {
	if call.ContractID == "" {
		call.ContractID = s.contractID
	}
	if call.ContractID == "" {
		return nil, common.Validation("Contract is not configured")
	}

	creds, err := s.Credentials(seller)
	if err != nil {
		return nil, err
	}
	defer creds.Keys.Wipe()

	r, err := s.ledger.ExecuteContract(ctx, *creds, call)
	if err != nil {
		return nil, common.Upstream("Contract call failed", err)
	}
	return r, nil
}

// RevealSeed decrypts the stored mnemonic. It returns "" when the wallet
// holds none.
func (s *WalletService) RevealSeed(seller *models.Seller) (string, error) {
	if seller.Wallet == nil || seller.Wallet.Mnemonic == nil {
		return "", nil
	}
	phrase, err := s.vault.Decrypt(*seller.Wallet.Mnemonic)
	if err != nil {
		return "", common.Integrity("Failed to unlock wallet seed", err)
	}
	return phrase, nil
}
