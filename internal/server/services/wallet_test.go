package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/linkup/internal/common"
	"github.com/dmitrijs2005/linkup/internal/logging"
	"github.com/dmitrijs2005/linkup/internal/server/ledger"
	"github.com/dmitrijs2005/linkup/internal/server/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tyler-smith/go-bip39"
)

func storeSeller(t *testing.T, f *fixture, w *models.WalletRecord) *models.Seller {
	t.Helper()
	now := time.Now().UTC()
	id := uuid.NewString()
	s := &models.Seller{
		ID:               id,
		BusinessName:     "Acme " + id,
		BusinessNameHash: models.HashBusinessName("Acme " + id),
		Email:            id + "@acme.test",
		PasswordHash:     "x",
		Country:          "Nigeria",
		Wallet:           w,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	require.NoError(t, f.sellers.Create(context.Background(), s))
	return s
}

func TestWalletService_Provision(t *testing.T) {
	f := newFixture(t)

	w, err := f.wallets.Provision(context.Background())
	require.NoError(t, err)

	assert.Len(t, strings.Fields(w.Mnemonic), 24)
	assert.True(t, bip39.IsMnemonicValid(w.Mnemonic))

	rec := w.Record
	assert.True(t, ledger.ValidAccountID(rec.AccountID))
	assert.Equal(t, ledger.NetworkTestnet, rec.Network)
	assert.Equal(t, ledger.KeyTypeECDSA, rec.KeyType)
	assert.False(t, rec.SeedRetrieved)
	assert.NotEmpty(t, rec.EVMAddress)

	kp, err := ledger.DeriveKeyPair(w.Mnemonic, ledger.KeyTypeECDSA)
	require.NoError(t, err)
	assert.Equal(t, kp.PublicKeyHex(), rec.PublicKey)

	priv, err := f.vault.Decrypt(rec.PrivateKey)
	require.NoError(t, err)
	assert.Equal(t, kp.PrivateKeyHex(), priv)

	require.NotNil(t, rec.Mnemonic)
	phrase, err := f.vault.Decrypt(*rec.Mnemonic)
	require.NoError(t, err)
	assert.Equal(t, w.Mnemonic, phrase)

	onChain, err := f.ledger.AccountPublicKey(context.Background(), rec.AccountID, ledger.Credentials{})
	require.NoError(t, err)
	assert.Equal(t, rec.PublicKey, onChain)
}

func TestWalletService_ProvisionLedgerFailure(t *testing.T) {
	f := newFixture(t)
	svc := NewWalletService(&brokenLedger{Client: f.ledger, err: errors.New("boom")}, f.vault, f.sellers, ledger.KeyTypeECDSA, "", logging.Discard())

	_, err := svc.Provision(context.Background())
	requireKind(t, err, common.KindUpstream)
}

func TestWalletService_ImportOwnAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	custodial, err := f.wallets.Provision(ctx)
	require.NoError(t, err)
	external, err := f.wallets.Provision(ctx)
	require.NoError(t, err)

	seller := storeSeller(t, f, custodial.Record)

	rec, err := f.wallets.ImportFromSeed(ctx, seller, "  "+strings.ToUpper(external.Mnemonic)+" ", external.Record.AccountID)
	require.NoError(t, err)
	assert.True(t, rec.SeedRetrieved)
	assert.Equal(t, external.Record.AccountID, rec.AccountID)
	assert.Equal(t, external.Record.PublicKey, rec.PublicKey)
	assert.Equal(t, rec, seller.Wallet)

	stored, err := f.sellers.FindByID(ctx, seller.ID)
	require.NoError(t, err)
	assert.Equal(t, external.Record.AccountID, stored.Wallet.AccountID)

	phrase, err := f.wallets.RevealSeed(stored)
	require.NoError(t, err)
	assert.Equal(t, external.Mnemonic, phrase)
}

func TestWalletService_ImportMismatchLeavesWallet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	custodial, err := f.wallets.Provision(ctx)
	require.NoError(t, err)
	seller := storeSeller(t, f, custodial.Record)

	other, err := ledger.NewMnemonic()
	require.NoError(t, err)

	for name, accountID := range map[string]string{
		"key mismatch":    custodial.Record.AccountID,
		"unknown account": "0.0.999999999",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := f.wallets.ImportFromSeed(ctx, seller, other, accountID)
			requireKind(t, err, common.KindOwnership)
			assert.Equal(t, "Account ID does not match the provided mnemonic", common.MessageOf(err))

			stored, err := f.sellers.FindByID(ctx, seller.ID)
			require.NoError(t, err)
			assert.Equal(t, custodial.Record, stored.Wallet)
			assert.Equal(t, custodial.Record, seller.Wallet)
		})
	}
}

func TestWalletService_ImportValidation(t *testing.T) {
	f := newFixture(t)
	seller := storeSeller(t, f, nil)

	_, err := f.wallets.ImportFromSeed(context.Background(), seller, "abandon abandon abandon", "0.0.42")
	requireKind(t, err, common.KindValidation)

	_, err = f.wallets.ImportFromSeed(context.Background(), seller, testMnemonicPhrase, "0x42")
	requireKind(t, err, common.KindValidation)
}

const testMnemonicPhrase = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func TestWalletService_Credentials(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.wallets.Credentials(&models.Seller{})
	requireKind(t, err, common.KindValidation)
	assert.Equal(t, "Seller wallet is not provisioned", common.MessageOf(err))

	w, err := f.wallets.Provision(ctx)
	require.NoError(t, err)
	seller := &models.Seller{Wallet: w.Record}

	creds, err := f.wallets.Credentials(seller)
	require.NoError(t, err)
	assert.Equal(t, w.Record.AccountID, creds.AccountID)
	assert.Equal(t, w.Record.PublicKey, creds.Keys.PublicKeyHex())

	tampered := *w.Record
	tampered.PrivateKey.AuthTag = tampered.PrivateKey.IV
	_, err = f.wallets.Credentials(&models.Seller{Wallet: &tampered})
	requireKind(t, err, common.KindIntegrity)
}

func TestWalletService_ExecuteContract(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	w, err := f.wallets.Provision(ctx)
	require.NoError(t, err)
	seller := &models.Seller{Wallet: w.Record}

	r, err := f.wallets.ExecuteContract(ctx, seller, ledger.ContractCall{Function: "pay()"})
	require.NoError(t, err)
	assert.Equal(t, "SUCCESS", r.Status)

	noContract := NewWalletService(f.ledger, f.vault, f.sellers, ledger.KeyTypeECDSA, "", logging.Discard())
	_, err = noContract.ExecuteContract(ctx, seller, ledger.ContractCall{Function: "pay()"})
	requireKind(t, err, common.KindValidation)

	broken := NewWalletService(&brokenLedger{Client: f.ledger, err: errors.New("boom")}, f.vault, f.sellers, ledger.KeyTypeECDSA, "0.0.1", logging.Discard())
	_, err = broken.ExecuteContract(ctx, seller, ledger.ContractCall{Function: "pay()"})
	requireKind(t, err, common.KindUpstream)
}

func TestWalletService_RevealSeedWithoutWallet(t *testing.T) {
	f := newFixture(t)
	phrase, err := f.wallets.RevealSeed(&models.Seller{})
	require.NoError(t, err)
	assert.Empty(t, phrase)
}
