package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashBusinessName_Normalizes(t *testing.T) {
	a := HashBusinessName("Acme Co")
	b := HashBusinessName("  acme co ")

	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, HashBusinessName("Acme Company"))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "a@acme.test", NormalizeEmail("  A@Acme.TEST "))
}

func TestPurpose_Valid(t *testing.T) {
	assert.True(t, PurposeSignup.Valid())
	assert.True(t, PurposeLogin.Valid())
	assert.True(t, PurposePasswordReset.Valid())
	assert.False(t, Purpose("reset").Valid())
}

func TestExpired_IsInclusiveOfDeadline(t *testing.T) {
	now := time.Now()
	c := OtpChallenge{ExpiresAt: now}
	assert.True(t, c.Expired(now))
	assert.False(t, c.Expired(now.Add(-time.Second)))

	s := Session{ExpiresAt: now.Add(time.Minute)}
	assert.False(t, s.Expired(now))
}

func TestNewSellerProfile_OmitsSecrets(t *testing.T) {
	verified := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s := &Seller{
		ID:           "s-1",
		BusinessName: "Acme Co",
		Email:        "a@acme.test",
		PasswordHash: "$2a$12$secret",
		Country:      "Nigeria",
		VerifiedAt:   &verified,
		Wallet: &WalletRecord{
			AccountID:  "0.0.1234",
			Network:    "testnet",
			EVMAddress: "0xabc",
			PrivateKey: EncryptedSecret{IV: "iv", CipherText: "ct", AuthTag: "tag"},
			Mnemonic:   &EncryptedSecret{IV: "iv2", CipherText: "ct2", AuthTag: "tag2"},
		},
	}

	p := NewSellerProfile(s)
	require.NotNil(t, p.WalletAccountID)
	assert.Equal(t, "0.0.1234", *p.WalletAccountID)
	assert.Equal(t, "testnet", *p.WalletNetwork)
	assert.Equal(t, "0xabc", *p.WalletEVMAddress)

	b, err := json.Marshal(p)
	require.NoError(t, err)
	out := string(b)
	for _, leak := range []string{"secret", "ct2", "cipherText", "privateKey", "mnemonic", "passwordHash"} {
		assert.NotContains(t, out, leak)
	}
}

func TestNewSellerProfile_NoWallet(t *testing.T) {
	p := NewSellerProfile(&Seller{ID: "s-2"})

	b, err := json.Marshal(p)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"walletAccountId":null`)
	assert.Contains(t, string(b), `"verifiedAt":null`)
}
