// Package models defines the server-side records persisted by the
// repositories and the client-facing projections built from them.
package models

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/dmitrijs2005/linkup/internal/cryptox"
)

// EncryptedSecret is a vault envelope embedded in a wallet record.
type EncryptedSecret = cryptox.EncryptedSecret

// Seller is a merchant identity. It starts unverified and gains VerifiedAt
// once, on the first successful signup code check.
type Seller struct {
	ID               string        `bson:"_id"`
	BusinessName     string        `bson:"businessName"`
	BusinessNameHash string        `bson:"businessNameHash"`
	Email            string        `bson:"email"`
	PasswordHash     string        `bson:"passwordHash"`
	Country          string        `bson:"country"`
	Wallet           *WalletRecord `bson:"wallet,omitempty"`
	VerifiedAt       *time.Time    `bson:"verifiedAt,omitempty"`
	CreatedAt        time.Time     `bson:"createdAt"`
	UpdatedAt        time.Time     `bson:"updatedAt"`
}

func (s *Seller) Verified() bool { return s.VerifiedAt != nil }

// WalletRecord is the ledger account attached to a seller. It is replaced
// wholesale on import, never merged.
type WalletRecord struct {
	AccountID     string           `json:"accountId" bson:"accountId"`
	PublicKey     string           `json:"publicKey" bson:"publicKey"`
	Network       string           `json:"network" bson:"network"`
	KeyType       string           `json:"keyType" bson:"keyType"`
	EVMAddress    string           `json:"evmAddress,omitempty" bson:"evmAddress,omitempty"`
	PrivateKey    EncryptedSecret  `json:"privateKey" bson:"privateKey"`
	Mnemonic      *EncryptedSecret `json:"mnemonic,omitempty" bson:"mnemonic,omitempty"`
	SeedRetrieved bool             `json:"seedRetrieved" bson:"seedRetrieved"`
}

// NormalizeEmail trims and lowercases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// HashBusinessName returns hex(sha256(lower(trim(name)))). Uniqueness is
// enforced on this value.
func HashBusinessName(name string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(name))))
	return hex.EncodeToString(sum[:])
}
