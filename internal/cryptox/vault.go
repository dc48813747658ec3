// Package cryptox implements the at-rest secret vault: AES-256-GCM with a
// key derived once from a configured master secret.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/linkup/internal/common"
)

const (
	nonceSize = 12
	tagSize   = 16
)

// ErrIntegrity is returned when a sealed secret fails authentication,
// either because it was tampered with or because the key is wrong.
var ErrIntegrity = errors.New("secret integrity check failed")

// EncryptedSecret is the storable envelope. Every field is base64.
type EncryptedSecret struct {
	IV         string `json:"iv" bson:"iv"`
	CipherText string `json:"cipherText" bson:"cipherText"`
	AuthTag    string `json:"authTag" bson:"authTag"`
}

// Vault seals and opens short secrets such as private keys and mnemonics.
// It is safe for concurrent use; the AEAD is built once in NewVault and
// never mutated afterwards.
type Vault struct {
	aead cipher.AEAD
}

// NewVault derives a 256-bit key as sha256(masterKey).
func NewVault(masterKey string) (*Vault, error) {
	if masterKey == "" {
		return nil, errors.New("vault master key is empty")
	}
	key := sha256.Sum256([]byte(masterKey))
	defer common.WipeByteArray(key[:])

	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("aes init: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("gcm init: %w", err)
	}
	return &Vault{aead: aead}, nil
}

// Encrypt seals plainText under a fresh random 96-bit nonce.
func (v *Vault) Encrypt(plainText string) (EncryptedSecret, error) {
	nonce := common.GenerateRandByteArray(nonceSize)

	sealed := v.aead.Seal(nil, nonce, []byte(plainText), nil)
	ct, tag := sealed[:len(sealed)-tagSize], sealed[len(sealed)-tagSize:]

	return EncryptedSecret{
		IV:         base64.StdEncoding.EncodeToString(nonce),
		CipherText: base64.StdEncoding.EncodeToString(ct),
		AuthTag:    base64.StdEncoding.EncodeToString(tag),
	}, nil
}

// Decrypt opens s. Any malformed field or failed tag check yields
// ErrIntegrity and no plaintext.
func (v *Vault) Decrypt(s EncryptedSecret) (string, error) {
	nonce, err := base64.StdEncoding.DecodeString(s.IV)
	if err != nil || len(nonce) != nonceSize {
		return "", ErrIntegrity
	}
	ct, err := base64.StdEncoding.DecodeString(s.CipherText)
	if err != nil {
		return "", ErrIntegrity
	}
	tag, err := base64.StdEncoding.DecodeString(s.AuthTag)
	if err != nil || len(tag) != tagSize {
		return "", ErrIntegrity
	}

	sealed := make([]byte, 0, len(ct)+len(tag))
	sealed = append(sealed, ct...)
	sealed = append(sealed, tag...)

	plain, err := v.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", ErrIntegrity
	}
	return string(plain), nil
}
