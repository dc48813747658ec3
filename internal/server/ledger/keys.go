// Package ledger derives wallet keys from BIP-39 mnemonics and talks to the
// Hedera network, or to an in-process stub when no operator is configured.
package ledger

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/dmitrijs2005/linkup/internal/common"
	"github.com/ethereum/go-ethereum/crypto"
	hedera "github.com/hashgraph/hedera-sdk-go/v2"
	"github.com/tyler-smith/go-bip39"
)

const (
	KeyTypeED25519 = "ED25519"
	KeyTypeECDSA   = "ECDSA"

	// SLIP-44 coin type registered for Hedera.
	hederaCoinType = 3030
)

var ErrInvalidMnemonic = errors.New("invalid mnemonic")

// KeyPair is a raw private/public key pair of one signature scheme.
// ED25519 public keys are 32 bytes; ECDSA (secp256k1) ones are 33-byte
// compressed points.
type KeyPair struct {
	Type       string
	PrivateKey []byte
	PublicKey  []byte
}

func (k *KeyPair) PrivateKeyHex() string { return hex.EncodeToString(k.PrivateKey) }
func (k *KeyPair) PublicKeyHex() string  { return hex.EncodeToString(k.PublicKey) }

// EVMAddress returns the 0x-prefixed alias address of an ECDSA key, or ""
// for ED25519 keys, which have none.
func (k *KeyPair) EVMAddress() string {
	if k.Type != KeyTypeECDSA {
		return ""
	}
	priv, err := crypto.ToECDSA(k.PrivateKey)
	if err != nil {
		return ""
	}
	return crypto.PubkeyToAddress(priv.PublicKey).Hex()
}

// Wipe zeroes the private key in place.
func (k *KeyPair) Wipe() {
	common.WipeByteArray(k.PrivateKey)
}

// NewMnemonic returns a fresh 24-word BIP-39 phrase.
func NewMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(256)
	if err != nil {
		return "", fmt.Errorf("failed to generate entropy: %w", err)
	}
	defer common.WipeByteArray(entropy)

	m, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("failed to generate mnemonic: %w", err)
	}
	return m, nil
}

// NormalizeMnemonic collapses whitespace and lowercases the phrase.
func NormalizeMnemonic(m string) string {
	return strings.ToLower(strings.Join(strings.Fields(m), " "))
}

// DeriveKeyPair derives the account key at index 0 using the same
// paths as the Hedera wallets: m/44'/3030'/0'/0'/0' (SLIP-10) for ED25519
// and m/44'/3030'/0'/0/0 (BIP-32) for ECDSA.
func DeriveKeyPair(mnemonic, keyType string) (*KeyPair, error) {
	mnemonic = NormalizeMnemonic(mnemonic)
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, "")
	if err != nil {
		return nil, ErrInvalidMnemonic
	}
	defer common.WipeByteArray(seed)

	switch keyType {
	case KeyTypeED25519:
		return ed25519FromMnemonic(mnemonic)
	case KeyTypeECDSA:
		return secp256k1FromSeed(seed)
	default:
		return nil, fmt.Errorf("unsupported key type %q", keyType)
	}
}

// KeyPairFromPrivateHex rebuilds a pair from a stored raw private key.
func KeyPairFromPrivateHex(privHex, keyType string) (*KeyPair, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(privHex, "0x"))
	if err != nil || len(raw) != 32 {
		return nil, errors.New("malformed private key")
	}

	switch keyType {
	case KeyTypeED25519:
		sk, err := hedera.PrivateKeyFromBytesEd25519(raw)
		if err != nil {
			return nil, fmt.Errorf("malformed private key: %w", err)
		}
		return ed25519Pair(sk), nil
	case KeyTypeECDSA:
		priv, err := crypto.ToECDSA(raw)
		if err != nil {
			return nil, fmt.Errorf("malformed private key: %w", err)
		}
		return &KeyPair{
			Type:       KeyTypeECDSA,
			PrivateKey: raw,
			PublicKey:  crypto.CompressPubkey(&priv.PublicKey),
		}, nil
	default:
		return nil, fmt.Errorf("unsupported key type %q", keyType)
	}
}

func hardened(i uint32) uint32 { return i + hdkeychain.HardenedKeyStart }

// ed25519FromMnemonic uses the SDK's SLIP-10 derivation, which only
// accepts 12 and 24 word phrases.
func ed25519FromMnemonic(mnemonic string) (*KeyPair, error) {
	m, err := hedera.MnemonicFromString(mnemonic)
	if err != nil {
		return nil, ErrInvalidMnemonic
	}
	sk, err := m.ToStandardEd25519PrivateKey("", 0)
	if err != nil {
		return nil, fmt.Errorf("derive ed25519 key: %w", err)
	}
	return ed25519Pair(sk), nil
}

func ed25519Pair(sk hedera.PrivateKey) *KeyPair {
	priv := append([]byte(nil), sk.BytesRaw()...)
	return &KeyPair{
		Type:       KeyTypeED25519,
		PrivateKey: priv,
		PublicKey:  sk.PublicKey().BytesRaw(),
	}
}

func secp256k1FromSeed(seed []byte) (*KeyPair, error) {
	master, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, fmt.Errorf("failed to create master key: %w", err)
	}
	defer master.Zero()

	key := master
	for _, idx := range []uint32{hardened(44), hardened(hederaCoinType), hardened(0), 0, 0} {
		key, err = key.Derive(idx)
		if err != nil {
			return nil, fmt.Errorf("derive child %d: %w", idx, err)
		}
	}

	priv, err := key.ECPrivKey()
	if err != nil {
		return nil, err
	}
	return &KeyPair{
		Type:       KeyTypeECDSA,
		PrivateKey: priv.Serialize(),
		PublicKey:  priv.PubKey().SerializeCompressed(),
	}, nil
}
