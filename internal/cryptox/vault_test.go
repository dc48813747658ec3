package cryptox

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMaster = "0123456789abcdef0123456789abcdef"

func newVault(t *testing.T, key string) *Vault {
	t.Helper()
	v, err := NewVault(key)
	require.NoError(t, err)
	return v
}

func TestVault_RoundTrip(t *testing.T) {
	v := newVault(t, testMaster)

	for _, p := range []string{
		"",
		"302e020100300506032b657004220420aa",
		"legal winner thank year wave sausage worth useful legal winner thank yellow",
		strings.Repeat("x", 4096),
		"ünïcödé",
	} {
		sealed, err := v.Encrypt(p)
		require.NoError(t, err)

		got, err := v.Decrypt(sealed)
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}
}

func TestVault_FreshNoncePerCall(t *testing.T) {
	v := newVault(t, testMaster)

	a, err := v.Encrypt("same")
	require.NoError(t, err)
	b, err := v.Encrypt("same")
	require.NoError(t, err)

	assert.NotEqual(t, a.IV, b.IV)
	assert.NotEqual(t, a.CipherText, b.CipherText)

	iv, err := base64.StdEncoding.DecodeString(a.IV)
	require.NoError(t, err)
	assert.Len(t, iv, 12)
}

func flipFirstByte(t *testing.T, s string) string {
	t.Helper()
	b, err := base64.StdEncoding.DecodeString(s)
	require.NoError(t, err)
	require.NotEmpty(t, b)
	b[0] ^= 0xff
	return base64.StdEncoding.EncodeToString(b)
}

func TestVault_TamperFailsClosed(t *testing.T) {
	v := newVault(t, testMaster)
	sealed, err := v.Encrypt("private key material")
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(s EncryptedSecret) EncryptedSecret
	}{
		{"ciphertext", func(s EncryptedSecret) EncryptedSecret { s.CipherText = flipFirstByte(t, s.CipherText); return s }},
		{"tag", func(s EncryptedSecret) EncryptedSecret { s.AuthTag = flipFirstByte(t, s.AuthTag); return s }},
		{"iv", func(s EncryptedSecret) EncryptedSecret { s.IV = flipFirstByte(t, s.IV); return s }},
		{"short tag", func(s EncryptedSecret) EncryptedSecret { s.AuthTag = base64.StdEncoding.EncodeToString([]byte("short")); return s }},
		{"not base64", func(s EncryptedSecret) EncryptedSecret { s.CipherText = "%%%"; return s }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := v.Decrypt(tt.mutate(sealed))
			assert.ErrorIs(t, err, ErrIntegrity)
			assert.Empty(t, got)
		})
	}
}

func TestVault_WrongKey(t *testing.T) {
	sealed, err := newVault(t, testMaster).Encrypt("seed")
	require.NoError(t, err)

	got, err := newVault(t, strings.Repeat("z", 32)).Decrypt(sealed)
	assert.ErrorIs(t, err, ErrIntegrity)
	assert.Empty(t, got)
}

func TestVault_SameMasterKeyDecryptsAcrossInstances(t *testing.T) {
	sealed, err := newVault(t, testMaster).Encrypt("persisted")
	require.NoError(t, err)

	got, err := newVault(t, testMaster).Decrypt(sealed)
	require.NoError(t, err)
	assert.Equal(t, "persisted", got)
}

func TestNewVault_EmptyKey(t *testing.T) {
	_, err := NewVault("")
	assert.Error(t, err)
}
