package crypto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	enc, err := NewEncryptor(strings.Repeat("k", 32))
	require.NoError(t, err)

	ciphertext, err := enc.Encrypt([]byte("cg_secret_key_material"))
	require.NoError(t, err)
	assert.NotContains(t, ciphertext, "cg_secret")

	plaintext, err := enc.Decrypt(ciphertext)
	require.NoError(t, err)
	assert.Equal(t, "cg_secret_key_material", string(plaintext))
}

func TestEncryptProducesUniqueCiphertexts(t *testing.T) {
	enc, err := NewEncryptor(strings.Repeat("k", 32))
	require.NoError(t, err)

	a, err := enc.Encrypt([]byte("same input"))
	require.NoError(t, err)
	b, err := enc.Encrypt([]byte("same input"))
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestNewEncryptorRejectsBadKeyLength(t *testing.T) {
	_, err := NewEncryptor("short")
	assert.Error(t, err)
}

func TestDecryptRejectsTamperedCiphertext(t *testing.T) {
	enc, err := NewEncryptor(strings.Repeat("k", 32))
	require.NoError(t, err)

	ciphertext, err := enc.Encrypt([]byte("payload"))
	require.NoError(t, err)

	_, err = enc.Decrypt("AAAA" + ciphertext[4:])
	assert.Error(t, err)

	_, err = enc.Decrypt("not base64 !!!")
	assert.Error(t, err)
}
