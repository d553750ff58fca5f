package store

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSealUnseal(t *testing.T) {
	sealed, err := Seal([]byte("sk-ant-api03-secret"), "passphrase")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sealed, sealPrefix))
	assert.NotContains(t, sealed, "secret")

	plain, err := Unseal(sealed, "passphrase")
	require.NoError(t, err)
	assert.Equal(t, "sk-ant-api03-secret", string(plain))
}

func TestSeal_RandomSaltAndNonce(t *testing.T) {
	a, err := Seal([]byte("same"), "pw")
	require.NoError(t, err)
	b, err := Seal([]byte("same"), "pw")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestUnseal_Errors(t *testing.T) {
	sealed, err := Seal([]byte("value"), "right")
	require.NoError(t, err)

	_, err = Unseal(sealed, "wrong")
	assert.ErrorIs(t, err, ErrWrongPassphrase)

	_, err = Unseal("plain-value", "right")
	assert.ErrorContains(t, err, "unsupported")

	_, err = Unseal(sealPrefix+"!!!", "right")
	assert.ErrorContains(t, err, "failed to decode")

	_, err = Unseal(sealPrefix+"c2hvcnQ=", "right")
	assert.ErrorIs(t, err, ErrWrongPassphrase)
}
