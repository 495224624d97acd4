package credentials_test

import (
	"strings"
	"testing"

	"storefront/internal/credentials"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestLegacy_IsDeterministic(t *testing.T) {
	h := credentials.Legacy{}

	a, err := h.Hash("password123")
	require.NoError(t, err)
	b, err := h.Hash("password123")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	// SHA-256("password123"), base64.
	assert.Equal(t, "75K3eLr+dx6JJFuJ7LwIpEpOFmwGZZkRiB84PURz6U8=", a)
	assert.Len(t, a, 44)
}

func TestLegacy_Verify(t *testing.T) {
	h := credentials.Legacy{}
	digest, _ := h.Hash("secret")

	ok, err := h.Verify("secret", digest)
	require.NoError(t, err)
	assert.True(t, ok)

	for _, wrong := range []string{"", "Secret", "secret ", "secret1"} {
		ok, err = h.Verify(wrong, digest)
		require.NoError(t, err)
		assert.False(t, ok, "password %q must not verify", wrong)
	}
}

func TestBcrypt_HashAndVerify(t *testing.T) {
	h := credentials.Bcrypt{Cost: bcrypt.MinCost}

	digest, err := h.Hash("secret")
	require.NoError(t, err)
	assert.True(t, credentials.IsBcrypt(digest))

	ok, err := h.Verify("secret", digest)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify("wrong", digest)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = h.Verify("secret", "$2a$garbage")
	assert.ErrorIs(t, err, credentials.ErrMalformedDigest)
}

func TestBcrypt_LongPasswords(t *testing.T) {
	m := credentials.NewMigrating(bcrypt.MinCost)
	p := strings.Repeat("a", credentials.MaxPasswordBytes)

	digest, err := m.Hash(p)
	require.NoError(t, err)

	ok, err := m.Verify(p, digest)
	require.NoError(t, err)
	assert.True(t, ok)

	// bcrypt ignores everything past the 72nd byte.
	ok, err = m.Verify(p+"DIFFERENT", digest)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = m.Hash(p + "x")
	assert.ErrorIs(t, err, credentials.ErrPasswordTooLong)
}

func TestMigrating_AcceptsBothSchemes(t *testing.T) {
	m := credentials.NewMigrating(bcrypt.MinCost)

	legacy, _ := credentials.Legacy{}.Hash("secret")
	ok, err := m.Verify("secret", legacy)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, m.NeedsRehash(legacy))

	fresh, err := m.Hash("secret")
	require.NoError(t, err)
	assert.True(t, credentials.IsBcrypt(fresh))
	ok, err = m.Verify("secret", fresh)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, m.NeedsRehash(fresh))

	ok, err = m.Verify("other", legacy)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMigrating_NeedsRehashOnLowerCost(t *testing.T) {
	low, err := credentials.Bcrypt{Cost: bcrypt.MinCost}.Hash("secret")
	require.NoError(t, err)

	m := credentials.NewMigrating(bcrypt.MinCost + 1)
	assert.True(t, m.NeedsRehash(low))
}
