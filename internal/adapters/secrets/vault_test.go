package secrets

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zotreader/internal/domain"
)

func TestVaultRoundTrip(t *testing.T) {
	v := New("test-operator-secret")
	for _, plain := range []string{"sk-1234567890abcdef", "", "短いキー", "x"} {
		blob, err := v.Encrypt(plain)
		require.NoError(t, err, "Encrypt(%q)", plain)
		assert.Len(t, strings.Split(blob, ":"), 3, "blob %q", blob)

		got, err := v.Decrypt(blob)
		require.NoError(t, err)
		assert.Equal(t, plain, got)
	}
}

func TestVaultFreshNonces(t *testing.T) {
	v := New("test-operator-secret")
	a, err := v.Encrypt("same-plaintext")
	require.NoError(t, err)
	b, err := v.Encrypt("same-plaintext")
	require.NoError(t, err)
	assert.NotEqual(t, a, b, "two encryptions of the same plaintext produced identical blobs")
}

func TestVaultTamperDetection(t *testing.T) {
	v := New("test-operator-secret")
	blob, err := v.Encrypt("sk-1234567890abcdef")
	require.NoError(t, err)

	// Flip one hex digit of the ciphertext component.
	parts := strings.Split(blob, ":")
	ct := []byte(parts[2])
	if ct[0] == '0' {
		ct[0] = '1'
	} else {
		ct[0] = '0'
	}
	tampered := parts[0] + ":" + parts[1] + ":" + string(ct)

	_, err = v.Decrypt(tampered)
	assert.ErrorIs(t, err, domain.ErrIntegrity)
}

func TestVaultMalformedBlob(t *testing.T) {
	v := New("test-operator-secret")
	for _, blob := range []string{"", "abc", "aa:bb", "zz:zz:zz", "aa:bb:cc:dd"} {
		_, err := v.Decrypt(blob)
		assert.ErrorIs(t, err, domain.ErrIntegrity, "Decrypt(%q)", blob)
	}
}

func TestVaultWrongSecret(t *testing.T) {
	blob, err := New("secret-a").Encrypt("payload")
	require.NoError(t, err)
	_, err = New("secret-b").Decrypt(blob)
	assert.ErrorIs(t, err, domain.ErrIntegrity)
}

func TestMask(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"", ""},
		{"short", "****"},
		{"12345678", "****"},
		{"sk-abcdefghijklmnop", "sk-a****mnop"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Mask(c.in), "Mask(%q)", c.in)
	}
	assert.True(t, IsMasked(Mask("sk-abcdefghijklmnop")))
	assert.False(t, IsMasked("sk-abcdefghijklmnop"))
}
