package pinning

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCIDv1RawSHA256(t *testing.T) {
	a, err := CIDv1RawSHA256([]byte("hello"))
	require.NoError(t, err)
	b, err := CIDv1RawSHA256([]byte("hello"))
	require.NoError(t, err)
	c, err := CIDv1RawSHA256([]byte("world"))
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Equal(t, uint64(1), a.Version())
	// base32 multibase prefix for CIDv1
	assert.Equal(t, byte('b'), a.String()[0])
}

func TestParseCID(t *testing.T) {
	want, err := CIDv1RawSHA256([]byte("doc"))
	require.NoError(t, err)

	got, err := ParseCID(" " + want.String() + " ")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// CIDv0 as returned by older pinning APIs
	_, err = ParseCID("QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG")
	assert.NoError(t, err)

	_, err = ParseCID("")
	assert.ErrorIs(t, err, ErrInvalidCID)
	_, err = ParseCID("not-a-cid")
	assert.ErrorIs(t, err, ErrInvalidCID)
}

func TestURI(t *testing.T) {
	assert.Equal(t, "ipfs://bafy", URI("bafy"))
}
