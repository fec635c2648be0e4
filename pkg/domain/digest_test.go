package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docproof/pkg/domainerr"
)

// TestParseDigest_Invariants validates the parsing invariant:
// "digests are 64 lowercase hex characters and never all-zero".
func TestParseDigest_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseDigest("")
		require.Error(t, err)
		assert.True(t, domainerr.HasCode(err, domainerr.CodeInvalidInput))
	})

	t.Run("rejects wrong length", func(t *testing.T) {
		_, err := ParseDigest("abc123")
		require.Error(t, err)
		assert.True(t, domainerr.HasCode(err, domainerr.CodeInvalidInput))
	})

	t.Run("rejects non-hex characters", func(t *testing.T) {
		_, err := ParseDigest(strings.Repeat("z", DigestLen))
		require.Error(t, err)
		assert.True(t, domainerr.HasCode(err, domainerr.CodeInvalidInput))
	})

	t.Run("rejects all-zero digest", func(t *testing.T) {
		_, err := ParseDigest(strings.Repeat("0", DigestLen))
		require.Error(t, err)
		assert.True(t, domainerr.HasCode(err, domainerr.CodeInvalidInput))
	})

	t.Run("accepts valid lowercase digest", func(t *testing.T) {
		raw := strings.Repeat("f", DigestLen)
		d, err := ParseDigest(raw)
		require.NoError(t, err)
		assert.Equal(t, Digest(raw), d)
	})

	t.Run("canonicalizes uppercase and 0x prefix", func(t *testing.T) {
		raw := strings.Repeat("A", DigestLen)
		d, err := ParseDigest("0x" + raw)
		require.NoError(t, err)
		assert.Equal(t, Digest(strings.Repeat("a", DigestLen)), d)
	})
}

func TestDigestBytes(t *testing.T) {
	d, err := ParseDigest(strings.Repeat("ab", 32))
	require.NoError(t, err)
	b := d.Bytes()
	require.Len(t, b, 32)
	assert.Equal(t, byte(0xab), b[0])
}

func TestParseCategory(t *testing.T) {
	t.Run("empty defaults to other", func(t *testing.T) {
		c, err := ParseCategory("")
		require.NoError(t, err)
		assert.Equal(t, CategoryOther, c)
	})

	t.Run("rejects unknown value", func(t *testing.T) {
		_, err := ParseCategory("memes")
		require.Error(t, err)
		assert.True(t, domainerr.HasCode(err, domainerr.CodeInvalidInput))
	})

	t.Run("accepts every supported value", func(t *testing.T) {
		for c := range validCategories {
			parsed, err := ParseCategory(c.String())
			require.NoError(t, err)
			assert.Equal(t, c, parsed)
		}
	})
}
