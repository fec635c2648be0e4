package digest

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docproof/pkg/domain"
)

func TestCompute_Idempotent(t *testing.T) {
	inputs := [][]byte{
		nil,
		{},
		[]byte("contract"),
		[]byte(strings.Repeat("x", 1<<16)),
		{0x00, 0xff, 0x10},
	}
	for _, in := range inputs {
		first := Compute(in)
		second := Compute(in)
		assert.Equal(t, first, second)
		assert.Len(t, string(first), domain.DigestLen)
		assert.Equal(t, strings.ToLower(string(first)), string(first))
	}
}

func TestCompute_NoCollisionAcrossCorpus(t *testing.T) {
	corpus := [][]byte{
		{},
		[]byte("a"),
		[]byte("b"),
		[]byte("ab"),
		[]byte("ba"),
		[]byte("contract"),
		[]byte("contract "),
	}
	seen := make(map[domain.Digest][]byte)
	for _, in := range corpus {
		d := Compute(in)
		if prev, ok := seen[d]; ok {
			t.Fatalf("collision between %q and %q", prev, in)
		}
		seen[d] = in
	}
}

func TestCompute_KnownVector(t *testing.T) {
	// sha256 of the empty input, pinned so the addressing scheme cannot
	// silently change across releases.
	assert.Equal(t,
		domain.Digest("e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"),
		Compute(nil))
}

func TestComputeReader_MatchesCompute(t *testing.T) {
	content := []byte("proof of existence")
	d, n, err := ComputeReader(bytes.NewReader(content))
	require.NoError(t, err)
	assert.Equal(t, int64(len(content)), n)
	assert.Equal(t, Compute(content), d)
}

func TestLedgerReference(t *testing.T) {
	d := Compute([]byte("contract"))
	ref := LedgerReference(d)

	assert.True(t, strings.HasPrefix(ref, "0x"))
	assert.Len(t, ref, 66)
	// Deterministic and distinct from the digest itself.
	assert.Equal(t, ref, LedgerReference(d))
	assert.NotEqual(t, "0x"+d.String(), ref)
}
