package ledger

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docproof/pkg/domain"
)

func TestTruncate(t *testing.T) {
	t.Run("under the bound is untouched", func(t *testing.T) {
		s := strings.Repeat("m", MaxMetadataBytes)
		assert.Equal(t, s, Truncate(s))
	})

	t.Run("over the bound is cut to exactly the bound with a marker", func(t *testing.T) {
		for _, extra := range []int{1, 2, 100, 4096} {
			s := strings.Repeat("m", MaxMetadataBytes+extra)
			out := Truncate(s)
			assert.Len(t, out, MaxMetadataBytes)
			assert.True(t, strings.HasSuffix(out, "..."))
		}
	})
}

func TestEncodeMetadata(t *testing.T) {
	env := Envelope{
		FileName:    "deed.pdf",
		ContentType: "application/pdf",
		SubmittedBy: "alice",
		SubmittedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Description: "property deed",
		Category:    domain.CategoryProperty,
	}
	out := EncodeMetadata(env)
	require.LessOrEqual(t, len(out), MaxMetadataBytes)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "deed.pdf", decoded["fileName"])
	assert.Equal(t, "property", decoded["category"])
}

func TestEncodeMetadata_OversizedDescription(t *testing.T) {
	env := Envelope{
		FileName:    "big.bin",
		Description: strings.Repeat("d", 1000),
	}
	out := EncodeMetadata(env)
	assert.Len(t, out, MaxMetadataBytes)
	assert.True(t, strings.HasSuffix(out, "..."))
}
