package domain

import (
	"encoding/hex"
	"strings"

	"docproof/pkg/domainerr"
)

// DigestLen is the canonical hex length of a document digest (256 bits).
const DigestLen = 64

// Digest is the content-derived identity of a document: 64 lowercase hex
// characters. It is the natural key across the ledger and the local index.
//
// Usage: construct via ParseDigest at trust boundaries; direct casting
// bypasses validation.
type Digest string

var zeroDigest = Digest(strings.Repeat("0", DigestLen))

// ParseDigest constructs a Digest from external input. Uppercase hex is
// accepted and canonicalized to lowercase. The all-zero digest is rejected:
// the ledger treats it as the null record key.
//
// Errors: CodeInvalidInput when the value is empty, has the wrong length,
// contains non-hex characters, or is all zeros.
func ParseDigest(s string) (Digest, error) {
	if s == "" {
		return "", domainerr.New(domainerr.CodeInvalidInput, "digest cannot be empty")
	}
	s = strings.ToLower(strings.TrimPrefix(s, "0x"))
	if len(s) != DigestLen {
		return "", domainerr.New(domainerr.CodeInvalidInput, "digest must be 64 hex characters")
	}
	if _, err := hex.DecodeString(s); err != nil {
		return "", domainerr.New(domainerr.CodeInvalidInput, "digest must be lowercase hex")
	}
	d := Digest(s)
	if d.IsZero() {
		return "", domainerr.New(domainerr.CodeInvalidInput, "all-zero digest is not a valid document identity")
	}
	return d, nil
}

// IsZero reports whether the digest is the all-zero value.
func (d Digest) IsZero() bool {
	return d == zeroDigest
}

// Bytes returns the raw 32-byte value. The digest is assumed validated.
func (d Digest) Bytes() []byte {
	b, _ := hex.DecodeString(string(d))
	return b
}

func (d Digest) String() string {
	return string(d)
}

// Short returns a truncated form for logs.
func (d Digest) Short() string {
	if len(d) < 10 {
		return string(d)
	}
	return string(d[:10]) + "..."
}
