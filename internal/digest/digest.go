// Package digest derives content identities. Compute is the only way a
// document acquires its Digest; the ledger reference is a secondary identity
// derived from the digest, matching how the registry contract keys storage.
package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"io"

	"golang.org/x/crypto/sha3"

	"docproof/pkg/domain"
)

// Compute returns the sha256 digest of content as 64 lowercase hex characters.
// Pure and deterministic for any byte sequence, including empty.
func Compute(content []byte) domain.Digest {
	sum := sha256.Sum256(content)
	return domain.Digest(hex.EncodeToString(sum[:]))
}

// ComputeReader streams r through sha256 and returns the digest along with
// the number of bytes consumed. Use this for large uploads instead of
// buffering the whole file.
func ComputeReader(r io.Reader) (domain.Digest, int64, error) {
	h := sha256.New()
	n, err := io.Copy(h, r)
	if err != nil {
		return "", n, err
	}
	return domain.Digest(hex.EncodeToString(h.Sum(nil))), n, nil
}

// LedgerReference derives the ledger's record identity for a digest: the
// 0x-prefixed keccak256 of the raw digest bytes. The registry contract keys
// its storage on this value, so it is stored alongside each local record.
func LedgerReference(d domain.Digest) string {
	h := sha3.NewLegacyKeccak256()
	h.Write(d.Bytes())
	return "0x" + hex.EncodeToString(h.Sum(nil))
}
