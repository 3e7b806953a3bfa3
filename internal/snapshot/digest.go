package snapshot

import (
	"crypto/sha256"
	"encoding/hex"
)

// DigestDomain separates snapshot digests from any other SHA-256 use.
// The version suffix leaves room for a future algorithm change.
const DigestDomain = "srcf/snapshot/v1"

// Digest returns the hex SHA-256 of data under DigestDomain.
// Format: SHA256(domain + 0x00 + data). The null byte keeps the
// domain/data boundary unambiguous.
func Digest(data []byte) string {
	h := sha256.New()
	h.Write([]byte(DigestDomain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
