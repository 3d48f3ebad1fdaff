package sqlite

import "crypto/sha256"

// indexHash is the deterministic hash used as the lookup key of the
// keyword index and the owner key of the label index. The literal string
// is stored next to it for reverse lookup.
func indexHash(s string) []byte {
	sum := sha256.Sum256([]byte(s))
	return sum[:]
}
