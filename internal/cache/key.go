package cache

import (
	"crypto/sha256"
	"encoding/hex"
)

// Key returns the cache key for a page URL: the lowercase hex SHA-256 digest
// of the URL bytes. The URL is not normalized, so URLs differing in any
// character map to different entries.
func Key(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])
}
