package keys

import (
	"crypto/sha256"
	"encoding/hex"
)

// memcached rejects keys longer than 250 bytes or containing spaces and
// control characters.
const maxMemcacheKey = 250

// Join returns prefix+key. Keys are otherwise used verbatim.
func Join(prefix, key string) string {
	return prefix + key
}

// Memcache returns k unchanged when memcached accepts it, otherwise a stable
// "h:" + sha256 hex digest of k.
func Memcache(k string) string {
	if len(k) <= maxMemcacheKey && legalMemcache(k) {
		return k
	}
	sum := sha256.Sum256([]byte(k))
	return "h:" + hex.EncodeToString(sum[:])
}

func legalMemcache(k string) bool {
	if k == "" {
		return false
	}
	for i := 0; i < len(k); i++ {
		if k[i] <= ' ' || k[i] == 0x7f {
			return false
		}
	}
	return true
}
