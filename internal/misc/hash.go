package misc

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// SumSHA256 returns hex(sha256(value || key)), the HashSHA256 header value.
func SumSHA256(value []byte, key string) string {
	h := sha256.New()
	h.Write(value)
	h.Write([]byte(key))
	return hex.EncodeToString(h.Sum(nil))
}

// VerifySHA256 compares a received HashSHA256 header against the expected sum in constant time.
func VerifySHA256(value []byte, key, got string) bool {
	want, err := hex.DecodeString(SumSHA256(value, key))
	if err != nil {
		return false
	}
	raw, err := hex.DecodeString(strings.TrimSpace(got))
	if err != nil {
		return false
	}
	return hmac.Equal(want, raw)
}
