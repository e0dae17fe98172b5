// Package token issues and checks the opaque tokens embedded in email
// verification links.
package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"strconv"
	"strings"
	"time"
)

type Codec struct {
	secret []byte
}

func NewCodec(secret string) *Codec {
	return &Codec{secret: []byte(secret)}
}

// Generate derives a URL-safe token from the address and issue time. The
// same inputs always yield the same token.
func (c *Codec) Generate(email string, issuedAt time.Time) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(strings.ToLower(strings.TrimSpace(email))))
	mac.Write([]byte{'|'})
	mac.Write([]byte(strconv.FormatInt(issuedAt.UnixNano(), 10)))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// Validate reports whether supplied matches the stored token exactly.
// An empty stored token never matches.
func Validate(stored, supplied string) bool {
	if stored == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(supplied)) == 1
}
