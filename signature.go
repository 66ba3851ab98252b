package shareustc

import (
	"crypto/hmac"
	"crypto/sha1" //nolint:gosec // HMAC-SHA1 is mandated by the Aliyun signing schemes
	"encoding/base64"
	"sort"
	"strings"
)

const upperHex = "0123456789ABCDEF"

// PercentEncode escapes s for the Aliyun signature schemes. Only ASCII letters,
// digits and "-_.~" pass through; every other byte becomes %XX with uppercase hex.
// This differs from url.QueryEscape, which leaves "*" alone and writes spaces as "+".
func PercentEncode(s string) string {
	var b strings.Builder
	b.Grow(len(s) * 3)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperHex[c>>4])
		b.WriteByte(upperHex[c&0x0f])
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case 'A' <= c && c <= 'Z', 'a' <= c && c <= 'z', '0' <= c && c <= '9':
		return true
	case c == '-', c == '_', c == '.', c == '~':
		return true
	}
	return false
}

// CanonicalizeQuery sorts params by key and joins them as k=v pairs with "&",
// percent-encoding keys and values separately.
func CanonicalizeQuery(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, PercentEncode(k)+"="+PercentEncode(params[k]))
	}
	return strings.Join(pairs, "&")
}

// StringToSignSTS builds the RPC-style string-to-sign for a GET request.
func StringToSignSTS(canonicalQuery string) string {
	return "GET&%2F&" + PercentEncode(canonicalQuery)
}

// STSSigningKey derives the HMAC key used by the STS RPC API.
func STSSigningKey(secret string) []byte {
	return []byte(secret + "&")
}

// HMACSHA1Base64 returns base64(HMAC-SHA1(key, msg)).
func HMACSHA1Base64(key []byte, msg string) string {
	mac := hmac.New(sha1.New, key)
	mac.Write([]byte(msg))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
