package vocab

import "strings"

const (
	DefaultLegacyCipher = "aes-256-gcm"
	Default2022Cipher   = "2022-blake3-aes-256-gcm"
)

var legacyCiphers = map[string]struct{}{
	"none":                    {},
	"plain":                   {},
	"rc4-md5":                 {},
	"aes-128-gcm":             {},
	"aes-192-gcm":             {},
	"aes-256-gcm":             {},
	"aes-128-cfb":             {},
	"aes-192-cfb":             {},
	"aes-256-cfb":             {},
	"aes-128-ctr":             {},
	"aes-192-ctr":             {},
	"aes-256-ctr":             {},
	"camellia-128-cfb":        {},
	"camellia-192-cfb":        {},
	"camellia-256-cfb":        {},
	"chacha20":                {},
	"chacha20-ietf":           {},
	"xchacha20":               {},
	"chacha20-ietf-poly1305":  {},
	"xchacha20-ietf-poly1305": {},
}

var suites2022 = map[string]struct{}{
	"2022-blake3-aes-128-gcm":       {},
	"2022-blake3-aes-256-gcm":       {},
	"2022-blake3-chacha20-poly1305": {},
}

// Is2022 reports whether a cipher token has the year-dash shape of the
// 2022 suite family, e.g. "2022-blake3-aes-128-gcm".
func Is2022(token string) bool {
	t := normalize(token)
	if len(t) < 5 || t[4] != '-' {
		return false
	}
	for i := 0; i < 4; i++ {
		if t[i] < '0' || t[i] > '9' {
			return false
		}
	}
	return true
}

// ParseCipher canonicalizes a shadowsocks method name. Unknown names fall
// back to the default of the family selected by the token's shape.
func ParseCipher(token string) (string, bool) {
	t := normalize(token)
	if Is2022(t) {
		if _, ok := suites2022[t]; ok {
			return t, true
		}
		return Default2022Cipher, false
	}
	if _, ok := legacyCiphers[t]; ok {
		return t, true
	}
	return DefaultLegacyCipher, false
}

// LooksLikeCipherPrefix reports whether s starts with "<known cipher>:".
// Used to tell a plain-text userinfo from a base64 one.
func LooksLikeCipherPrefix(s string) bool {
	method, _, ok := strings.Cut(s, ":")
	if !ok {
		return false
	}
	method = normalize(method)
	if _, known := legacyCiphers[method]; known {
		return true
	}
	_, known := suites2022[method]
	return known
}
