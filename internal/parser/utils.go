package parser

import (
	"encoding/base64"
	"net/url"
	"strings"
)

// DecodeBase64 attempts to decode standard and URL-safe base64 strings,
// automatically fixing missing padding.
func DecodeBase64(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	s = strings.TrimRight(s, "=")
	if n := len(s) % 4; n != 0 {
		s += strings.Repeat("=", 4-n)
	}

	b, err := base64.StdEncoding.DecodeString(s)
	if err == nil {
		return string(b), nil
	}

	b, err = base64.URLEncoding.DecodeString(s)
	if err == nil {
		return string(b), nil
	}

	return "", err
}

// FixIllegalUrl cleans up common issues in scraped links.
func FixIllegalUrl(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", "")
	return s
}

func unescape(s string) string {
	if v, err := url.PathUnescape(s); err == nil {
		return v
	}
	return s
}

// parseQuery splits a query on '&' only and decodes each side on its own.
// url.ParseQuery drops any pair holding a raw ';', which SIP003 plugin
// options carry. A part that fails to decode is kept as written. raw holds
// the first undecoded value per key.
func parseQuery(query string) (values url.Values, raw map[string]string) {
	values = url.Values{}
	raw = make(map[string]string)
	for _, pair := range strings.Split(query, "&") {
		if pair == "" {
			continue
		}
		k, v, _ := strings.Cut(pair, "=")
		key := queryUnescape(k)
		if key == "" {
			continue
		}
		values.Add(key, queryUnescape(v))
		if _, ok := raw[key]; !ok {
			raw[key] = v
		}
	}
	return values, raw
}

func queryUnescape(s string) string {
	if v, err := url.QueryUnescape(s); err == nil {
		return v
	}
	return s
}

// firstQuery returns the first non-empty value among keys.
func firstQuery(q url.Values, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(q.Get(k)); v != "" {
			return v
		}
	}
	return ""
}

// queryBool maps 1/true/yes (any of keys) to true.
func queryBool(q url.Values, keys ...string) bool {
	for _, k := range keys {
		if v := q.Get(k); v != "" {
			switch strings.ToLower(strings.TrimSpace(v)) {
			case "1", "true", "yes":
				return true
			default:
				return false
			}
		}
	}
	return false
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
