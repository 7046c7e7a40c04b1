package parser

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"submix/internal/node"
)

// link is a share-link split into its parts. userinfo is kept escaped
// because dialects decode it differently.
type link struct {
	raw       string
	scheme    string
	authority string
	userinfo  string
	host      string
	port      string
	query     url.Values
	rawQuery  map[string]string
	fragment  string
}

// schemeOf returns the lower-cased scheme of raw, or "" when raw has none.
func schemeOf(raw string) string {
	scheme, _, ok := strings.Cut(raw, "://")
	if !ok {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(scheme))
}

// splitLink cuts raw into scheme, authority, query and fragment. It fails
// with SchemeMismatch when the scheme is not one of accepted.
func splitLink(raw string, accepted ...string) (*link, error) {
	raw = FixIllegalUrl(raw)
	scheme := schemeOf(raw)

	matched := false
	for _, a := range accepted {
		if scheme == a {
			matched = true
			break
		}
	}
	if !matched {
		return nil, &node.Error{Kind: node.SchemeMismatch, Link: raw, Err: fmt.Errorf("scheme %q", scheme)}
	}

	l := &link{raw: raw, scheme: scheme}
	rest := raw[strings.Index(raw, "://")+3:]

	if i := strings.IndexByte(rest, '#'); i >= 0 {
		l.fragment = strings.TrimSpace(unescape(rest[i+1:]))
		rest = rest[:i]
	}
	if i := strings.IndexByte(rest, '?'); i >= 0 {
		l.query, l.rawQuery = parseQuery(rest[i+1:])
		rest = rest[:i]
	}
	if l.query == nil {
		l.query, l.rawQuery = url.Values{}, map[string]string{}
	}
	rest = strings.TrimRight(rest, "/")
	l.authority = rest

	// base64 userinfo may contain '/', so the path only starts after the '@'.
	if at := strings.LastIndexByte(rest, '@'); at >= 0 {
		l.userinfo = rest[:at]
		rest = rest[at+1:]
	}
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		rest = rest[:i]
	}
	l.host, l.port = splitHostPort(rest)
	return l, nil
}

// splitHostPort splits "host:port" and "[v6]:port". The port text is
// returned as-is so dialects with port lists can read it.
func splitHostPort(s string) (host, port string) {
	if strings.HasPrefix(s, "[") {
		end := strings.IndexByte(s, ']')
		if end < 0 {
			return "", ""
		}
		host = s[1:end]
		if rest := s[end+1:]; strings.HasPrefix(rest, ":") {
			port = rest[1:]
		}
		return host, port
	}
	i := strings.LastIndexByte(s, ':')
	if i < 0 {
		return s, ""
	}
	return s[:i], s[i+1:]
}

// endpoint validates the host and port of l.
func (l *link) endpoint() (string, uint16, error) {
	if l.authority == "" {
		return "", 0, &node.Error{Kind: node.MissingField, Field: "authority", Link: l.raw}
	}
	host := strings.TrimSpace(l.host)
	if host == "" {
		return "", 0, &node.Error{Kind: node.MissingField, Field: "server", Link: l.raw}
	}
	port, err := parsePort(l.port)
	if err != nil {
		return "", 0, &node.Error{Kind: node.InvalidPort, Field: "port", Link: l.raw, Err: err}
	}
	return host, port, nil
}

func parsePort(s string) (uint16, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("missing port")
	}
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("port %q is not a number", s)
	}
	if n < 1 || n > 65535 {
		return 0, fmt.Errorf("port %d out of range", n)
	}
	return uint16(n), nil
}

// name returns the decoded fragment, or the synthesized default name.
func (l *link) name(p node.Protocol, host string, port uint16) string {
	if l.fragment != "" {
		return l.fragment
	}
	return node.DefaultName(p, host, port)
}

// secret returns the first non-empty value among keys, percent-decoded
// without form rules. Base64 passwords keep their '+'.
func (l *link) secret(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(unescape(l.rawQuery[k])); v != "" {
			return v
		}
	}
	return ""
}

func missing(l *link, field string) error {
	return &node.Error{Kind: node.MissingField, Field: field, Link: l.raw}
}
