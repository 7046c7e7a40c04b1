package parser

import (
	"fmt"
	"strings"

	"submix/internal/node"
	"submix/internal/vocab"
)

// ParseShadowsocks parses SIP002 links. Three userinfo shapes are accepted:
//
//	ss://2022-blake3-aes-128-gcm:KEY@host:port      (2022 suites, plain text)
//	ss://BASE64(method:password)@host:port          (legacy)
//	ss://BASE64(method:password@host:port)#name     (legacy, whole body)
func ParseShadowsocks(raw string) (node.ProxyNode, error) {
	l, err := splitLink(raw, "ss")
	if err != nil {
		return node.ProxyNode{}, err
	}

	if l.userinfo == "" && l.authority != "" {
		// whole-body form: decode and split again.
		decoded, derr := DecodeBase64(unescape(l.authority))
		if derr != nil || !strings.Contains(decoded, "@") {
			return node.ProxyNode{}, &node.Error{Kind: node.MissingField, Field: "userinfo", Link: l.raw, Err: derr}
		}
		at := strings.LastIndexByte(decoded, '@')
		l.userinfo = decoded[:at]
		l.host, l.port = splitHostPort(decoded[at+1:])
	}

	host, port, err := l.endpoint()
	if err != nil {
		return node.ProxyNode{}, err
	}

	method, password, err := decodeUserinfo(l.userinfo)
	if err != nil {
		return node.ProxyNode{}, &node.Error{Kind: node.MissingField, Field: "userinfo", Link: l.raw, Err: err}
	}
	if method == "" {
		return node.ProxyNode{}, missing(l, "cipher")
	}
	if password == "" {
		return node.ProxyNode{}, missing(l, "password")
	}

	cipher, _ := vocab.ParseCipher(method)
	p := node.Shadowsocks{
		Cipher:   cipher,
		Password: password,
		Plugin:   strings.TrimSpace(l.query.Get("plugin")),
	}

	return node.ProxyNode{
		Name:    l.name(node.ProtocolShadowsocks, host, port),
		Server:  host,
		Port:    port,
		Payload: p,
	}, nil
}

// decodeUserinfo picks the decoding by the token's shape: a year-dash
// prefix marks the 2022 suites, whose keys travel percent-encoded.
func decodeUserinfo(userinfo string) (method, password string, err error) {
	plain := unescape(userinfo)
	if plain == "" {
		return "", "", fmt.Errorf("empty userinfo")
	}

	if vocab.Is2022(plain) || vocab.LooksLikeCipherPrefix(plain) {
		method, password, _ = strings.Cut(plain, ":")
		return method, password, nil
	}

	decoded, derr := DecodeBase64(plain)
	if derr == nil && strings.Contains(decoded, ":") {
		method, password, _ = strings.Cut(decoded, ":")
		return method, password, nil
	}
	if strings.Contains(plain, ":") {
		method, password, _ = strings.Cut(plain, ":")
		return method, password, nil
	}
	if derr != nil {
		return "", "", fmt.Errorf("userinfo is neither base64 nor method:password: %w", derr)
	}
	return "", "", fmt.Errorf("userinfo has no method:password pair")
}
