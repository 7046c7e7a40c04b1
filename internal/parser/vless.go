package parser

import (
	"fmt"

	"github.com/google/uuid"

	"submix/internal/node"
	"submix/internal/vocab"
)

// ParseVLESS parses vless://uuid@host:port?type=ws&security=tls#name.
func ParseVLESS(raw string) (node.ProxyNode, error) {
	l, err := splitLink(raw, "vless")
	if err != nil {
		return node.ProxyNode{}, err
	}
	host, port, err := l.endpoint()
	if err != nil {
		return node.ProxyNode{}, err
	}

	id := unescape(l.userinfo)
	if id == "" {
		return node.ProxyNode{}, missing(l, "uuid")
	}
	if _, err := uuid.Parse(id); err != nil {
		return node.ProxyNode{}, &node.Error{Kind: node.MissingField, Field: "uuid", Link: l.raw, Err: fmt.Errorf("not a uuid: %w", err)}
	}

	q := l.query
	p := node.VLESS{
		UUID:           id,
		Flow:           q.Get("flow"),
		Fingerprint:    q.Get("fp"),
		SNI:            firstQuery(q, "sni", "peer", "servername"),
		Host:           q.Get("host"),
		ALPN:           splitList(q.Get("alpn")),
		SkipCertVerify: queryBool(q, "allowInsecure", "insecure", "skip-cert-verify"),
	}
	p.Transport, _ = vocab.ParseTransport(q.Get("type"))
	p.Security, _ = vocab.ParseSecurity(q.Get("security"))

	switch p.Transport {
	case vocab.TransportGRPC:
		p.ServiceName = firstQuery(q, "serviceName", "path")
	case vocab.TransportWS, vocab.TransportHTTP, vocab.TransportH2:
		p.Path = q.Get("path")
	}

	if p.Security == vocab.SecurityReality {
		p.Reality = &node.Reality{
			PublicKey: q.Get("pbk"),
			ShortID:   q.Get("sid"),
			SpiderX:   q.Get("spx"),
		}
	}

	return node.ProxyNode{
		Name:    l.name(node.ProtocolVLESS, host, port),
		Server:  host,
		Port:    port,
		Payload: p,
	}, nil
}
