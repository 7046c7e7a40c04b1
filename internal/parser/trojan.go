package parser

import (
	"submix/internal/node"
	"submix/internal/vocab"
)

// ParseTrojan parses trojan://password@host:port?type=ws&sni=x#name.
func ParseTrojan(raw string) (node.ProxyNode, error) {
	l, err := splitLink(raw, "trojan")
	if err != nil {
		return node.ProxyNode{}, err
	}
	host, port, err := l.endpoint()
	if err != nil {
		return node.ProxyNode{}, err
	}

	password := unescape(l.userinfo)
	if password == "" {
		return node.ProxyNode{}, missing(l, "password")
	}

	q := l.query
	p := node.Trojan{
		Password:       password,
		SNI:            firstQuery(q, "sni", "peer"),
		Host:           q.Get("host"),
		Fingerprint:    q.Get("fp"),
		ALPN:           splitList(q.Get("alpn")),
		SkipCertVerify: queryBool(q, "allowInsecure", "insecure", "skip-cert-verify"),
	}
	p.Transport, _ = vocab.ParseStreamTransport(q.Get("type"))

	switch p.Transport {
	case vocab.TransportGRPC:
		p.ServiceName = firstQuery(q, "serviceName", "path")
	case vocab.TransportWS:
		p.Path = q.Get("path")
	}

	if sec, _ := vocab.ParseSecurity(q.Get("security")); sec == vocab.SecurityReality {
		p.Reality = &node.Reality{
			PublicKey: q.Get("pbk"),
			ShortID:   q.Get("sid"),
			SpiderX:   q.Get("spx"),
		}
	}

	return node.ProxyNode{
		Name:    l.name(node.ProtocolTrojan, host, port),
		Server:  host,
		Port:    port,
		Payload: p,
	}, nil
}
