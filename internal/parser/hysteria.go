package parser

import (
	"submix/internal/node"
	"submix/internal/vocab"
)

// ParseHysteria parses the v1 form
// hysteria://host:port?protocol=udp&auth=secret&upmbps=30&downmbps=100#name.
// The secret may also sit in the userinfo.
func ParseHysteria(raw string) (node.ProxyNode, error) {
	l, err := splitLink(raw, "hysteria", "hy")
	if err != nil {
		return node.ProxyNode{}, err
	}
	host, port, err := l.endpoint()
	if err != nil {
		return node.ProxyNode{}, err
	}

	q := l.query
	auth := l.secret("auth", "auth_str", "auth-str")
	if auth == "" {
		auth = unescape(l.userinfo)
	}
	if auth == "" {
		return node.ProxyNode{}, missing(l, "auth")
	}

	p := node.Hysteria{
		Auth:           auth,
		SNI:            firstQuery(q, "peer", "sni"),
		ALPN:           splitList(q.Get("alpn")),
		SkipCertVerify: queryBool(q, "insecure", "allowInsecure", "skip-cert-verify"),
		UpMbps:         vocab.DefaultUpMbps,
		DownMbps:       vocab.DefaultDownMbps,
	}
	p.Transport, _ = vocab.ParseHopProtocol(q.Get("protocol"))

	if up, ok := vocab.ParseMbps(firstQuery(q, "upmbps", "up")); ok {
		p.UpMbps = up
	}
	if down, ok := vocab.ParseMbps(firstQuery(q, "downmbps", "down")); ok {
		p.DownMbps = down
	}

	// obfs=xplus only names the scheme; the key travels in obfsParam.
	p.Obfs = l.secret("obfsParam", "obfs-password")
	if p.Obfs == "" {
		if o := q.Get("obfs"); o != "" && o != "xplus" && o != "none" {
			p.Obfs = o
		}
	}

	return node.ProxyNode{
		Name:    l.name(node.ProtocolHysteria, host, port),
		Server:  host,
		Port:    port,
		Payload: p,
	}, nil
}
