package parser

import (
	"strings"

	"submix/internal/node"
	"submix/internal/vocab"
)

// ParseHysteria2 parses
// hysteria2://password@host:port/?sni=x&obfs=salamander&obfs-password=y&mport=1000-2000#name.
// The authority port may itself be a hop list such as "443,1000-2000"; the
// first number becomes the node port.
func ParseHysteria2(raw string) (node.ProxyNode, error) {
	l, err := splitLink(raw, "hysteria2", "hy2")
	if err != nil {
		return node.ProxyNode{}, err
	}

	var hops string
	if strings.ContainsAny(l.port, ",-") {
		hops = l.port
		first := l.port
		if i := strings.IndexAny(first, ",-"); i >= 0 {
			first = first[:i]
		}
		l.port = first
	}
	host, port, err := l.endpoint()
	if err != nil {
		return node.ProxyNode{}, err
	}

	password := unescape(l.userinfo)
	if password == "" {
		password = l.secret("auth", "password")
	}
	if password == "" {
		return node.ProxyNode{}, missing(l, "password")
	}

	q := l.query
	p := node.Hysteria2{
		Password:       password,
		SNI:            firstQuery(q, "sni", "peer"),
		Ports:          hops,
		Fingerprint:    q.Get("fp"),
		ALPN:           splitList(q.Get("alpn")),
		SkipCertVerify: queryBool(q, "insecure", "allowInsecure", "skip-cert-verify"),
	}
	if mport := q.Get("mport"); mport != "" {
		p.Ports = mport
	}

	obfsPassword := l.secret("obfs-password")
	if obfs := q.Get("obfs"); (obfs != "" && obfs != "none") || obfsPassword != "" {
		mode, _ := vocab.ParseObfsMode(obfs)
		p.Obfs = &node.Obfs{Mode: mode, Password: obfsPassword}
	}

	p.Congestion, _ = vocab.ParseCongestion(q.Get("congestion"))
	up, upOK := vocab.ParseMbps(firstQuery(q, "up", "upmbps"))
	down, downOK := vocab.ParseMbps(firstQuery(q, "down", "downmbps"))
	if upOK || downOK {
		if !upOK {
			up = vocab.DefaultUpMbps
		}
		if !downOK {
			down = vocab.DefaultDownMbps
		}
		if q.Get("congestion") == "" {
			p.Congestion = vocab.CongestionBrutal
		}
		if p.Congestion == vocab.CongestionBrutal {
			p.Bandwidth = &node.Bandwidth{UpMbps: up, DownMbps: down}
		}
	} else if p.Congestion == vocab.CongestionBrutal {
		// brutal without a bandwidth hint is meaningless
		p.Congestion = vocab.CongestionBBR
	}

	return node.ProxyNode{
		Name:    l.name(node.ProtocolHysteria2, host, port),
		Server:  host,
		Port:    port,
		Payload: p,
	}, nil
}
