package parser

import (
	"encoding/base64"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"submix/internal/node"
	"submix/internal/vocab"
)

// ToLink converts a node back into its native share-link format.
func ToLink(n node.ProxyNode) string {
	u := url.URL{
		Scheme:   string(n.Protocol()),
		Host:     net.JoinHostPort(n.Server, strconv.Itoa(int(n.Port))),
		Fragment: n.Name,
	}
	q := url.Values{}

	switch p := n.Payload.(type) {
	case node.VLESS:
		u.User = url.User(p.UUID)
		if p.Transport != vocab.DefaultTransport {
			q.Set("type", string(p.Transport))
		}
		if p.Security != vocab.DefaultSecurity {
			q.Set("security", string(p.Security))
		}
		setIf(q, "flow", p.Flow)
		setIf(q, "fp", p.Fingerprint)
		setIf(q, "sni", p.SNI)
		setIf(q, "host", p.Host)
		setIf(q, "path", p.Path)
		setIf(q, "serviceName", p.ServiceName)
		setIf(q, "alpn", strings.Join(p.ALPN, ","))
		setReality(q, p.Reality)
		if p.SkipCertVerify {
			q.Set("allowInsecure", "1")
		}
	case node.Hysteria:
		u.Scheme = "hysteria"
		q.Set("auth", p.Auth)
		if p.Transport != vocab.DefaultHopProtocol {
			q.Set("protocol", string(p.Transport))
		}
		q.Set("upmbps", strconv.Itoa(p.UpMbps))
		q.Set("downmbps", strconv.Itoa(p.DownMbps))
		setIf(q, "obfsParam", p.Obfs)
		setIf(q, "peer", p.SNI)
		setIf(q, "alpn", strings.Join(p.ALPN, ","))
		if p.SkipCertVerify {
			q.Set("insecure", "1")
		}
	case node.Hysteria2:
		u.User = url.User(p.Password)
		setIf(q, "sni", p.SNI)
		setIf(q, "mport", p.Ports)
		setIf(q, "fp", p.Fingerprint)
		setIf(q, "alpn", strings.Join(p.ALPN, ","))
		if p.Obfs != nil {
			q.Set("obfs", p.Obfs.Mode)
			setIf(q, "obfs-password", p.Obfs.Password)
		}
		if p.Bandwidth != nil {
			q.Set("up", strconv.Itoa(p.Bandwidth.UpMbps))
			q.Set("down", strconv.Itoa(p.Bandwidth.DownMbps))
		}
		if p.SkipCertVerify {
			q.Set("insecure", "1")
		}
	case node.Shadowsocks:
		return shadowsocksLink(n, p)
	case node.Trojan:
		u.User = url.User(p.Password)
		if p.Transport != vocab.DefaultTransport {
			q.Set("type", string(p.Transport))
		}
		setIf(q, "sni", p.SNI)
		setIf(q, "host", p.Host)
		setIf(q, "path", p.Path)
		setIf(q, "serviceName", p.ServiceName)
		setIf(q, "fp", p.Fingerprint)
		setIf(q, "alpn", strings.Join(p.ALPN, ","))
		if p.Reality != nil {
			q.Set("security", string(vocab.SecurityReality))
			setReality(q, p.Reality)
		}
		if p.SkipCertVerify {
			q.Set("allowInsecure", "1")
		}
	}

	u.RawQuery = q.Encode()
	return u.String()
}

func shadowsocksLink(n node.ProxyNode, p node.Shadowsocks) string {
	var userinfo string
	if p.Is2022() {
		// 2022 keys are not base64-wrapped; percent-encode each half.
		userinfo = url.PathEscape(p.Cipher) + ":" + url.PathEscape(p.Password)
	} else {
		userinfo = base64.RawURLEncoding.EncodeToString([]byte(p.Cipher + ":" + p.Password))
	}

	s := fmt.Sprintf("ss://%s@%s", userinfo, net.JoinHostPort(n.Server, strconv.Itoa(int(n.Port))))
	if p.Plugin != "" {
		s += "/?plugin=" + url.QueryEscape(p.Plugin)
	}
	if n.Name != "" {
		s += "#" + url.PathEscape(n.Name)
	}
	return s
}

func setIf(q url.Values, key, value string) {
	if value != "" {
		q.Set(key, value)
	}
}

func setReality(q url.Values, r *node.Reality) {
	if r == nil {
		return
	}
	setIf(q, "pbk", r.PublicKey)
	setIf(q, "sid", r.ShortID)
	setIf(q, "spx", r.SpiderX)
}
