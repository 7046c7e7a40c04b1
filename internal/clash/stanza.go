package clash

import (
	"fmt"
	"strings"

	"submix/internal/node"
	"submix/internal/vocab"
)

// proxyStanza is the mihomo proxy entry. Field order is key order; empty and
// false fields are dropped by omitempty when the document is encoded.
type proxyStanza struct {
	Name   string `yaml:"name"`
	Type   string `yaml:"type"`
	Server string `yaml:"server"`
	Port   uint16 `yaml:"port"`
	Ports  string `yaml:"ports,omitempty"`

	UUID     string `yaml:"uuid,omitempty"`
	Password string `yaml:"password,omitempty"`
	AuthStr  string `yaml:"auth-str,omitempty"`
	Cipher   string `yaml:"cipher,omitempty"`

	Protocol     string `yaml:"protocol,omitempty"`
	Up           string `yaml:"up,omitempty"`
	Down         string `yaml:"down,omitempty"`
	Obfs         string `yaml:"obfs,omitempty"`
	ObfsPassword string `yaml:"obfs-password,omitempty"`

	Plugin     string      `yaml:"plugin,omitempty"`
	PluginOpts *pluginOpts `yaml:"plugin-opts,omitempty"`

	Network        string       `yaml:"network,omitempty"`
	TLS            bool         `yaml:"tls,omitempty"`
	UDP            bool         `yaml:"udp,omitempty"`
	Flow           string       `yaml:"flow,omitempty"`
	ServerName     string       `yaml:"servername,omitempty"`
	SNI            string       `yaml:"sni,omitempty"`
	ALPN           []string     `yaml:"alpn,omitempty,flow"`
	Fingerprint    string       `yaml:"client-fingerprint,omitempty"`
	SkipCertVerify bool         `yaml:"skip-cert-verify,omitempty"`
	RealityOpts    *realityOpts `yaml:"reality-opts,omitempty"`
	WSOpts         *wsOpts      `yaml:"ws-opts,omitempty"`
	H2Opts         *h2Opts      `yaml:"h2-opts,omitempty"`
	HTTPOpts       *httpOpts    `yaml:"http-opts,omitempty"`
	GRPCOpts       *grpcOpts    `yaml:"grpc-opts,omitempty"`
}

type pluginOpts struct {
	Mode string `yaml:"mode,omitempty"`
	Host string `yaml:"host,omitempty"`
	Path string `yaml:"path,omitempty"`
	TLS  bool   `yaml:"tls,omitempty"`
	Mux  bool   `yaml:"mux,omitempty"`
}

type realityOpts struct {
	PublicKey string `yaml:"public-key"`
	ShortID   string `yaml:"short-id,omitempty"`
	SpiderX   string `yaml:"spider-x,omitempty"`
}

type wsOpts struct {
	Path    string            `yaml:"path"`
	Headers map[string]string `yaml:"headers,omitempty"`
}

type h2Opts struct {
	Host []string `yaml:"host,omitempty,flow"`
	Path string   `yaml:"path"`
}

type httpOpts struct {
	Path    []string            `yaml:"path,flow"`
	Headers map[string][]string `yaml:"headers,omitempty"`
}

type grpcOpts struct {
	ServiceName string `yaml:"grpc-service-name"`
}

func stanzaFor(n node.ProxyNode) (proxyStanza, error) {
	s := proxyStanza{
		Name:   n.Name,
		Type:   string(n.Protocol()),
		Server: n.Server,
		Port:   n.Port,
	}

	switch p := n.Payload.(type) {
	case node.VLESS:
		s.UUID = p.UUID
		s.UDP = true
		s.Flow = p.Flow
		s.Fingerprint = p.Fingerprint
		s.ALPN = p.ALPN
		s.SkipCertVerify = p.SkipCertVerify
		if p.Security != vocab.SecurityNone {
			s.TLS = true
			s.ServerName = p.SNI
		}
		if p.Security == vocab.SecurityReality && p.Reality != nil {
			s.RealityOpts = reality(p.Reality)
		}
		setTransport(&s, p.Transport, p.Host, p.Path, p.ServiceName)

	case node.Trojan:
		s.Password = p.Password
		s.UDP = true
		s.SNI = p.SNI
		s.Fingerprint = p.Fingerprint
		s.ALPN = p.ALPN
		s.SkipCertVerify = p.SkipCertVerify
		if p.Reality != nil {
			s.RealityOpts = reality(p.Reality)
		}
		setTransport(&s, p.Transport, p.Host, p.Path, p.ServiceName)

	case node.Hysteria:
		s.AuthStr = p.Auth
		if p.Transport != vocab.DefaultHopProtocol {
			s.Protocol = string(p.Transport)
		}
		s.Up = vocab.FormatMbps(p.UpMbps)
		s.Down = vocab.FormatMbps(p.DownMbps)
		s.Obfs = p.Obfs
		s.SNI = p.SNI
		s.ALPN = p.ALPN
		s.SkipCertVerify = p.SkipCertVerify

	case node.Hysteria2:
		s.Password = p.Password
		s.Ports = p.Ports
		if p.Obfs != nil {
			s.Obfs = p.Obfs.Mode
			s.ObfsPassword = p.Obfs.Password
		}
		if p.Congestion == vocab.CongestionBrutal && p.Bandwidth != nil {
			s.Up = vocab.FormatMbps(p.Bandwidth.UpMbps)
			s.Down = vocab.FormatMbps(p.Bandwidth.DownMbps)
		}
		s.SNI = p.SNI
		s.Fingerprint = p.Fingerprint
		s.ALPN = p.ALPN
		s.SkipCertVerify = p.SkipCertVerify

	case node.Shadowsocks:
		s.Cipher = p.Cipher
		s.Password = p.Password
		s.UDP = true
		s.Plugin, s.PluginOpts = plugin(p.Plugin)

	default:
		return proxyStanza{}, fmt.Errorf("proxy %q has no payload", n.Name)
	}
	return s, nil
}

func reality(r *node.Reality) *realityOpts {
	return &realityOpts{PublicKey: r.PublicKey, ShortID: r.ShortID, SpiderX: r.SpiderX}
}

func setTransport(s *proxyStanza, t vocab.Transport, host, path, serviceName string) {
	if t == vocab.TransportTCP {
		return
	}
	s.Network = string(t)

	if path == "" {
		path = "/"
	}
	switch t {
	case vocab.TransportWS:
		s.WSOpts = &wsOpts{Path: path}
		if host != "" {
			s.WSOpts.Headers = map[string]string{"Host": host}
		}
	case vocab.TransportH2:
		s.H2Opts = &h2Opts{Path: path}
		if host != "" {
			s.H2Opts.Host = []string{host}
		}
	case vocab.TransportHTTP:
		s.HTTPOpts = &httpOpts{Path: []string{path}}
		if host != "" {
			s.HTTPOpts.Headers = map[string][]string{"Host": {host}}
		}
	case vocab.TransportGRPC:
		s.GRPCOpts = &grpcOpts{ServiceName: serviceName}
	}
}

// plugin maps a SIP003 descriptor ("name;key=value;flag") onto mihomo's
// plugin and plugin-opts. Unknown plugins keep their name without options.
func plugin(descriptor string) (string, *pluginOpts) {
	if descriptor == "" {
		return "", nil
	}
	parts := strings.Split(descriptor, ";")
	name := strings.TrimSpace(parts[0])
	args := make(map[string]string, len(parts)-1)
	for _, part := range parts[1:] {
		k, v, _ := strings.Cut(part, "=")
		args[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	_, hasTLS := args["tls"]
	_, hasMux := args["mux"]

	switch name {
	case "obfs-local", "simple-obfs", "obfs":
		return "obfs", &pluginOpts{
			Mode: args["obfs"],
			Host: args["obfs-host"],
		}
	case "v2ray-plugin":
		mode := args["mode"]
		if mode == "" {
			mode = "websocket"
		}
		return "v2ray-plugin", &pluginOpts{
			Mode: mode,
			Host: args["host"],
			Path: args["path"],
			TLS:  hasTLS,
			Mux:  hasMux,
		}
	default:
		return name, nil
	}
}
