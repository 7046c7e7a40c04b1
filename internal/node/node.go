// Package node defines the canonical, protocol-tagged proxy record produced by
// the share-link parsers and consumed by the config generator.
package node

import (
	"fmt"

	"submix/internal/vocab"
)

type Protocol string

const (
	ProtocolVLESS       Protocol = "vless"
	ProtocolHysteria    Protocol = "hysteria"
	ProtocolHysteria2   Protocol = "hysteria2"
	ProtocolShadowsocks Protocol = "ss"
	ProtocolTrojan      Protocol = "trojan"
)

// ProxyNode is one parsed share-link. Values are built once by a parser and
// treated as immutable afterwards; use WithName to derive a renamed copy.
type ProxyNode struct {
	Name    string
	Server  string
	Port    uint16
	Payload Payload
}

// Protocol is derived from the payload so the tag can never disagree with it.
func (n ProxyNode) Protocol() Protocol {
	if n.Payload == nil {
		return ""
	}
	return n.Payload.Protocol()
}

// WithName returns a copy of n carrying a different display name.
func (n ProxyNode) WithName(name string) ProxyNode {
	n.Name = name
	return n
}

// DefaultName is the display name used when a link carries no fragment label.
func DefaultName(p Protocol, server string, port uint16) string {
	return fmt.Sprintf("%s-%s:%d", p, server, port)
}

// Payload is the variant-specific part of a node. The set of implementations
// is closed: the unexported method keeps other packages from adding one.
type Payload interface {
	Protocol() Protocol
	sealed()
}

// Reality holds the REALITY handshake parameters.
type Reality struct {
	PublicKey string
	ShortID   string
	SpiderX   string
}

// VLESS is the stream-multiplexed, TLS/REALITY capable dialect.
type VLESS struct {
	UUID           string
	Transport      vocab.Transport
	Security       vocab.Security
	Flow           string
	Fingerprint    string
	SNI            string
	Host           string // ws/http/h2 Host header
	Path           string // ws/http/h2 path
	ServiceName    string // grpc
	ALPN           []string
	Reality        *Reality
	SkipCertVerify bool
}

func (VLESS) Protocol() Protocol { return ProtocolVLESS }
func (VLESS) sealed()            {}

// Hysteria is the v1 UDP-congestion-controlled dialect.
type Hysteria struct {
	Auth           string
	Transport      vocab.HopProtocol
	UpMbps         int
	DownMbps       int
	Obfs           string
	SNI            string
	ALPN           []string
	SkipCertVerify bool
}

func (Hysteria) Protocol() Protocol { return ProtocolHysteria }
func (Hysteria) sealed()            {}

type Obfs struct {
	Mode     string
	Password string
}

type Bandwidth struct {
	UpMbps   int
	DownMbps int
}

type Hysteria2 struct {
	Password       string
	Obfs           *Obfs
	SNI            string
	Ports          string // port-hop range, e.g. "443,1000-2000"
	Congestion     vocab.Congestion
	Bandwidth      *Bandwidth // set only for brutal congestion
	Fingerprint    string
	ALPN           []string
	SkipCertVerify bool
}

func (Hysteria2) Protocol() Protocol { return ProtocolHysteria2 }
func (Hysteria2) sealed()            {}

// Shadowsocks covers both the legacy AEAD/stream ciphers and the 2022 suites.
type Shadowsocks struct {
	Cipher   string
	Password string
	Plugin   string // raw SIP003 descriptor, e.g. "obfs-local;obfs=http;obfs-host=x"
}

func (Shadowsocks) Protocol() Protocol { return ProtocolShadowsocks }
func (Shadowsocks) sealed()            {}

func (s Shadowsocks) Is2022() bool { return vocab.Is2022(s.Cipher) }

// Trojan is the password-authenticated stream proxy. TLS is implied.
type Trojan struct {
	Password       string
	Transport      vocab.Transport
	SNI            string
	Host           string
	Path           string
	ServiceName    string
	Fingerprint    string
	ALPN           []string
	Reality        *Reality
	SkipCertVerify bool
}

func (Trojan) Protocol() Protocol { return ProtocolTrojan }
func (Trojan) sealed()            {}
