// Package vocab holds the closed token sets accepted in share-link query
// parameters. Every lookup normalizes a raw token to its canonical form and
// falls back to the set's default when the token is unknown.
//
// The tables are package-level and never written after init, so lookups are
// safe from any number of goroutines.
package vocab

import "strings"

type Transport string

const (
	TransportTCP  Transport = "tcp"
	TransportWS   Transport = "ws"
	TransportHTTP Transport = "http"
	TransportH2   Transport = "h2"
	TransportGRPC Transport = "grpc"
)

const DefaultTransport = TransportTCP

var transports = map[string]Transport{
	"":          TransportTCP,
	"tcp":       TransportTCP,
	"raw":       TransportTCP,
	"none":      TransportTCP,
	"ws":        TransportWS,
	"websocket": TransportWS,
	"http":      TransportHTTP,
	"h2":        TransportH2,
	"grpc":      TransportGRPC,
	"gun":       TransportGRPC,
}

// ParseTransport maps a `type=` token onto a transport kind.
func ParseTransport(token string) (Transport, bool) {
	if t, ok := transports[normalize(token)]; ok {
		return t, true
	}
	return DefaultTransport, false
}

// ParseStreamTransport is ParseTransport restricted to the kinds a
// password-authenticated stream proxy can carry (tcp, ws, grpc).
func ParseStreamTransport(token string) (Transport, bool) {
	t, ok := ParseTransport(token)
	switch t {
	case TransportTCP, TransportWS, TransportGRPC:
		return t, ok
	default:
		return DefaultTransport, false
	}
}

type Security string

const (
	SecurityNone    Security = "none"
	SecurityTLS     Security = "tls"
	SecurityReality Security = "reality"
)

const DefaultSecurity = SecurityNone

var securities = map[string]Security{
	"":        SecurityNone,
	"none":    SecurityNone,
	"tls":     SecurityTLS,
	"xtls":    SecurityTLS,
	"reality": SecurityReality,
}

func ParseSecurity(token string) (Security, bool) {
	if s, ok := securities[normalize(token)]; ok {
		return s, true
	}
	return DefaultSecurity, false
}

// HopProtocol is the packet disguise of a hysteria (v1) server.
type HopProtocol string

const (
	HopUDP         HopProtocol = "udp"
	HopWechatVideo HopProtocol = "wechat-video"
	HopFakeTCP     HopProtocol = "faketcp"
)

const DefaultHopProtocol = HopUDP

var hopProtocols = map[string]HopProtocol{
	"":             HopUDP,
	"udp":          HopUDP,
	"wechat-video": HopWechatVideo,
	"faketcp":      HopFakeTCP,
}

func ParseHopProtocol(token string) (HopProtocol, bool) {
	if p, ok := hopProtocols[normalize(token)]; ok {
		return p, true
	}
	return DefaultHopProtocol, false
}

// Congestion is the hysteria2 congestion-control mode. Brutal is the
// aggressive mode and only makes sense together with a bandwidth hint.
type Congestion string

const (
	CongestionBBR    Congestion = "bbr"
	CongestionBrutal Congestion = "brutal"
)

const DefaultCongestion = CongestionBBR

var congestions = map[string]Congestion{
	"":       CongestionBBR,
	"bbr":    CongestionBBR,
	"normal": CongestionBBR,
	"brutal": CongestionBrutal,
}

func ParseCongestion(token string) (Congestion, bool) {
	if c, ok := congestions[normalize(token)]; ok {
		return c, true
	}
	return DefaultCongestion, false
}

// ObfsSalamander is the only obfuscation hysteria2 defines.
const ObfsSalamander = "salamander"

func ParseObfsMode(token string) (string, bool) {
	if normalize(token) == ObfsSalamander {
		return ObfsSalamander, true
	}
	return ObfsSalamander, false
}

func normalize(token string) string {
	return strings.ToLower(strings.TrimSpace(token))
}
