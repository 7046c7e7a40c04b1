package vocab

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTransport(t *testing.T) {
	tests := []struct {
		token     string
		want      Transport
		wantKnown bool
	}{
		{"", TransportTCP, true},
		{"raw", TransportTCP, true},
		{" WS ", TransportWS, true},
		{"websocket", TransportWS, true},
		{"gun", TransportGRPC, true},
		{"h2", TransportH2, true},
		{"kcp", TransportTCP, false},
	}
	for _, tt := range tests {
		got, known := ParseTransport(tt.token)
		assert.Equal(t, tt.want, got, tt.token)
		assert.Equal(t, tt.wantKnown, known, tt.token)
	}
}

func TestParseStreamTransport(t *testing.T) {
	got, known := ParseStreamTransport("grpc")
	assert.Equal(t, TransportGRPC, got)
	assert.True(t, known)

	got, known = ParseStreamTransport("h2")
	assert.Equal(t, TransportTCP, got)
	assert.False(t, known)
}

func TestParseSecurity(t *testing.T) {
	s, known := ParseSecurity("REALITY")
	assert.Equal(t, SecurityReality, s)
	assert.True(t, known)

	s, _ = ParseSecurity("xtls")
	assert.Equal(t, SecurityTLS, s)

	s, known = ParseSecurity("auto")
	assert.Equal(t, DefaultSecurity, s)
	assert.False(t, known)
}

func TestParseHopProtocolAndCongestion(t *testing.T) {
	p, known := ParseHopProtocol("faketcp")
	assert.Equal(t, HopFakeTCP, p)
	assert.True(t, known)

	p, known = ParseHopProtocol("quic")
	assert.Equal(t, HopUDP, p)
	assert.False(t, known)

	c, _ := ParseCongestion("brutal")
	assert.Equal(t, CongestionBrutal, c)
	c, known = ParseCongestion("cubic")
	assert.Equal(t, CongestionBBR, c)
	assert.False(t, known)

	mode, known := ParseObfsMode("Salamander")
	assert.Equal(t, ObfsSalamander, mode)
	assert.True(t, known)
}

func TestCiphers(t *testing.T) {
	tests := []struct {
		token     string
		want      string
		wantKnown bool
		is2022    bool
	}{
		{"aes-128-gcm", "aes-128-gcm", true, false},
		{"CHACHA20-IETF-POLY1305", "chacha20-ietf-poly1305", true, false},
		{"2022-blake3-chacha20-poly1305", "2022-blake3-chacha20-poly1305", true, true},
		{"2022-blake3-aes-512-gcm", Default2022Cipher, false, true},
		{"2024-future-suite", Default2022Cipher, false, true},
		{"rot13", DefaultLegacyCipher, false, false},
		{"", DefaultLegacyCipher, false, false},
	}
	for _, tt := range tests {
		got, known := ParseCipher(tt.token)
		assert.Equal(t, tt.want, got, tt.token)
		assert.Equal(t, tt.wantKnown, known, tt.token)
		assert.Equal(t, tt.is2022, Is2022(tt.token), tt.token)
	}
}

func TestLooksLikeCipherPrefix(t *testing.T) {
	assert.True(t, LooksLikeCipherPrefix("aes-256-gcm:secret"))
	assert.True(t, LooksLikeCipherPrefix("2022-blake3-aes-128-gcm:a2V5"))
	assert.False(t, LooksLikeCipherPrefix("YWVzLTI1Ni1nY206cGFzcw"))
	assert.False(t, LooksLikeCipherPrefix("unknown:secret"))
}

func TestParseMbps(t *testing.T) {
	tests := []struct {
		in     string
		want   int
		wantOK bool
	}{
		{"30", 30, true},
		{"30 Mbps", 30, true},
		{"30mbps", 30, true},
		{"1 Gbps", 1000, true},
		{"2g", 2000, true},
		{"500 kbps", 0, false},
		{"fast", 0, false},
		{"", 0, false},
		{"-5", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseMbps(tt.in)
		assert.Equal(t, tt.wantOK, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
	assert.Equal(t, "30 Mbps", FormatMbps(30))
}
