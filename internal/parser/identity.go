package parser

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"submix/internal/node"
)

// Identity returns a stable hash of the fields that decide where and how a
// node connects. The display name is deliberately left out, so two links
// that only differ in their label share an identity.
func Identity(n node.ProxyNode) string {
	parts := []string{
		string(n.Protocol()),
		strings.ToLower(n.Server),
		strconv.Itoa(int(n.Port)),
	}

	switch p := n.Payload.(type) {
	case node.VLESS:
		parts = append(parts, strings.ToLower(p.UUID), string(p.Transport), string(p.Security), p.Flow, p.Path, p.ServiceName)
		if p.Reality != nil {
			parts = append(parts, p.Reality.PublicKey, p.Reality.ShortID)
		}
	case node.Hysteria:
		parts = append(parts, p.Auth, string(p.Transport), p.Obfs)
	case node.Hysteria2:
		parts = append(parts, p.Password, p.Ports)
		if p.Obfs != nil {
			parts = append(parts, p.Obfs.Mode, p.Obfs.Password)
		}
	case node.Shadowsocks:
		parts = append(parts, p.Cipher, p.Password, p.Plugin)
	case node.Trojan:
		parts = append(parts, p.Password, string(p.Transport), p.Path, p.ServiceName)
		if p.Reality != nil {
			parts = append(parts, p.Reality.PublicKey, p.Reality.ShortID)
		}
	}

	hash := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(hash[:])
}

// Dedupe drops nodes whose Identity was already seen, keeping the first.
func Dedupe(nodes []node.ProxyNode) []node.ProxyNode {
	seen := make(map[string]bool, len(nodes))
	out := make([]node.ProxyNode, 0, len(nodes))
	for _, n := range nodes {
		id := Identity(n)
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, n)
	}
	return out
}
