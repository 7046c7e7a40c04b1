package parser

import (
	"fmt"
	"strings"

	"submix/internal/node"
)

// Parse routes one link to the parser of its scheme.
func Parse(raw string) (node.ProxyNode, error) {
	raw = FixIllegalUrl(raw)
	switch scheme := schemeOf(raw); scheme {
	case "vless":
		return ParseVLESS(raw)
	case "hysteria", "hy":
		return ParseHysteria(raw)
	case "hysteria2", "hy2":
		return ParseHysteria2(raw)
	case "ss":
		return ParseShadowsocks(raw)
	case "trojan":
		return ParseTrojan(raw)
	default:
		return node.ProxyNode{}, &node.Error{Kind: node.UnrecognizedScheme, Link: raw, Err: fmt.Errorf("unsupported protocol: %q", scheme)}
	}
}

// Skip records one link the dispatcher dropped.
type Skip struct {
	Index int // position in the input
	Link  string
	Err   error
}

// Batch is the outcome of parsing a list of links. Nodes keep input order.
type Batch struct {
	Nodes   []node.ProxyNode
	Skipped []Skip
}

func (b Batch) SkippedCount() int { return len(b.Skipped) }

// ParseBatch parses every non-blank link. A failing link never aborts the
// batch; it is recorded in Skipped instead.
func ParseBatch(links []string) Batch {
	b := Batch{Nodes: make([]node.ProxyNode, 0, len(links))}
	for i, raw := range links {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		n, err := Parse(raw)
		if err != nil {
			b.Skipped = append(b.Skipped, Skip{Index: i, Link: raw, Err: err})
			continue
		}
		b.Nodes = append(b.Nodes, n)
	}
	return b
}

// ParseMultipleProxies returns the nodes of every link that parsed, in input
// order. It never returns nil.
func ParseMultipleProxies(links []string) []node.ProxyNode {
	return ParseBatch(links).Nodes
}
