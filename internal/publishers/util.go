package publishers

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"submix/internal/clash"
	"submix/internal/clash/ruleset"
	"submix/internal/config"
	"submix/internal/geoip"
	"submix/internal/logger"
	"submix/internal/metrics"
	"submix/internal/node"
	"submix/internal/parser"
)

// Output formats.
const (
	FormatYAML   = "yaml"
	FormatLinks  = "links"
	FormatBase64 = "base64"
)

func ParseFormat(s string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(s)); f {
	case "", FormatYAML:
		return FormatYAML, nil
	case FormatLinks, FormatBase64:
		return f, nil
	default:
		return "", fmt.Errorf("unknown format %q (want yaml, links or base64)", s)
	}
}

type BuildOptions struct {
	Generator *clash.Generator // nil means clash defaults
	Mode      clash.Mode
	Detail    clash.Detail
	Format    string

	Dedupe   bool
	Decorate bool // prefix names with GeoIP flags
	Metrics  *metrics.Collector
}

// BuildDocument runs links through the dispatcher and renders the surviving
// nodes. It fails with node.ErrEmptyNodeList when nothing parsed; the batch
// is returned either way so callers can report what was skipped.
func BuildDocument(links []string, opts BuildOptions) (*Document, parser.Batch, error) {
	batch := parser.ParseBatch(links)
	if opts.Metrics != nil {
		opts.Metrics.RecordBatch(batch)
	}
	for _, s := range batch.Skipped {
		logger.Log.Debugf("⚠️ Dropped link #%d (%v)", s.Index+1, s.Err)
	}

	nodes := batch.Nodes
	if opts.Dedupe {
		nodes = parser.Dedupe(nodes)
	}
	if opts.Decorate {
		nodes = geoip.Decorate(nodes)
	}

	start := time.Now()
	content, err := render(nodes, opts)
	if opts.Metrics != nil {
		opts.Metrics.RecordConversion(time.Since(start), err)
	}
	if err != nil {
		return nil, batch, err
	}

	return &Document{
		Content: content,
		Format:  opts.Format,
		Nodes:   len(nodes),
		Skipped: batch.SkippedCount(),
	}, batch, nil
}

func render(nodes []node.ProxyNode, opts BuildOptions) (string, error) {
	if len(nodes) == 0 {
		return "", &node.Error{Kind: node.EmptyNodeList, Err: fmt.Errorf("no link could be parsed")}
	}

	switch opts.Format {
	case "", FormatYAML:
		gen := opts.Generator
		if gen == nil {
			gen = clash.New(clash.DefaultOptions())
		}
		cfg, err := gen.Generate(nodes, opts.Mode, opts.Detail)
		if err != nil {
			return "", err
		}
		return clash.ToYAML(cfg)
	case FormatLinks, FormatBase64:
		lines := make([]string, len(nodes))
		for i, n := range nodes {
			lines[i] = parser.ToLink(n)
		}
		text := strings.Join(lines, "\n")
		if opts.Format == FormatBase64 {
			return base64.StdEncoding.EncodeToString([]byte(text)), nil
		}
		return text, nil
	default:
		return "", fmt.Errorf("unknown format %q", opts.Format)
	}
}

// NewGenerator builds a generator from the generator section of the config.
func NewGenerator(gc config.GeneratorConfig) (*clash.Generator, error) {
	opts := clash.DefaultOptions()
	opts.ProbeURL = gc.ProbeURL
	opts.ProbeInterval = gc.ProbeInterval
	opts.Tolerance = gc.Tolerance
	opts.Balance = gc.Balance

	opts.Global.AllowLan = gc.AllowLan
	opts.Global.IPv6 = gc.IPv6
	if gc.MixedPort > 0 {
		opts.Global.MixedPort = gc.MixedPort
	}
	if gc.LogLevel != "" {
		opts.Global.LogLevel = gc.LogLevel
	}
	if gc.ExternalController != "" {
		opts.Global.ExternalController = gc.ExternalController
	}

	if gc.DNS.Enabled {
		opts.DNS = &clash.DNS{
			Enable:       true,
			IPv6:         gc.DNS.IPv6,
			EnhancedMode: gc.DNS.EnhancedMode,
			Nameserver:   gc.DNS.Nameserver,
			Fallback:     gc.DNS.Fallback,
		}
	}

	if gc.RulesetPath != "" {
		cat, err := ruleset.Load(gc.RulesetPath)
		if err != nil {
			return nil, err
		}
		opts.Catalogue = cat
	}
	return clash.New(opts), nil
}
