package clash

import (
	"fmt"
	"strings"

	"submix/internal/clash/ruleset"
	"submix/internal/node"
)

const (
	DefaultProbeURL      = "http://www.gstatic.com/generate_204"
	DefaultProbeInterval = 300
	DefaultTolerance     = 50
	DefaultBalance       = "consistent-hashing"
)

// Options tune the generated document. Zero values take the defaults.
type Options struct {
	ProbeURL      string
	ProbeInterval int // seconds
	Tolerance     int // milliseconds, url-test only
	Balance       string

	Global Global
	// DNS is attached in full detail only.
	DNS *DNS

	Catalogue *ruleset.Catalogue
}

func DefaultOptions() Options {
	return Options{
		ProbeURL:      DefaultProbeURL,
		ProbeInterval: DefaultProbeInterval,
		Tolerance:     DefaultTolerance,
		Balance:       DefaultBalance,
		Global: Global{
			MixedPort:          7890,
			Mode:               "rule",
			LogLevel:           "info",
			ExternalController: "127.0.0.1:9090",
		},
	}
}

type Generator struct {
	opts Options
}

func New(opts Options) *Generator {
	def := DefaultOptions()
	if opts.ProbeURL == "" {
		opts.ProbeURL = def.ProbeURL
	}
	if opts.ProbeInterval <= 0 {
		opts.ProbeInterval = def.ProbeInterval
	}
	if opts.Tolerance <= 0 {
		opts.Tolerance = def.Tolerance
	}
	if opts.Balance == "" {
		opts.Balance = def.Balance
	}
	if opts.Global.Mode == "" {
		opts.Global.Mode = def.Global.Mode
	}
	if opts.Catalogue == nil {
		opts.Catalogue = ruleset.Default()
	}
	return &Generator{opts: opts}
}

var defaultGenerator = New(DefaultOptions())

// Generate builds a configuration with the default options.
func Generate(nodes []node.ProxyNode, mode Mode, detail Detail) (*Config, error) {
	return defaultGenerator.Generate(nodes, mode, detail)
}

// GenerateSimple is Generate with the minimal rule table.
func GenerateSimple(nodes []node.ProxyNode, mode Mode) (*Config, error) {
	return defaultGenerator.Generate(nodes, mode, Simple)
}

// Generate builds the configuration for nodes. Groups only ever reference
// names defined before them.
func (g *Generator) Generate(nodes []node.ProxyNode, mode Mode, detail Detail) (*Config, error) {
	if len(nodes) == 0 {
		return nil, &node.Error{Kind: node.EmptyNodeList, Err: fmt.Errorf("no proxies to generate a config from")}
	}
	if mode != Blacklist {
		mode = Whitelist
	}
	if detail != Simple {
		detail = Full
	}

	proxies := uniqueNames(nodes)
	names := make([]string, len(proxies))
	for i, p := range proxies {
		names[i] = p.Name
	}

	cfg := &Config{
		Global:  g.opts.Global,
		Proxies: proxies,
		Groups:  g.groups(names),
	}
	if detail == Full && g.opts.DNS != nil {
		dns := *g.opts.DNS
		cfg.Global.DNS = &dns
	}

	if detail == Full {
		cfg.Rules, cfg.RuleProviders = g.fullRules(mode)
	} else {
		cfg.Rules = simpleRules(mode)
	}
	cfg.Rules = append(cfg.Rules, catchAll(mode))
	return cfg, nil
}

func (g *Generator) groups(names []string) []ProxyGroup {
	members := func(extra ...string) []string {
		out := make([]string, 0, len(names)+len(extra))
		out = append(out, names...)
		return append(out, extra...)
	}

	return []ProxyGroup{
		{
			Name:     GroupProxy,
			Strategy: StrategySelect,
			Members:  members(Direct),
		},
		{
			Name:      GroupAuto,
			Strategy:  StrategyURLTest,
			Members:   members(),
			URL:       g.opts.ProbeURL,
			Interval:  g.opts.ProbeInterval,
			Tolerance: g.opts.Tolerance,
		},
		{
			Name:     GroupFallback,
			Strategy: StrategyFallback,
			Members:  members(),
			URL:      g.opts.ProbeURL,
			Interval: g.opts.ProbeInterval,
		},
		{
			Name:     GroupLoadBalance,
			Strategy: StrategyLoadBalance,
			Members:  members(),
			URL:      g.opts.ProbeURL,
			Interval: g.opts.ProbeInterval,
			Balance:  g.opts.Balance,
		},
	}
}

// uniqueNames resolves display-name collisions in first-seen order: the
// first node keeps its name, later ones get -2, -3, ... Built-in policy
// and group names count as taken.
func uniqueNames(nodes []node.ProxyNode) []node.ProxyNode {
	used := make(map[string]bool, len(nodes)+len(reservedNames))
	for _, r := range reservedNames {
		used[r] = true
	}

	out := make([]node.ProxyNode, 0, len(nodes))
	for _, n := range nodes {
		base := strings.TrimSpace(n.Name)
		if base == "" {
			base = node.DefaultName(n.Protocol(), n.Server, n.Port)
		}
		name := base
		for k := 2; used[name]; k++ {
			name = fmt.Sprintf("%s-%d", base, k)
		}
		used[name] = true
		out = append(out, n.WithName(name))
	}
	return out
}
