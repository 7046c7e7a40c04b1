package clash

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

type document struct {
	MixedPort          int           `yaml:"mixed-port,omitempty"`
	AllowLan           bool          `yaml:"allow-lan,omitempty"`
	Mode               string        `yaml:"mode"`
	LogLevel           string        `yaml:"log-level,omitempty"`
	IPv6               bool          `yaml:"ipv6,omitempty"`
	ExternalController string        `yaml:"external-controller,omitempty"`
	DNS                *dnsBlock     `yaml:"dns,omitempty"`
	Proxies            []proxyStanza `yaml:"proxies"`
	ProxyGroups        []groupStanza `yaml:"proxy-groups"`
	RuleProviders      *yaml.Node    `yaml:"rule-providers,omitempty"`
	Rules              []string      `yaml:"rules"`
}

type dnsBlock struct {
	Enable       bool     `yaml:"enable"`
	IPv6         bool     `yaml:"ipv6,omitempty"`
	EnhancedMode string   `yaml:"enhanced-mode,omitempty"`
	Nameserver   []string `yaml:"nameserver,omitempty"`
	Fallback     []string `yaml:"fallback,omitempty"`
}

type groupStanza struct {
	Name      string   `yaml:"name"`
	Type      string   `yaml:"type"`
	Proxies   []string `yaml:"proxies"`
	URL       string   `yaml:"url,omitempty"`
	Interval  int      `yaml:"interval,omitempty"`
	Tolerance int      `yaml:"tolerance,omitempty"`
	Strategy  string   `yaml:"strategy,omitempty"`
}

type providerStanza struct {
	Type     string `yaml:"type"`
	Behavior string `yaml:"behavior"`
	URL      string `yaml:"url"`
	Path     string `yaml:"path"`
	Interval int    `yaml:"interval"`
}

// ToYAML renders cfg as a mihomo configuration document. The output depends
// only on cfg, so equal configs give byte-identical text.
func ToYAML(cfg *Config) (string, error) {
	if cfg == nil {
		return "", errors.New("nil config")
	}

	doc := document{
		MixedPort:          cfg.Global.MixedPort,
		AllowLan:           cfg.Global.AllowLan,
		Mode:               cfg.Global.Mode,
		LogLevel:           cfg.Global.LogLevel,
		IPv6:               cfg.Global.IPv6,
		ExternalController: cfg.Global.ExternalController,
		Proxies:            make([]proxyStanza, 0, len(cfg.Proxies)),
		ProxyGroups:        make([]groupStanza, 0, len(cfg.Groups)),
		Rules:              make([]string, 0, len(cfg.Rules)),
	}
	if d := cfg.Global.DNS; d != nil {
		doc.DNS = &dnsBlock{
			Enable:       d.Enable,
			IPv6:         d.IPv6,
			EnhancedMode: d.EnhancedMode,
			Nameserver:   d.Nameserver,
			Fallback:     d.Fallback,
		}
	}

	for _, n := range cfg.Proxies {
		s, err := stanzaFor(n)
		if err != nil {
			return "", err
		}
		doc.Proxies = append(doc.Proxies, s)
	}

	for _, g := range cfg.Groups {
		gs := groupStanza{
			Name:     g.Name,
			Type:     string(g.Strategy),
			Proxies:  g.Members,
			Interval: g.Interval,
			Strategy: g.Balance,
		}
		if g.Strategy != StrategySelect {
			gs.URL = g.URL
		}
		if g.Strategy == StrategyURLTest {
			gs.Tolerance = g.Tolerance
		}
		doc.ProxyGroups = append(doc.ProxyGroups, gs)
	}

	if len(cfg.RuleProviders) > 0 {
		providers, err := providerMapping(cfg.RuleProviders)
		if err != nil {
			return "", err
		}
		doc.RuleProviders = providers
	}

	for _, r := range cfg.Rules {
		doc.Rules = append(doc.Rules, r.String())
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return "", fmt.Errorf("failed to encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("failed to encode config: %w", err)
	}
	return buf.String(), nil
}

// ConfigToYAML is ToYAML for configs produced by Generate, which always
// encode. It panics on a nil config.
func ConfigToYAML(cfg *Config) string {
	out, err := ToYAML(cfg)
	if err != nil {
		panic(fmt.Sprintf("clash: %v", err))
	}
	return out
}

// providerMapping keeps rule-providers in first-reference order; a Go map
// would be emitted sorted by key.
func providerMapping(providers []RuleProvider) (*yaml.Node, error) {
	m := &yaml.Node{Kind: yaml.MappingNode}
	for _, p := range providers {
		var value yaml.Node
		if err := value.Encode(providerStanza{
			Type:     p.Type,
			Behavior: p.Behavior,
			URL:      p.URL,
			Path:     p.Path,
			Interval: p.Interval,
		}); err != nil {
			return nil, fmt.Errorf("failed to encode rule provider %q: %w", p.Name, err)
		}
		m.Content = append(m.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: p.Name},
			&value,
		)
	}
	return m, nil
}
