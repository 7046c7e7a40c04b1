// Package clash turns parsed proxy nodes into a Clash/mihomo configuration
// and renders it as YAML.
package clash

import (
	"fmt"
	"strings"

	"submix/internal/node"
)

// Mode decides where unmatched traffic goes.
type Mode string

const (
	// Whitelist proxies by default; the rules list what goes direct.
	Whitelist Mode = "whitelist"
	// Blacklist goes direct by default; the rules list what is proxied.
	Blacklist Mode = "blacklist"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", Whitelist:
		return Whitelist, nil
	case Blacklist:
		return Blacklist, nil
	default:
		return "", fmt.Errorf("unknown mode %q (want whitelist or blacklist)", s)
	}
}

// Detail selects the size of the rule table.
type Detail string

const (
	Full   Detail = "full"
	Simple Detail = "simple"
)

func ParseDetail(s string) (Detail, error) {
	switch Detail(strings.ToLower(strings.TrimSpace(s))) {
	case "", Full:
		return Full, nil
	case Simple:
		return Simple, nil
	default:
		return "", fmt.Errorf("unknown detail %q (want full or simple)", s)
	}
}

type Strategy string

const (
	StrategySelect      Strategy = "select"
	StrategyURLTest     Strategy = "url-test"
	StrategyFallback    Strategy = "fallback"
	StrategyLoadBalance Strategy = "load-balance"
)

// Built-in policy and group names.
const (
	Direct = "DIRECT"
	Reject = "REJECT"

	GroupProxy       = "Proxy"
	GroupAuto        = "Auto"
	GroupFallback    = "Fallback"
	GroupLoadBalance = "LoadBalance"
)

var reservedNames = []string{Direct, Reject, GroupProxy, GroupAuto, GroupFallback, GroupLoadBalance}

// ProxyGroup is a named selection policy over proxies or earlier groups.
type ProxyGroup struct {
	Name     string
	Strategy Strategy
	Members  []string

	// probe settings, unused by select groups
	URL       string
	Interval  int
	Tolerance int

	// load-balance only
	Balance string
}

type Rule struct {
	Type      string // DOMAIN-SUFFIX, RULE-SET, GEOIP, MATCH, ...
	Value     string
	Target    string
	NoResolve bool
}

func (r Rule) String() string {
	if r.Type == "MATCH" {
		return "MATCH," + r.Target
	}
	s := r.Type + "," + r.Value + "," + r.Target
	if r.NoResolve {
		s += ",no-resolve"
	}
	return s
}

type RuleProvider struct {
	Name     string
	Type     string
	Behavior string
	URL      string
	Path     string
	Interval int
}

type DNS struct {
	Enable       bool
	IPv6         bool
	EnhancedMode string
	Nameserver   []string
	Fallback     []string
}

type Global struct {
	MixedPort          int
	AllowLan           bool
	Mode               string
	LogLevel           string
	IPv6               bool
	ExternalController string
	DNS                *DNS
}

// Config is the generated document before serialization. It is built fresh
// per call and not modified afterwards.
type Config struct {
	Global        Global
	Proxies       []node.ProxyNode
	Groups        []ProxyGroup
	Rules         []Rule
	RuleProviders []RuleProvider
}

// Group returns the group called name.
func (c *Config) Group(name string) (ProxyGroup, bool) {
	for _, g := range c.Groups {
		if g.Name == name {
			return g, true
		}
	}
	return ProxyGroup{}, false
}

// CatchAll returns the final MATCH rule.
func (c *Config) CatchAll() (Rule, bool) {
	if len(c.Rules) == 0 {
		return Rule{}, false
	}
	last := c.Rules[len(c.Rules)-1]
	return last, last.Type == "MATCH"
}
