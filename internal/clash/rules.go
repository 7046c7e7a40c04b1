package clash

import "submix/internal/clash/ruleset"

func catchAll(mode Mode) Rule {
	if mode == Blacklist {
		return Rule{Type: "MATCH", Target: Direct}
	}
	return Rule{Type: "MATCH", Target: GroupAuto}
}

// simpleRules is the minimal table: LAN bypass, ad blocking and the
// mode-specific region rule. The catch-all is appended by the caller.
func simpleRules(mode Mode) []Rule {
	rules := []Rule{
		{Type: "GEOIP", Value: "LAN", Target: Direct, NoResolve: true},
		{Type: "GEOSITE", Value: "category-ads-all", Target: Reject},
	}
	if mode == Blacklist {
		return append(rules, Rule{Type: "GEOSITE", Value: "gfw", Target: GroupProxy})
	}
	return append(rules, Rule{Type: "GEOIP", Value: "CN", Target: Direct})
}

// fullRules copies the curated catalogue verbatim, resolving symbolic
// targets. Only providers the emitted rules reference are returned, in
// first-reference order.
func (g *Generator) fullRules(mode Mode) ([]Rule, []RuleProvider) {
	cat := g.opts.Catalogue
	entries := cat.Entries(mode == Blacklist)

	rules := make([]Rule, 0, len(entries)+1)
	var providers []RuleProvider
	seen := make(map[string]bool)

	for _, e := range entries {
		rules = append(rules, Rule{
			Type:      e.Type,
			Value:     e.Value,
			Target:    resolveTarget(e.Target),
			NoResolve: e.NoResolve,
		})

		if e.Type != "RULE-SET" || seen[e.Value] {
			continue
		}
		seen[e.Value] = true
		p, _ := cat.Provider(e.Value)
		providers = append(providers, RuleProvider{
			Name:     p.Name,
			Type:     "http",
			Behavior: p.Behavior,
			URL:      p.URL,
			Path:     p.Path,
			Interval: p.Interval,
		})
	}
	return rules, providers
}

func resolveTarget(t string) string {
	switch t {
	case ruleset.TargetProxy:
		return GroupProxy
	case ruleset.TargetAuto:
		return GroupAuto
	default:
		return t
	}
}
