// Package ruleset loads the curated rule collection the generator attaches in
// full-detail mode. The collection is data maintained upstream; this package
// only validates it and hands it out in evaluation order.
package ruleset

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed curated.yaml
var curatedYAML []byte

type Stage string

const (
	StageAdblock  Stage = "adblock"
	StageCategory Stage = "category"
	StageFallback Stage = "fallback"
)

var stageRank = map[Stage]int{
	StageAdblock:  0,
	StageCategory: 1,
	StageFallback: 2,
}

// Symbolic targets. Anything else in a catalogue is rejected.
const (
	TargetProxy  = "PROXY"
	TargetAuto   = "AUTO"
	TargetDirect = "DIRECT"
	TargetReject = "REJECT"
)

type Provider struct {
	Name     string `yaml:"name"`
	Behavior string `yaml:"behavior"`
	URL      string `yaml:"url"`
	Path     string `yaml:"path"`
	Interval int    `yaml:"interval"`
}

type Entry struct {
	Stage     Stage  `yaml:"stage"`
	Type      string `yaml:"type"`
	Value     string `yaml:"value"`
	Target    string `yaml:"target"`
	NoResolve bool   `yaml:"no_resolve"`
}

type Catalogue struct {
	Version   string     `yaml:"version"`
	BaseURL   string     `yaml:"base_url"`
	Interval  int        `yaml:"interval"`
	Providers []Provider `yaml:"providers"`
	Whitelist []Entry    `yaml:"whitelist"`
	Blacklist []Entry    `yaml:"blacklist"`

	byName map[string]Provider
}

var (
	defaultOnce sync.Once
	defaultCat  *Catalogue
)

// Default returns the embedded catalogue. It is parsed once and must not be
// modified by callers.
func Default() *Catalogue {
	defaultOnce.Do(func() {
		c, err := Parse(curatedYAML)
		if err != nil {
			panic(fmt.Sprintf("ruleset: embedded catalogue is invalid: %v", err))
		}
		defaultCat = c
	})
	return defaultCat
}

// Load reads a catalogue from a YAML file.
func Load(path string) (*Catalogue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read ruleset file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a catalogue, filling provider defaults.
func Parse(data []byte) (*Catalogue, error) {
	var c Catalogue
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse ruleset yaml: %w", err)
	}
	if c.Interval <= 0 {
		c.Interval = 86400
	}

	c.byName = make(map[string]Provider, len(c.Providers))
	for i := range c.Providers {
		p := &c.Providers[i]
		if p.Name == "" {
			return nil, fmt.Errorf("provider #%d has no name", i+1)
		}
		if _, dup := c.byName[p.Name]; dup {
			return nil, fmt.Errorf("provider %q defined twice", p.Name)
		}
		if p.Behavior == "" {
			p.Behavior = "classical"
		}
		if p.URL == "" {
			if c.BaseURL == "" {
				return nil, fmt.Errorf("provider %q has no url and no base_url is set", p.Name)
			}
			p.URL = strings.TrimRight(c.BaseURL, "/") + "/" + p.Name + ".txt"
		}
		if p.Path == "" {
			p.Path = "./ruleset/" + p.Name + ".yaml"
		}
		if p.Interval <= 0 {
			p.Interval = c.Interval
		}
		c.byName[p.Name] = *p
	}

	for _, list := range [][]Entry{c.Whitelist, c.Blacklist} {
		for i, e := range list {
			if err := c.validate(e); err != nil {
				return nil, fmt.Errorf("entry #%d: %w", i+1, err)
			}
		}
	}
	return &c, nil
}

func (c *Catalogue) validate(e Entry) error {
	if _, ok := stageRank[e.Stage]; !ok {
		return fmt.Errorf("unknown stage %q", e.Stage)
	}
	switch e.Target {
	case TargetProxy, TargetAuto, TargetDirect, TargetReject:
	default:
		return fmt.Errorf("unknown target %q", e.Target)
	}
	switch strings.ToUpper(e.Type) {
	case "":
		return fmt.Errorf("missing rule type")
	case "MATCH":
		return fmt.Errorf("catch-all rules are appended by the generator")
	case "RULE-SET":
		if _, ok := c.byName[e.Value]; !ok {
			return fmt.Errorf("rule-set %q references an unknown provider", e.Value)
		}
	}
	if e.Value == "" {
		return fmt.Errorf("rule %s has no value", e.Type)
	}
	return nil
}

// Entries returns the rules for one mode ordered by stage. Order inside a
// stage is the catalogue's own.
func (c *Catalogue) Entries(blacklist bool) []Entry {
	src := c.Whitelist
	if blacklist {
		src = c.Blacklist
	}
	out := make([]Entry, len(src))
	copy(out, src)
	sort.SliceStable(out, func(i, j int) bool {
		return stageRank[out[i].Stage] < stageRank[out[j].Stage]
	})
	return out
}

func (c *Catalogue) Provider(name string) (Provider, bool) {
	p, ok := c.byName[name]
	return p, ok
}
