package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const DefaultPath = "config.yaml"

type Config struct {
	Database   DatabaseConfig    `yaml:"database"`
	Generator  GeneratorConfig   `yaml:"generator"`
	Fetch      FetchConfig       `yaml:"fetch"`
	GeoIP      GeoIPConfig       `yaml:"geoip"`
	Server     ServerConfig      `yaml:"server"`
	Collectors []CollectorConfig `yaml:"collectors"`
	Publishers []PublisherConfig `yaml:"publishers"`
}

type DatabaseConfig struct {
	Path     string `yaml:"path"`
	MaxLinks int    `yaml:"max_links"`
}

type GeneratorConfig struct {
	Mode   string `yaml:"mode"`   // whitelist | blacklist
	Detail string `yaml:"detail"` // full | simple

	ProbeURL      string `yaml:"probe_url"`
	ProbeInterval int    `yaml:"probe_interval"` // seconds
	Tolerance     int    `yaml:"tolerance"`      // milliseconds
	Balance       string `yaml:"balance"`

	// Optional curated rule catalogue overriding the built-in one.
	RulesetPath string `yaml:"ruleset_path"`

	MixedPort          int       `yaml:"mixed_port"`
	AllowLan           bool      `yaml:"allow_lan"`
	LogLevel           string    `yaml:"log_level"`
	IPv6               bool      `yaml:"ipv6"`
	ExternalController string    `yaml:"external_controller"`
	DNS                DNSConfig `yaml:"dns"`

	Dedupe bool `yaml:"dedupe"`
}

type DNSConfig struct {
	Enabled      bool     `yaml:"enabled"`
	IPv6         bool     `yaml:"ipv6"`
	EnhancedMode string   `yaml:"enhanced_mode"`
	Nameserver   []string `yaml:"nameserver"`
	Fallback     []string `yaml:"fallback"`
}

type FetchConfig struct {
	Timeout   time.Duration `yaml:"timeout"`
	Proxy     string        `yaml:"proxy"` // http(s):// or socks5://
	UserAgent string        `yaml:"user_agent"`
}

type GeoIPConfig struct {
	Enabled     bool   `yaml:"enabled"`
	CountryPath string `yaml:"country_path"`
}

type ServerConfig struct {
	Listen           string        `yaml:"listen"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	ShutdownTimeout  time.Duration `yaml:"shutdown_timeout"`
	MaxBodyBytes     int64         `yaml:"max_body_bytes"`
	MaxSubscriptions int           `yaml:"max_subscriptions"`
}

type CollectorConfig struct {
	Name   string                 `yaml:"name"`
	Type   string                 `yaml:"type"`
	Params map[string]interface{} `yaml:"params"`
}

type PublisherConfig struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
	// Collector names whose stored links feed this publisher; empty means all.
	Sources []string `yaml:"sources"`
	// Per-publisher overrides of generator.mode and generator.detail.
	Mode   string                 `yaml:"mode"`
	Detail string                 `yaml:"detail"`
	Format string                 `yaml:"format"` // yaml | links | base64
	Params map[string]interface{} `yaml:"params"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	var cfg Config
	cfg.Database.Path = "submix.db"
	cfg.Database.MaxLinks = 5000

	cfg.Generator.Mode = "whitelist"
	cfg.Generator.Detail = "full"
	cfg.Generator.ProbeURL = "http://www.gstatic.com/generate_204"
	cfg.Generator.ProbeInterval = 300
	cfg.Generator.Tolerance = 50
	cfg.Generator.Balance = "consistent-hashing"
	cfg.Generator.MixedPort = 7890
	cfg.Generator.LogLevel = "info"
	cfg.Generator.ExternalController = "127.0.0.1:9090"
	cfg.Generator.DNS.EnhancedMode = "fake-ip"
	cfg.Generator.DNS.Nameserver = []string{"223.5.5.5", "119.29.29.29"}
	cfg.Generator.DNS.Fallback = []string{"https://1.1.1.1/dns-query", "https://dns.google/dns-query"}

	cfg.Fetch.Timeout = 15 * time.Second
	cfg.Fetch.UserAgent = "clash.meta"

	cfg.GeoIP.CountryPath = "GeoLite2-Country.mmdb"

	cfg.Server.Listen = ":8080"
	cfg.Server.ReadTimeout = 15 * time.Second
	cfg.Server.WriteTimeout = 60 * time.Second
	cfg.Server.ShutdownTimeout = 10 * time.Second
	cfg.Server.MaxBodyBytes = 4 << 20
	cfg.Server.MaxSubscriptions = 8
	return &cfg
}

// Load reads the config at path over the defaults. An empty path means
// config.yaml, which may be absent.
func Load(path string) (*Config, error) {
	optional := path == ""
	if optional {
		path = DefaultPath
	}

	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if optional && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config yaml: %w", err)
	}

	if cfg.Database.MaxLinks < 0 {
		cfg.Database.MaxLinks = 0
	}
	for i := range cfg.Publishers {
		if cfg.Publishers[i].Format == "" {
			cfg.Publishers[i].Format = "yaml"
		}
		if cfg.Publishers[i].Mode == "" {
			cfg.Publishers[i].Mode = cfg.Generator.Mode
		}
		if cfg.Publishers[i].Detail == "" {
			cfg.Publishers[i].Detail = cfg.Generator.Detail
		}
	}

	return cfg, nil
}

func (c *Config) FilterCollectors(names []string) {
	if len(names) == 0 {
		return
	}
	whitelist := make(map[string]bool)
	for _, n := range names {
		whitelist[n] = true
	}
	var filtered []CollectorConfig
	for _, item := range c.Collectors {
		if whitelist[item.Name] {
			filtered = append(filtered, item)
		}
	}
	c.Collectors = filtered
}

func (c *Config) FilterPublishers(names []string) {
	if len(names) == 0 {
		return
	}
	whitelist := make(map[string]bool)
	for _, n := range names {
		whitelist[n] = true
	}
	var filtered []PublisherConfig
	for _, item := range c.Publishers {
		if whitelist[item.Name] {
			filtered = append(filtered, item)
		}
	}
	c.Publishers = filtered
}
