package main

import (
	"strconv"

	"submix/internal/clash"
	fetch "submix/internal/collectors/http"
	"submix/internal/config"
	"submix/internal/geoip"
	"submix/internal/logger"
	"submix/internal/publishers"
)

func loadConfig() *config.Config {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		logger.Log.Fatalf("Error loading config: %v", err)
	}
	return cfg
}

func newGenerator(cfg *config.Config) *clash.Generator {
	gen, err := publishers.NewGenerator(cfg.Generator)
	if err != nil {
		logger.Log.Fatalf("Error loading ruleset: %v", err)
	}
	return gen
}

func newFetcher(cfg *config.Config) *fetch.Fetcher {
	client, err := fetch.NewClient(cfg.Fetch.Timeout, cfg.Fetch.Proxy)
	if err != nil {
		logger.Log.Fatalf("Error creating HTTP client: %v", err)
	}
	return &fetch.Fetcher{Client: client, UserAgent: cfg.Fetch.UserAgent}
}

func parseEnums(mode, detail string) (clash.Mode, clash.Detail) {
	m, err := clash.ParseMode(mode)
	if err != nil {
		logger.Log.Fatalf("Invalid --mode: %v", err)
	}
	d, err := clash.ParseDetail(detail)
	if err != nil {
		logger.Log.Fatalf("Invalid --detail: %v", err)
	}
	return m, d
}

// initGeoIP opens the country database. Failure only disables decoration.
func initGeoIP(cfg *config.Config) bool {
	if err := geoip.Init(cfg.GeoIP.CountryPath); err != nil {
		logger.Log.Warnf("GeoIP disabled: %v", err)
		return false
	}
	logger.Log.Debugf("🌍 GeoIP database loaded: %s", cfg.GeoIP.CountryPath)
	return true
}

// applyParams merges --param overrides, turning numeric values into ints.
func applyParams(params map[string]interface{}, overrides map[string]string) map[string]interface{} {
	if params == nil {
		params = make(map[string]interface{})
	}
	for k, v := range overrides {
		if intVal, err := strconv.Atoi(v); err == nil {
			params[k] = intVal
		} else {
			params[k] = v
		}
	}
	return params
}
