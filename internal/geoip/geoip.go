// Package geoip prefixes proxy names with the flag of the country their
// server address belongs to. Only IP-literal servers are looked up;
// hostnames are never resolved.
package geoip

import (
	"fmt"
	"net"
	"strings"
	"sync"

	"github.com/oschwald/geoip2-golang"

	"submix/internal/logger"
	"submix/internal/node"
)

var (
	countryReader *geoip2.Reader
	once          sync.Once
	initErr       error
)

// Init loads the country MMDB. It runs once; later calls return the first
// result.
func Init(countryPath string) error {
	once.Do(func() {
		if countryPath == "" {
			initErr = fmt.Errorf("no country database configured")
			return
		}
		var err error
		countryReader, err = geoip2.Open(countryPath)
		if err != nil {
			initErr = fmt.Errorf("failed to open Country DB at %s: %w", countryPath, err)
		}
	})
	return initErr
}

// Ready reports whether a country database is loaded.
func Ready() bool {
	return countryReader != nil
}

// Country returns the ISO code of ip, or "" when unknown.
func Country(ip net.IP) string {
	if countryReader == nil {
		return ""
	}
	c, err := countryReader.Country(ip)
	if err != nil {
		logger.Log.Debugf("Country lookup for %s failed: %v", ip, err)
		return ""
	}
	return c.Country.IsoCode
}

// Decorate is DecorateWith using the loaded database. Without one it
// returns nodes unchanged.
func Decorate(nodes []node.ProxyNode) []node.ProxyNode {
	if !Ready() {
		return nodes
	}
	return DecorateWith(nodes, Country)
}

// DecorateWith returns copies of nodes whose names carry the flag of the
// country lookup reports for their IP-literal server.
func DecorateWith(nodes []node.ProxyNode, lookup func(net.IP) string) []node.ProxyNode {
	out := make([]node.ProxyNode, len(nodes))
	for i, n := range nodes {
		out[i] = n
		ip := net.ParseIP(strings.Trim(n.Server, "[]"))
		if ip == nil {
			continue
		}
		flag := Flag(lookup(ip))
		if flag == "" || strings.HasPrefix(n.Name, flag) {
			continue
		}
		out[i] = n.WithName(flag + " " + n.Name)
	}
	return out
}

// Flag renders a two-letter ISO country code as a regional-indicator emoji.
func Flag(iso string) string {
	iso = strings.ToUpper(strings.TrimSpace(iso))
	if len(iso) != 2 || iso == "XX" {
		return ""
	}
	var b strings.Builder
	for _, r := range iso {
		if r < 'A' || r > 'Z' {
			return ""
		}
		b.WriteRune(0x1F1E6 + (r - 'A'))
	}
	return b.String()
}

func Close() {
	if countryReader != nil {
		countryReader.Close()
	}
}
