package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/net/proxy"

	"submix/internal/collectors"
	"submix/internal/link"
	"submix/internal/logger"
)

const (
	DefaultTimeout   = 120 * time.Second
	DefaultMaxBytes  = 16 << 20
	DefaultUserAgent = "clash.meta"
)

// ErrBodyTooLarge is returned when a subscription exceeds Fetcher.MaxBytes.
var ErrBodyTooLarge = errors.New("subscription body too large")

// NewClient builds an HTTP client that optionally reaches the network
// through an upstream proxy: http(s):// via CONNECT, socks5:// via a dialer.
func NewClient(timeout time.Duration, proxyURL string) (*http.Client, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()

	if proxyURL != "" {
		u, err := url.Parse(proxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy url: %w", err)
		}
		switch u.Scheme {
		case "http", "https":
			transport.Proxy = http.ProxyURL(u)
		case "socks5", "socks5h":
			d, err := proxy.FromURL(u, proxy.Direct)
			if err != nil {
				return nil, fmt.Errorf("invalid socks proxy: %w", err)
			}
			transport.Proxy = nil
			if cd, ok := d.(proxy.ContextDialer); ok {
				transport.DialContext = cd.DialContext
			} else {
				transport.DialContext = func(_ context.Context, network, addr string) (net.Conn, error) {
					return d.Dial(network, addr)
				}
			}
		default:
			return nil, fmt.Errorf("unsupported proxy scheme %q", u.Scheme)
		}
		logger.Log.Debugf("HTTP client using proxy: %s", u.Redacted())
	}

	return &http.Client{Timeout: timeout, Transport: transport}, nil
}

// Fetcher downloads subscription bodies and turns them into links.
type Fetcher struct {
	Client    *http.Client
	UserAgent string
	MaxBytes  int64
}

func (f *Fetcher) Fetch(ctx context.Context, target string) ([]string, error) {
	u, err := url.Parse(target)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid subscription url %q", target)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	ua := f.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	req.Header.Set("User-Agent", ua)

	client := f.Client
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}

	logger.Log.Debugf("Fetching URL: %s", u.Redacted())
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch url: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("non-200 status code: %d", resp.StatusCode)
	}

	limit := f.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxBytes
	}
	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	if int64(len(bodyBytes)) > limit {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrBodyTooLarge, limit)
	}

	return link.Collect(bodyBytes), nil
}

type URLCollector struct{}

func (c *URLCollector) Collect(ctx context.Context, config map[string]interface{}) ([]string, error) {
	targets := stringList(config["url"])
	targets = append(targets, stringList(config["urls"])...)
	if len(targets) == 0 {
		return nil, fmt.Errorf("missing 'url' in collector config")
	}

	timeout := DefaultTimeout
	if d, ok := config["_timeout"].(time.Duration); ok && d > 0 {
		timeout = d
	}
	proxyURL, _ := config["_proxy_url"].(string)
	client, err := NewClient(timeout, proxyURL)
	if err != nil {
		return nil, err
	}

	f := &Fetcher{Client: client}
	f.UserAgent, _ = config["_user_agent"].(string)

	var all []string
	var lastErr error
	for _, target := range targets {
		links, err := f.Fetch(ctx, target)
		if err != nil {
			logger.Log.Warnf("⚠️ Subscription %s failed: %v", target, err)
			lastErr = err
			continue
		}
		all = append(all, links...)
	}
	if len(all) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return all, nil
}

func stringList(v interface{}) []string {
	switch t := v.(type) {
	case string:
		if t == "" {
			return nil
		}
		return []string{t}
	case []string:
		return t
	case []interface{}:
		var out []string
		for _, item := range t {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func init() {
	collectors.Register("http", func() collectors.Collector {
		return &URLCollector{}
	})
}
