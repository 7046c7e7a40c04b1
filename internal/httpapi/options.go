package httpapi

import (
	"time"

	"submix/internal/clash"
	fetch "submix/internal/collectors/http"
	"submix/internal/metrics"
)

// Options controls the conversion handlers. The zero value is usable.
type Options struct {
	Generator *clash.Generator
	Fetcher   *fetch.Fetcher
	Metrics   *metrics.Collector

	Dedupe   bool
	Decorate bool

	MaxBodyBytes     int64
	MaxSubscriptions int
	ConvertTimeout   time.Duration
}

func (o Options) withDefaults() Options {
	if o.Generator == nil {
		o.Generator = clash.New(clash.DefaultOptions())
	}
	if o.Fetcher == nil {
		o.Fetcher = &fetch.Fetcher{}
	}
	if o.Metrics == nil {
		o.Metrics = metrics.New()
	}
	if o.MaxBodyBytes <= 0 {
		o.MaxBodyBytes = 4 << 20
	}
	if o.MaxSubscriptions <= 0 {
		o.MaxSubscriptions = 8
	}
	if o.ConvertTimeout <= 0 {
		o.ConvertTimeout = 60 * time.Second
	}
	return o
}
