package collectors

import (
	"context"
	"fmt"
	"sort"
)

// Collector gathers raw share-links from one kind of source. Params come
// from the collector's config block; keys starting with "_" are injected by
// the caller (proxy, timeout, user agent).
type Collector interface {
	Collect(ctx context.Context, params map[string]interface{}) ([]string, error)
}

type Factory func() Collector

var registry = make(map[string]Factory)

func Register(name string, factory Factory) {
	registry[name] = factory
}

func Get(name string) (Collector, error) {
	factory, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("collector plugin '%s' not found", name)
	}
	return factory(), nil
}

// Names lists the registered collector types.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
