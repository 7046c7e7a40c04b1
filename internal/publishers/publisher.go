package publishers

import (
	"context"
	"fmt"
)

// Document is a rendered subscription ready to be written somewhere.
type Document struct {
	Content string
	Format  string
	Nodes   int
	Skipped int
}

type Publisher interface {
	Publish(ctx context.Context, doc *Document, config map[string]interface{}) error
}

type Factory func() Publisher

var registry = make(map[string]Factory)

func Register(name string, factory Factory) {
	registry[name] = factory
}

func Get(name string) (Publisher, error) {
	factory, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("publisher plugin '%s' not found", name)
	}
	return factory(), nil
}
