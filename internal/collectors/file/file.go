package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"submix/internal/collectors"
	"submix/internal/link"
	"submix/internal/logger"
)

// FileCollector reads links from local files. Params: path (string) or
// paths (list); glob patterns are expanded.
type FileCollector struct{}

func (c *FileCollector) Collect(ctx context.Context, config map[string]interface{}) ([]string, error) {
	var patterns []string
	if p, ok := config["path"].(string); ok && p != "" {
		patterns = append(patterns, p)
	}
	if list, ok := config["paths"].([]interface{}); ok {
		for _, item := range list {
			if s, ok := item.(string); ok && s != "" {
				patterns = append(patterns, s)
			}
		}
	}
	if len(patterns) == 0 {
		return nil, fmt.Errorf("missing 'path' in collector config")
	}

	var all []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			logger.Log.Warnf("⚠️ No files match %s", pattern)
		}
		for _, name := range matches {
			if err := ctx.Err(); err != nil {
				return all, err
			}
			body, err := os.ReadFile(name)
			if err != nil {
				return all, fmt.Errorf("failed to read %s: %w", name, err)
			}
			links := link.Collect(body)
			logger.Log.Debugf("File %s: %d links", name, len(links))
			all = append(all, links...)
		}
	}
	return all, nil
}

func init() {
	collectors.Register("file", func() collectors.Collector {
		return &FileCollector{}
	})
}
