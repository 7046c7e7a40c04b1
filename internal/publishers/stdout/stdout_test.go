package stdout

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"submix/internal/publishers"
)

func TestPublish(t *testing.T) {
	var buf bytes.Buffer
	p := &Publisher{Out: &buf}
	doc := &publishers.Document{Content: "rules:\n- MATCH,Auto", Format: "yaml", Nodes: 2}

	require.NoError(t, p.Publish(context.Background(), doc, nil))
	assert.Equal(t, "rules:\n- MATCH,Auto\n", buf.String())

	buf.Reset()
	require.NoError(t, p.Publish(context.Background(), doc, map[string]interface{}{"banner": true}))
	assert.Contains(t, buf.String(), "SUBSCRIPTION (yaml, 2 nodes)")
	assert.Contains(t, buf.String(), "- MATCH,Auto\n====")
}
