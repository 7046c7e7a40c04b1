package ruleset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := Default()
	require.NotNil(t, c)
	assert.Same(t, c, Default())

	for _, blacklist := range []bool{false, true} {
		entries := c.Entries(blacklist)
		require.NotEmpty(t, entries)
		assert.Equal(t, StageAdblock, entries[0].Stage)
		for i := 1; i < len(entries); i++ {
			assert.LessOrEqual(t, stageRank[entries[i-1].Stage], stageRank[entries[i].Stage])
		}
	}

	p, ok := c.Provider("cncidr")
	require.True(t, ok)
	assert.Equal(t, "ipcidr", p.Behavior)
	assert.Equal(t, "https://cdn.jsdelivr.net/gh/Loyalsoldier/clash-rules@release/cncidr.txt", p.URL)
	assert.Equal(t, "./ruleset/cncidr.yaml", p.Path)
	assert.Equal(t, 86400, p.Interval)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"bad yaml", "providers: ["},
		{"unnamed provider", "base_url: x\nproviders:\n  - {behavior: domain}"},
		{"duplicate provider", "base_url: x\nproviders:\n  - {name: a}\n  - {name: a}"},
		{"no url", "providers:\n  - {name: a}"},
		{"unknown stage", "whitelist:\n  - {stage: late, type: GEOIP, value: CN, target: DIRECT}"},
		{"unknown target", "whitelist:\n  - {stage: fallback, type: GEOIP, value: CN, target: Somewhere}"},
		{"catch-all", "whitelist:\n  - {stage: fallback, type: MATCH, value: x, target: DIRECT}"},
		{"dangling rule-set", "whitelist:\n  - {stage: category, type: RULE-SET, value: nope, target: PROXY}"},
		{"empty value", "blacklist:\n  - {stage: fallback, type: GEOIP, target: DIRECT}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestEntries_StableWithinStage(t *testing.T) {
	c, err := Parse([]byte(`
whitelist:
  - {stage: fallback, type: GEOIP, value: CN, target: DIRECT}
  - {stage: category, type: DOMAIN-SUFFIX, value: b.com, target: PROXY}
  - {stage: category, type: DOMAIN-SUFFIX, value: a.com, target: AUTO}
`))
	require.NoError(t, err)

	entries := c.Entries(false)
	require.Len(t, entries, 3)
	assert.Equal(t, "b.com", entries[0].Value)
	assert.Equal(t, "a.com", entries[1].Value)
	assert.Equal(t, "CN", entries[2].Value)
	// the catalogue itself keeps its order
	assert.Equal(t, "CN", c.Whitelist[0].Value)
	assert.Empty(t, c.Entries(true))
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("base_url: https://r.example.com\nproviders:\n  - {name: ads, interval: 60}\n"), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	p, ok := c.Provider("ads")
	require.True(t, ok)
	assert.Equal(t, "https://r.example.com/ads.txt", p.URL)
	assert.Equal(t, "classical", p.Behavior)
	assert.Equal(t, 60, p.Interval)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
