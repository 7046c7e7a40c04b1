package metrics

import (
	"bytes"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"submix/internal/parser"
)

func TestCollector_RecordBatch(t *testing.T) {
	c := New()
	c.RecordBatch(parser.ParseBatch([]string{
		"trojan://pw@a.example.com:443#A",
		"trojan://pw@a.example.com:99999#bad-port",
		"vmess://eyJ9",
		"ss://aes-256-gcm:pw@b.example.com:8388#B",
		"garbage",
	}))

	s := c.Snapshot()
	assert.Equal(t, map[string]int{"trojan": 1, "ss": 1}, s.Parsed)
	assert.Equal(t, map[string]int{"trojan": 1, "vmess": 1, "(none)": 1}, s.Skipped)
	assert.Equal(t, map[string]int{"invalid_port": 1, "unrecognized_scheme": 2}, s.Reasons)
}

func TestCollector_Concurrent(t *testing.T) {
	c := New()
	batch := parser.ParseBatch([]string{"trojan://pw@a.example.com:443#A"})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.RecordBatch(batch)
			c.RecordConversion(time.Millisecond, nil)
		}()
	}
	wg.Wait()
	c.RecordConversion(0, errors.New("empty"))

	s := c.Snapshot()
	assert.Equal(t, 20, s.Parsed["trojan"])
	assert.Equal(t, 21, s.Conversions)
	assert.Equal(t, 1, s.Failures)
	assert.Equal(t, time.Millisecond, s.AvgDuration)
}

func TestCollector_AverageDuration(t *testing.T) {
	c := New()
	assert.Zero(t, c.Snapshot().AvgDuration)

	c.RecordConversion(time.Millisecond, nil)
	c.RecordConversion(3*time.Millisecond, nil)
	c.RecordConversion(time.Hour, errors.New("failed runs are not timed"))

	assert.Equal(t, 2*time.Millisecond, c.Snapshot().AvgDuration)
}

func TestCollector_PrintReport(t *testing.T) {
	c := New()
	c.RecordBatch(parser.ParseBatch([]string{"trojan://pw@a.example.com:443#A", "vmess://x"}))
	c.RecordConversion(2*time.Millisecond, nil)

	var buf bytes.Buffer
	c.PrintReport(&buf)
	out := buf.String()
	assert.Contains(t, out, "CONVERSION REPORT")
	assert.Contains(t, out, "trojan")
	assert.Contains(t, out, "unrecognized_scheme:")
	assert.Contains(t, out, "Documents:")
}
