package metrics

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"submix/internal/node"
	"submix/internal/parser"
)

// Collector accumulates conversion statistics. It is safe for concurrent
// use, so one instance can serve every HTTP request.
type Collector struct {
	mu sync.Mutex

	parsed  map[string]int // by scheme
	skipped map[string]int // by scheme
	reasons map[string]int // by error kind

	conversions int
	failures    int
	timed       int
	total       time.Duration
}

func New() *Collector {
	return &Collector{
		parsed:  make(map[string]int),
		skipped: make(map[string]int),
		reasons: make(map[string]int),
	}
}

// RecordBatch counts one dispatcher batch.
func (c *Collector) RecordBatch(b parser.Batch) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, n := range b.Nodes {
		c.parsed[string(n.Protocol())]++
	}
	for _, s := range b.Skipped {
		c.skipped[schemeLabel(s.Link)]++
		c.reasons[reasonLabel(s.Err)]++
	}
}

// RecordConversion counts one generate+serialize run.
func (c *Collector) RecordConversion(d time.Duration, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.conversions++
	if err != nil {
		c.failures++
		return
	}
	c.timed++
	c.total += d
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Parsed      map[string]int
	Skipped     map[string]int
	Reasons     map[string]int
	Conversions int
	Failures    int
	AvgDuration time.Duration
}

func (c *Collector) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Parsed:      copyMap(c.parsed),
		Skipped:     copyMap(c.skipped),
		Reasons:     copyMap(c.reasons),
		Conversions: c.conversions,
		Failures:    c.failures,
		AvgDuration: c.average(),
	}
}

func (c *Collector) PrintReport(out io.Writer) {
	c.mu.Lock()
	defer c.mu.Unlock()

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(out, "\n📊 \033[1mCONVERSION REPORT\033[0m")
	fmt.Fprintln(out, "────────────────────────────────────────")

	// 1. Per-scheme yield
	fmt.Fprintln(w, "\033[1;36m[ LINKS ]\033[0m\t\t")
	fmt.Fprintln(w, "  Scheme\tParsed\tSkipped")
	totalParsed, totalSkipped := 0, 0
	for _, scheme := range unionKeys(c.parsed, c.skipped) {
		fmt.Fprintf(w, "  %s\t%d\t%d\n", scheme, c.parsed[scheme], c.skipped[scheme])
		totalParsed += c.parsed[scheme]
		totalSkipped += c.skipped[scheme]
	}
	fmt.Fprintf(w, "  total\t%d\t%d\n", totalParsed, totalSkipped)
	fmt.Fprintln(w, "\t\t")

	// 2. Why links were dropped
	if len(c.reasons) > 0 {
		fmt.Fprintln(w, "\033[1;36m[ SKIP REASONS ]\033[0m\t")
		for _, k := range unionKeys(c.reasons) {
			fmt.Fprintf(w, "  %s:\t%d\n", k, c.reasons[k])
		}
		fmt.Fprintln(w, "\t")
	}

	// 3. Generation
	fmt.Fprintln(w, "\033[1;36m[ GENERATION ]\033[0m\t")
	fmt.Fprintf(w, "  Documents:\t%d\n", c.conversions-c.failures)
	fmt.Fprintf(w, "  Failed:\t%d\n", c.failures)
	if c.timed > 0 {
		fmt.Fprintf(w, "  Avg Duration:\t%v\n", c.average())
	}

	w.Flush()
	fmt.Fprintln(out)
}

func schemeLabel(raw string) string {
	scheme, _, ok := strings.Cut(raw, "://")
	if !ok || scheme == "" {
		return "(none)"
	}
	return strings.ToLower(scheme)
}

func reasonLabel(err error) string {
	if k := node.KindOf(err); k != 0 {
		return k.String()
	}
	return "unknown"
}

func unionKeys(maps ...map[string]int) []string {
	seen := make(map[string]bool)
	var keys []string
	for _, m := range maps {
		for k := range m {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	sort.Strings(keys)
	return keys
}

func copyMap(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// average is the mean duration of successful conversions. Callers hold mu.
func (c *Collector) average() time.Duration {
	if c.timed == 0 {
		return 0
	}
	return c.total / time.Duration(c.timed)
}
