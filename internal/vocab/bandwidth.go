package vocab

import (
	"strconv"
	"strings"
)

const (
	DefaultUpMbps   = 10
	DefaultDownMbps = 50
)

// ParseMbps reads a bandwidth hint such as "30", "30 Mbps", "30mbps" or
// "1 Gbps" and returns it in whole Mbps. ok is false for empty, malformed or
// non-positive input.
func ParseMbps(s string) (int, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0, false
	}

	mult := 1.0
	for _, unit := range []struct {
		suffix string
		mult   float64
	}{
		{"gbps", 1000},
		{"mbps", 1},
		{"kbps", 0.001},
		{"g", 1000},
		{"m", 1},
	} {
		if strings.HasSuffix(s, unit.suffix) {
			s = strings.TrimSpace(strings.TrimSuffix(s, unit.suffix))
			mult = unit.mult
			break
		}
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	mbps := int(v * mult)
	if mbps <= 0 {
		return 0, false
	}
	return mbps, true
}

// FormatMbps renders a bandwidth hint the way Clash expects it.
func FormatMbps(mbps int) string {
	return strconv.Itoa(mbps) + " Mbps"
}
