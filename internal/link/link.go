// Package link pulls share-links out of free text and subscription bodies.
package link

import (
	"bufio"
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"submix/internal/parser"
)

var (
	regexLink = regexp.MustCompile(`(?i)\b(vless|trojan|ss|hysteria2|hysteria|hy2|hy)://[^\s"'<>` + "`" + `]+`)
	// A line that starts with a link may carry spaces in its #name.
	regexNamedLine = regexp.MustCompile(`(?i)^(vless|trojan|ss|hysteria2|hysteria|hy2|hy)://[^\s#]+#(.*)$`)
)

const maxLine = 1 << 20

// ExtractLinks finds every supported share-link in text, in order of first
// appearance and without duplicates.
func ExtractLinks(text string) []string {
	var links []string
	text = strings.ReplaceAll(text, "\r\n", "\n")
	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLine)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		matches := regexLink.FindAllString(line, -1)
		if m := regexNamedLine.FindStringSubmatch(line); m != nil && !strings.Contains(m[2], "://") {
			matches = []string{line}
		}
		for _, match := range matches {
			clean := strings.TrimRight(match, ".,;)\"")
			if clean != "" {
				links = append(links, clean)
			}
		}
	}
	return deduplicate(links)
}

// DecodeSubscription turns a subscription body into its link lines. Bodies
// that already carry links are split as-is; anything else must be base64.
func DecodeSubscription(body []byte) ([]string, error) {
	body = bytes.TrimPrefix(body, []byte("\xef\xbb\xbf"))
	text := strings.TrimSpace(string(body))
	if text == "" {
		return []string{}, nil
	}

	if !strings.Contains(text, "://") {
		// base64 bodies are often wrapped at 76 columns
		compact := strings.Join(strings.Fields(text), "")
		decoded, err := parser.DecodeBase64(compact)
		if err != nil {
			return nil, fmt.Errorf("subscription body is neither links nor base64: %w", err)
		}
		text = decoded
	}

	return splitLines(text), nil
}

// Collect decodes body when it is a subscription and extracts the links
// from whatever text results.
func Collect(body []byte) []string {
	lines, err := DecodeSubscription(body)
	if err != nil {
		return ExtractLinks(string(body))
	}
	return ExtractLinks(strings.Join(lines, "\n"))
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	out := []string{}
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

func deduplicate(input []string) []string {
	keys := make(map[string]bool)
	list := []string{}
	for _, entry := range input {
		if _, value := keys[entry]; !value {
			keys[entry] = true
			list = append(list, entry)
		}
	}
	return list
}
