package researcher

import (
	"fmt"
	"strings"
)

// AddReferences appends a markdown references section listing every visited
// URL the report body does not already cite.
func AddReferences(report string, urls []string) string {
	var missing []string
	for _, url := range urls {
		if !strings.Contains(report, url) {
			missing = append(missing, url)
		}
	}
	if len(missing) == 0 {
		return report
	}

	var b strings.Builder
	b.WriteString(report)
	b.WriteString("\n\n\n\n## References\n\n")
	for _, url := range missing {
		fmt.Fprintf(&b, "- [%s](%s)\n", url, url)
	}
	return b.String()
}

// ExtractHeaders lists the markdown headers of a report, in order.
func ExtractHeaders(markdown string) []string {
	var headers []string
	inFence := false
	for _, line := range strings.Split(markdown, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			inFence = !inFence
			continue
		}
		if inFence || !strings.HasPrefix(trimmed, "#") {
			continue
		}
		if text := strings.TrimSpace(strings.TrimLeft(trimmed, "#")); text != "" {
			headers = append(headers, text)
		}
	}
	return headers
}

// TableOfContents renders a nested bullet list linking to each header,
// using GitHub-style anchors.
func TableOfContents(markdown string) string {
	var b strings.Builder
	b.WriteString("## Table of Contents\n\n")
	found := false
	inFence := false
	for _, line := range strings.Split(markdown, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			inFence = !inFence
			continue
		}
		if inFence || !strings.HasPrefix(trimmed, "#") {
			continue
		}
		level := 0
		for level < len(trimmed) && trimmed[level] == '#' {
			level++
		}
		text := strings.TrimSpace(trimmed[level:])
		if text == "" {
			continue
		}
		found = true
		indent := strings.Repeat("  ", level-1)
		fmt.Fprintf(&b, "%s- [%s](#%s)\n", indent, text, headerAnchor(text))
	}
	if !found {
		return ""
	}
	return b.String()
}

func headerAnchor(text string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(text) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-':
			b.WriteByte('-')
		}
	}
	return b.String()
}
