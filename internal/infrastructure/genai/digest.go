package genai

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/finsite/backend/internal/domain/insight"
)

// Fallback text for digest fields the model left out
const (
	DefaultNewsTitle   = "Market Update"
	DefaultNewsSummary = "Details unavailable."
)

// DigestFormat is the reply format ParseDigest understands. It is appended to news prompts.
const DigestFormat = `Reply with one block per story, separated by a line containing only ---.
Each block has these lines:
Title: <headline>
Summary: <two sentences>
Impact: <Bullish|Bearish|Neutral>
Image: <absolute image URL, or leave empty>`

// fieldLine matches "Title: x", "**Summary**: x", "- Impact: x"
var fieldLine = regexp.MustCompile(`(?i)^\s*[-*]*\s*\**\s*(title|summary|impact|image)\s*\**\s*:\s*\**\s*(.*?)\s*$`)

// ParseDigest turns a delimited reply into news items. Missing fields get
// fallback text, unknown impacts become Neutral, and an Image that is not an
// absolute http(s) URL is dropped. Blocks with neither title nor summary are skipped.
func ParseDigest(text string) []insight.NewsItem {
	var items []insight.NewsItem
	for _, block := range splitBlocks(text) {
		fields := parseBlock(block)
		if fields["title"] == "" && fields["summary"] == "" {
			continue
		}
		item := insight.NewsItem{
			ID:      fmt.Sprintf("news-%d", len(items)+1),
			Title:   fields["title"],
			Summary: fields["summary"],
			Impact:  insight.ParseImpact(normalizeImpact(fields["impact"])),
		}
		if item.Title == "" {
			item.Title = DefaultNewsTitle
		}
		if item.Summary == "" {
			item.Summary = DefaultNewsSummary
		}
		if isAbsoluteHTTPURL(fields["image"]) {
			item.ImageURL = fields["image"]
		}
		items = append(items, item)
	}
	return items
}

func splitBlocks(text string) []string {
	var blocks []string
	var current []string
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if strings.TrimSpace(line) == "---" {
			blocks = append(blocks, strings.Join(current, "\n"))
			current = current[:0]
			continue
		}
		current = append(current, line)
	}
	return append(blocks, strings.Join(current, "\n"))
}

// parseBlock collects field values; unlabeled lines continue the previous field
func parseBlock(block string) map[string]string {
	fields := map[string]string{}
	last := ""
	for _, line := range strings.Split(block, "\n") {
		if m := fieldLine.FindStringSubmatch(line); m != nil {
			last = strings.ToLower(m[1])
			fields[last] = strings.Trim(m[2], "* ")
			continue
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || last == "" {
			continue
		}
		if fields[last] == "" {
			fields[last] = trimmed
		} else {
			fields[last] += " " + trimmed
		}
	}
	return fields
}

func normalizeImpact(s string) string {
	s = strings.TrimSpace(strings.Trim(s, ".*[]<>"))
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

func isAbsoluteHTTPURL(s string) bool {
	if s == "" {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
