package analyzer

import (
	"encoding/json"
	"strings"

	"github.com/pablolteixeira/reddit-job-posts-web-scraping/internal/domain"
)

const (
	maxTitleLen = 200
	maxTextLen  = 1000
	maxTags     = 10

	// fallbackTag marks rows whose model output could not be parsed.
	fallbackTag = "parsing_failed"

	emptyBodyText = "No description provided"
)

// parseResponse extracts the enrichment from a free-form model response. The
// model is asked for bare JSON but routinely wraps it in commentary or code
// fences, so the parser takes the first balanced top-level object it can
// find. Every field falls back individually to a value derived from the
// original post; parseResponse never fails. The second return value reports
// whether a JSON object was found at all.
func parseResponse(content, origTitle, origBody string) (domain.Enrichment, bool) {
	e := domain.Enrichment{
		CleanedTitle: truncate(origTitle, maxTitleLen),
		CleanedText:  fallbackText(origBody),
		Tags:         []string{fallbackTag},
	}

	obj, ok := firstJSONObject(stripFences(content))
	if !ok {
		return e, false
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(obj), &fields); err != nil {
		return e, false
	}

	if raw, ok := fields["cleaned_title"]; ok {
		var title string
		if json.Unmarshal(raw, &title) == nil && title != "" {
			e.CleanedTitle = truncate(title, maxTitleLen)
		}
	}

	if raw, ok := fields["cleaned_text"]; ok {
		var text string
		if json.Unmarshal(raw, &text) == nil && text != "" {
			e.CleanedText = truncate(text, maxTextLen)
		}
	}

	if raw, ok := fields["tags"]; ok {
		var tags []string
		// JSON null unmarshals into a nil slice without error; only an actual
		// list replaces the sentinel.
		if json.Unmarshal(raw, &tags) == nil && tags != nil {
			if len(tags) > maxTags {
				tags = tags[:maxTags]
			}
			e.Tags = tags
		}
	}

	return e, true
}

func fallbackText(body string) string {
	if strings.TrimSpace(body) == "" {
		return emptyBodyText
	}
	return truncate(body, maxTextLen)
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// firstJSONObject returns the first balanced top-level {...} in s, honoring
// string literals and escape sequences so braces inside values don't
// terminate the scan early.
func firstJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		ch := s[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}

	return "", false
}
