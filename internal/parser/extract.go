package parser

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// Local models rarely return clean JSON. The value the agent needs may be
// wrapped in prose, hidden inside a markdown fence, or syntactically damaged
// (trailing commas, single quotes, unquoted keys). Extract recovers it anyway.

var (
	jsonFenceRe    = regexp.MustCompile("(?is)```json\\s*(.+?)```")
	genericFenceRe = regexp.MustCompile("(?s)```\\s*(.+?)```")
)

// Extract returns the first JSON value embedded in raw model output, or
// (nil, false) if none can be recovered. Strategies run from cheapest to most
// aggressive and the first hit wins. The returned bytes are the exact span
// that parsed, so callers can re-decode them into order-preserving types.
func Extract(text string) (json.RawMessage, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, false
	}

	// 1. The whole reply is already valid JSON.
	if json.Valid([]byte(trimmed)) {
		return json.RawMessage(trimmed), true
	}

	// 2. A ```json fence, then 3. any generic fence.
	for _, re := range []*regexp.Regexp{jsonFenceRe, genericFenceRe} {
		if m := re.FindStringSubmatch(trimmed); m != nil {
			body := strings.TrimSpace(m[1])
			if json.Valid([]byte(body)) {
				return json.RawMessage(body), true
			}
		}
	}

	// 4. Scan for balanced top-level {...} spans. A span that fails to parse
	// is skipped and scanning resumes after it, so a later valid object
	// (e.g. after a malformed example) is still found.
	for _, span := range objectSpans(trimmed) {
		if json.Valid([]byte(span)) {
			return json.RawMessage(span), true
		}
	}

	// 5. Last resort: best-effort repair of the most promising span.
	return repairCandidates(trimmed)
}

// ExtractInto extracts a JSON value and decodes it into v.
func ExtractInto(text string, v any) bool {
	raw, ok := Extract(text)
	if !ok {
		return false
	}
	return json.Unmarshal(raw, v) == nil
}

// objectSpans returns every balanced top-level {...} substring of text, in
// order of appearance. Brace depth is tracked outside of JSON string
// literals, with backslash escapes honored, so braces inside values do not
// confuse the scan.
func objectSpans(text string) []string {
	var spans []string
	depth := 0
	start := -1
	inString := false
	escaped := false

	for i, r := range text {
		if inString {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			}
			continue
		}
		switch r {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 && start >= 0 {
					spans = append(spans, text[start:i+1])
					start = -1
				}
			}
		}
	}
	return spans
}

// repairCandidates feeds the most promising substrings through a JSON repair
// pass. Only brace-bearing candidates are considered so plain prose never
// gets coerced into a bare JSON string.
func repairCandidates(text string) (json.RawMessage, bool) {
	var candidates []string

	for _, re := range []*regexp.Regexp{jsonFenceRe, genericFenceRe} {
		if m := re.FindStringSubmatch(text); m != nil {
			candidates = append(candidates, strings.TrimSpace(m[1]))
		}
	}
	if first, last := strings.Index(text, "{"), strings.LastIndex(text, "}"); first >= 0 && last > first {
		candidates = append(candidates, text[first:last+1])
	}

	for _, c := range candidates {
		if !strings.Contains(c, "{") {
			continue
		}
		fixed, err := jsonrepair.JSONRepair(c)
		if err != nil {
			continue
		}
		fixed = strings.TrimSpace(fixed)
		if (strings.HasPrefix(fixed, "{") || strings.HasPrefix(fixed, "[")) && json.Valid([]byte(fixed)) {
			return json.RawMessage(fixed), true
		}
	}
	return nil, false
}
