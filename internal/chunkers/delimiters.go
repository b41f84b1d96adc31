package chunkers

import (
	"strconv"
	"strings"
)

// DefaultDelimiters returns the line-break delimiters that are always present.
// "\r\n" precedes "\r" so a Windows line break is consumed as one separator.
func DefaultDelimiters() []string {
	return []string{"\r\n", "\r", "\n"}
}

// MergeDelimiters returns the default delimiters followed by extra, in order,
// with empty strings and duplicates removed.
func MergeDelimiters(extra ...string) []string {
	merged := DefaultDelimiters()
	seen := make(map[string]bool, len(merged)+len(extra))
	for _, d := range merged {
		seen[d] = true
	}

	for _, d := range extra {
		if d == "" || seen[d] {
			continue
		}
		seen[d] = true
		merged = append(merged, d)
	}

	return merged
}

// ParseDelimiterList parses a comma-separated delimiter list as carried by the
// Ocp-Apim-Subscription-Splitors header. Backslash escapes such as `\t` or
// `\u00a7` are decoded; entries that are not valid escapes are kept verbatim.
func ParseDelimiterList(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			continue
		}
		out = append(out, unescapeDelimiter(part))
	}

	return out
}

func unescapeDelimiter(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}

	unquoted, err := strconv.Unquote(`"` + strings.ReplaceAll(s, `"`, `\"`) + `"`)
	if err != nil {
		return s
	}
	return unquoted
}

// Split breaks text on any of the literal delimiters. At each position the
// delimiters are tried in order and the first match wins. Empty fragments are
// discarded.
func Split(text string, delimiters []string) []string {
	if text == "" {
		return nil
	}

	var fragments []string
	start := 0

	for i := 0; i < len(text); {
		matched := 0
		for _, d := range delimiters {
			if d != "" && strings.HasPrefix(text[i:], d) {
				matched = len(d)
				break
			}
		}

		if matched == 0 {
			i++
			continue
		}

		if i > start {
			fragments = append(fragments, text[start:i])
		}
		i += matched
		start = i
	}

	if start < len(text) {
		fragments = append(fragments, text[start:])
	}

	return fragments
}
