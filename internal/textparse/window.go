package textparse

import (
	"regexp"
	"strings"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// CollapseSpace replaces runs of whitespace with single spaces and trims.
func CollapseSpace(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}

// SliceWindows returns, for every start offset, the text from that offset to
// the next offset. The last window extends at most fallback bytes. Offsets
// must be ascending byte positions within text.
func SliceWindows(text string, starts []int, fallback int) []string {
	windows := make([]string, 0, len(starts))
	for i, start := range starts {
		if start < 0 || start > len(text) {
			continue
		}
		end := start + fallback
		if i+1 < len(starts) {
			end = starts[i+1]
		}
		if end > len(text) {
			end = len(text)
		}
		if end < start {
			end = start
		}
		windows = append(windows, text[start:end])
	}
	return windows
}

// CutAtFirst discards everything from the earliest case-insensitive
// occurrence of any marker onward.
func CutAtFirst(s string, markers []string) string {
	lower := strings.ToLower(s)
	cut := len(s)
	for _, marker := range markers {
		if marker == "" {
			continue
		}
		if idx := strings.Index(lower, strings.ToLower(marker)); idx >= 0 && idx < cut {
			cut = idx
		}
	}
	return strings.TrimSpace(s[:cut])
}

// LastLine returns the last non-empty line of a multi-line block, splitting
// on newlines and tabs. It returns "" when the block has no content.
func LastLine(block string) string {
	lines := strings.FieldsFunc(block, func(r rune) bool {
		return r == '\n' || r == '\t' || r == '\r'
	})
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}

// JoinNonEmpty joins the non-blank parts with sep.
func JoinNonEmpty(sep string, parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
