// Package parser turns recognized list text into ordered item candidates.
// It is pure: no I/O, no errors, and the same input always yields the same
// output. Malformed input simply produces fewer (or zero) candidates.
package parser

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// MinItemLength is the shortest line, in characters, kept as an item.
	MinItemLength = 2
	// MaxItemLength caps overlong lines produced by noisy recognition.
	MaxItemLength = 200
)

// Candidate is a parsed, not yet persisted item.
type Candidate struct {
	Text     string
	Position int
}

// markerPattern matches one leading bullet or numbering marker: "-", "•",
// "*", or digits followed by "." or ")".
var markerPattern = regexp.MustCompile(`^(?:[-•*]|[0-9]+[.)])`)

var newlines = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// Parse splits text into lines and returns the surviving lines as candidates
// positioned 0..n-1 in input order. The result is never nil.
func Parse(text string) []Candidate {
	lines := strings.Split(newlines.Replace(text), "\n")
	out := make([]Candidate, 0, len(lines))
	for _, line := range lines {
		item, ok := normalizeLine(line)
		if !ok {
			continue
		}
		out = append(out, Candidate{Text: item, Position: len(out)})
	}
	return out
}

// Texts returns the candidate texts in order.
func Texts(candidates []Candidate) []string {
	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.Text
	}
	return out
}

func normalizeLine(line string) (string, bool) {
	line = strings.TrimSpace(line)
	line = StripMarker(line)
	if utf8.RuneCountInString(line) < MinItemLength {
		return "", false
	}
	return truncate(line, MaxItemLength), true
}

// StripMarker removes a single leading bullet or numbering marker and the
// whitespace after it. Markers are only recognized at the start of the line.
// A decimal quantity such as "1.5 kg flour" is not a numbering marker.
func StripMarker(line string) string {
	loc := markerPattern.FindStringIndex(line)
	if loc == nil {
		return line
	}
	rest := line[loc[1]:]
	if line[loc[1]-1] == '.' && rest != "" && rest[0] >= '0' && rest[0] <= '9' {
		return line
	}
	return strings.TrimLeftFunc(rest, unicode.IsSpace)
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}
