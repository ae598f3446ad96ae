package envfile

import (
	"io"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
)

const byteOrderMark = "\ufeff"

// Entry is one recognized KEY=VALUE line.
type Entry struct {
	Key   string
	Value string
	// Line is the 1-based line number in the source, or 0 when the dialect
	// does not track positions.
	Line int
}

// Parse reads simple env file content from r. The content must be valid UTF-8.
func Parse(r io.Reader) ([]Entry, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read env file content")
	}
	return parseBytes(content)
}

// ParseString parses simple env file content. Unrecognized lines are skipped.
func ParseString(content string) []Entry {
	content = strings.TrimPrefix(content, byteOrderMark)

	var entries []Entry
	for i, line := range splitLines(content) {
		if entry, ok := parseLine(line); ok {
			entry.Line = i + 1
			entries = append(entries, entry)
		}
	}
	return entries
}

func parseBytes(content []byte) ([]Entry, error) {
	if !utf8.Valid(content) {
		return nil, errors.New("env file content is not valid UTF-8")
	}
	return ParseString(string(content)), nil
}

// splitLines breaks content on the universal line boundaries: \n, \r\n, \r,
// \v, \f, the \x1c-\x1e separators, NEL (U+0085), U+2028 and U+2029.
func splitLines(content string) []string {
	var lines []string
	start := 0
	for i, r := range content {
		if i < start {
			// second byte of a \r\n pair
			continue
		}
		if !isLineBreak(r) {
			continue
		}
		lines = append(lines, content[start:i])
		start = i + utf8.RuneLen(r)
		if r == '\r' && strings.HasPrefix(content[start:], "\n") {
			start++
		}
	}
	return append(lines, content[start:])
}

func isLineBreak(r rune) bool {
	switch r {
	case '\n', '\r', '\v', '\f', '\x1c', '\x1d', '\x1e', '\u0085', '\u2028', '\u2029':
		return true
	}
	return false
}

// parseLine splits on the first "=" only. The split is not quote-aware.
func parseLine(raw string) (Entry, bool) {
	line := strings.TrimSpace(raw)
	if line == "" || strings.HasPrefix(line, "#") {
		return Entry{}, false
	}

	key, value, found := strings.Cut(line, "=")
	if !found {
		return Entry{}, false
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return Entry{}, false
	}

	return Entry{Key: key, Value: unquote(strings.TrimSpace(value))}, true
}

// unquote strips one layer of matching double or single quotes. Nothing inside
// is unescaped.
func unquote(value string) string {
	if len(value) < 2 {
		return value
	}
	first, last := value[0], value[len(value)-1]
	if first == last && (first == '"' || first == '\'') {
		return value[1 : len(value)-1]
	}
	return value
}
