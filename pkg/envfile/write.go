package envfile

import (
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// Write renders values as a dotenv file at path, one line per key in sorted order,
// and creates it with owner-only permissions. The file reads back unchanged with
// the dotenv dialect. Values without a double quote or a backslash are escaped
// the godotenv way. Any other value is written single-quoted, which godotenv reads
// literally, unless it also holds a single quote or ends with a backslash. Such a
// value is an error and nothing is written.
func Write(path string, values map[string]string) error {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, key := range keys {
		line, err := renderLine(key, values[key])
		if err != nil {
			return err
		}
		lines = append(lines, line)
	}

	resolved, err := ResolvePath(path)
	if err != nil {
		return err
	}

	content := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(resolved, []byte(content), 0o600); err != nil {
		return errors.Wrapf(err, "failed to write env file %q", resolved)
	}
	return nil
}

// renderLine picks a quoting that godotenv parses back to value. godotenv treats
// a quote preceded by a backslash as escaped, even when the backslash is itself
// escaped, so double-quoted output cannot carry a literal " or \. Marshal also
// prints integers bare, which would turn "007" into 7.
func renderLine(key, value string) (string, error) {
	if !strings.ContainsAny(value, `"\`) && !nonCanonicalInt(value) {
		line, err := godotenv.Marshal(map[string]string{key: value})
		if err != nil {
			return "", errors.Wrapf(err, "failed to render %q", key)
		}
		return line, nil
	}
	if !strings.Contains(value, "'") && !strings.HasSuffix(value, `\`) {
		return key + "='" + value + "'", nil
	}
	return "", errors.Errorf("value of %q cannot be written as a dotenv line", key)
}

func nonCanonicalInt(value string) bool {
	n, err := strconv.Atoi(value)
	return err == nil && strconv.Itoa(n) != value
}
