// Package envfile populates an environment from a simple KEY=VALUE file.
//
// The default "simple" dialect trims each line, skips blanks and "#" comments,
// splits on the first "=" and strips one layer of matching quotes from the value.
// There is no interpolation, no export keyword and no escape processing. The
// "dotenv" dialect hands parsing to github.com/joho/godotenv for files that need
// the full grammar.
//
// Loading is fail-soft: a missing, non-regular or unreadable file is reported by
// returning nothing, never by an error.
package envfile

import (
	"os"
	"sort"
	"strings"

	"github.com/animalet/envboot/pkg/environ"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Dialect selects the env file grammar.
type Dialect string

const (
	DialectSimple Dialect = "simple"
	DialectDotenv Dialect = "dotenv"
)

// ParseDialect maps a configuration value to a Dialect. Empty means simple.
func ParseDialect(s string) (Dialect, error) {
	switch Dialect(strings.ToLower(strings.TrimSpace(s))) {
	case "", DialectSimple:
		return DialectSimple, nil
	case DialectDotenv:
		return DialectDotenv, nil
	default:
		return "", errors.Errorf("unknown env file dialect %q (expected %q or %q)", s, DialectSimple, DialectDotenv)
	}
}

// Result describes a successful load.
type Result struct {
	// Path is the resolved absolute path of the file that was read.
	Path string
	// Applied lists keys written to the environment, in file order.
	Applied []string
	// Skipped lists keys left alone because they were already set.
	Skipped []string
}

// Loader loads env files into an Environment.
type Loader struct {
	env         environ.Environment
	override    bool
	dialect     Dialect
	defaultPath string
}

// Option configures a Loader.
type Option func(*Loader)

// WithEnvironment targets env instead of the process environment.
func WithEnvironment(env environ.Environment) Option {
	return func(l *Loader) {
		if env != nil {
			l.env = env
		}
	}
}

// WithOverride makes every parsed key overwrite an existing value.
func WithOverride(override bool) Option {
	return func(l *Loader) {
		l.override = override
	}
}

// WithDialect selects the file grammar.
func WithDialect(dialect Dialect) Option {
	return func(l *Loader) {
		if dialect != "" {
			l.dialect = dialect
		}
	}
}

// WithDefaultPath replaces the install-relative default location.
func WithDefaultPath(path string) Option {
	return func(l *Loader) {
		l.defaultPath = path
	}
}

// NewLoader creates a Loader. Without options it targets the process
// environment, never overrides and uses the simple dialect.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		env:     environ.Process,
		dialect: DialectSimple,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads the env file at path into the process environment. An empty path
// selects the default location. It returns the resolved path and true when the
// file existed and was read, whether or not any key was applied.
func Load(path string, override bool) (string, bool) {
	return NewLoader(WithOverride(override)).Load(path)
}

// Load is the package-level Load bound to this loader's settings.
func (l *Loader) Load(path string) (string, bool) {
	result := l.LoadResult(path)
	if result == nil {
		return "", false
	}
	return result.Path, true
}

// LoadResult loads the file and reports which keys were applied. It returns nil
// when there was nothing to load.
func (l *Loader) LoadResult(path string) *Result {
	resolved, err := l.resolve(path)
	if err != nil {
		log.Debug().Err(err).Str("path", path).Msg("Unable to resolve env file path")
		return nil
	}

	info, err := os.Stat(resolved)
	if err != nil {
		log.Debug().Str("path", resolved).Msg("Env file not found, nothing to load")
		return nil
	}
	if !info.Mode().IsRegular() {
		log.Debug().Str("path", resolved).Msg("Env file is not a regular file, nothing to load")
		return nil
	}

	// #nosec G304 -- loading a caller-chosen file is the purpose of this package
	content, err := os.ReadFile(resolved)
	if err != nil {
		log.Warn().Err(err).Str("path", resolved).Msg("Unable to read env file")
		return nil
	}

	entries, err := l.parse(content)
	if err != nil {
		log.Warn().Err(err).Str("path", resolved).Msg("Unable to parse env file")
		return nil
	}

	result := &Result{Path: resolved}
	for _, entry := range entries {
		l.apply(entry, result)
	}

	log.Debug().
		Str("path", resolved).
		Int("applied", len(result.Applied)).
		Int("skipped", len(result.Skipped)).
		Msg("Loaded env file")
	return result
}

func (l *Loader) resolve(path string) (string, error) {
	if path != "" {
		return ResolvePath(path)
	}
	if l.defaultPath != "" {
		return ResolvePath(l.defaultPath)
	}
	return defaultPath(l.env)
}

func (l *Loader) parse(content []byte) ([]Entry, error) {
	if l.dialect != DialectDotenv {
		return parseBytes(content)
	}

	values, err := godotenv.UnmarshalBytes(content)
	if err != nil {
		return nil, errors.Wrap(err, "invalid dotenv content")
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	entries := make([]Entry, 0, len(keys))
	for _, k := range keys {
		entries = append(entries, Entry{Key: k, Value: values[k]})
	}
	return entries, nil
}

func (l *Loader) apply(entry Entry, result *Result) {
	if !l.override {
		if _, exists := l.env.Lookup(entry.Key); exists {
			result.Skipped = append(result.Skipped, entry.Key)
			return
		}
	}

	if err := l.env.Set(entry.Key, entry.Value); err != nil {
		log.Warn().Err(err).Str("key", entry.Key).Int("line", entry.Line).Msg("Unable to apply env file entry")
		return
	}
	result.Applied = append(result.Applied, entry.Key)
}
