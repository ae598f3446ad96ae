// Package environ abstracts the process environment so that loaders and
// resolvers can run against an in-memory table in tests and dry runs.
package environ

import (
	"os"
	"sort"
	"strings"

	"github.com/animalet/envboot/internal/snapshot"
	"github.com/pkg/errors"
)

// Environment is a mutable string-to-string table.
//
// Lookup distinguishes an unset key from a key set to the empty string.
type Environment interface {
	Lookup(key string) (string, bool)
	Set(key, value string) error
}

// OS is the real process environment. It is process-wide and unsynchronized:
// concurrent writers to the same key race, last writer wins.
type OS struct{}

// Process is the shared OS environment used by the package-level helpers.
var Process Environment = OS{}

// Lookup reads a variable from the process environment
func (OS) Lookup(key string) (string, bool) {
	return os.LookupEnv(key)
}

// Set writes a variable into the process environment
func (OS) Set(key, value string) error {
	if err := os.Setenv(key, value); err != nil {
		return errors.Wrapf(err, "failed to set environment variable %q", key)
	}
	return nil
}

// Map is an in-memory Environment.
type Map map[string]string

// Lookup reads a key from the map
func (m Map) Lookup(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

// Set writes a key into the map
func (m Map) Set(key, value string) error {
	if m == nil {
		return errors.New("cannot set a variable on a nil environment map")
	}
	if key == "" {
		return errors.New("environment variable name must not be empty")
	}
	m[key] = value
	return nil
}

// Clone returns an independent copy of the map.
func (m Map) Clone() Map {
	return snapshot.Map(m)
}

// Pairs renders the map as sorted KEY=VALUE strings, the format expected by
// os/exec and returned by os.Environ.
func (m Map) Pairs() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+m[k])
	}
	return pairs
}

// FromPairs builds a Map from KEY=VALUE strings. Entries without "=" are
// ignored. Later entries win.
func FromPairs(pairs []string) Map {
	m := make(Map, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			continue
		}
		m[key] = value
	}
	return m
}

// Current captures the process environment as a Map.
func Current() Map {
	return FromPairs(os.Environ())
}
