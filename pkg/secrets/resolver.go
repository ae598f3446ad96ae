// Package secrets resolves "prefix:key" references through pluggable providers.
// It backs ${...} expansion in configuration files and the fallback sources of
// the token resolver.
package secrets

import (
	"sort"
	"strings"
	"sync"

	"github.com/animalet/envboot/pkg/environ"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// DefaultPrefix is used for references without a prefix.
const DefaultPrefix = "env"

// PropertyResolver retrieves a secret by key.
//
// Example implementations:
//   - EnvResolver: environment variables
//   - FileSecretLoader: one file per secret in a directory
//   - VaultSecretLoader: HashiCorp Vault KV
//   - AWSSecretLoader: AWS Secrets Manager
type PropertyResolver interface {
	// Resolve retrieves the secret value for key (without the prefix).
	Resolve(key string) (string, error)

	// Name returns a human-readable name for logging.
	Name() string
}

// Registry associates prefixes with providers. It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]PropertyResolver
}

// NewRegistry creates a registry with the "env" provider bound to env.
func NewRegistry(env environ.Environment) *Registry {
	r := &Registry{providers: make(map[string]PropertyResolver)}
	r.Register(DefaultPrefix, NewEnvResolver(env))
	return r
}

// Register binds a provider to a prefix, without the trailing colon. An existing
// provider for the prefix is replaced with a warning.
func (r *Registry) Register(prefix string, provider PropertyResolver) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[prefix]; exists {
		log.Warn().Msgf("Overriding existing secret provider for prefix %q", prefix)
	}
	r.providers[prefix] = provider
}

// Get returns the provider for prefix, or nil.
func (r *Registry) Get(prefix string) PropertyResolver {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.providers[prefix]
}

// Prefixes lists registered prefixes in sorted order.
func (r *Registry) Prefixes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	prefixes := make([]string, 0, len(r.providers))
	for prefix := range r.providers {
		prefixes = append(prefixes, prefix)
	}
	sort.Strings(prefixes)
	return prefixes
}

// Resolve resolves a reference of the form "prefix:key" or "key".
//
// Examples:
//   - "vault:HF_TOKEN" -> Vault provider
//   - "file:hf_token" -> File provider
//   - "HF_TOKEN" -> Environment provider
func (r *Registry) Resolve(property string) (string, error) {
	prefix, key := parseProperty(property)

	provider := r.Get(prefix)
	if provider == nil {
		return "", errors.Errorf("no secret provider registered for prefix %q", prefix)
	}

	value, err := provider.Resolve(key)
	if err != nil {
		return "", errors.Wrapf(err, "failed to resolve secret %q using %s provider", property, provider.Name())
	}
	return value, nil
}

// parseProperty splits on the first colon. Without a colon the prefix is "env".
//
//	"custom:db:password" -> ("custom", "db:password")
func parseProperty(property string) (prefix string, key string) {
	prefix, key, found := strings.Cut(property, ":")
	if !found {
		return DefaultPrefix, property
	}
	return prefix, key
}
