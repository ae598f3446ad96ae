// Package token resolves the Hugging Face access token from the environment.
//
// Candidates are checked in priority order and the first non-empty value wins.
// A token found under another name is copied to the canonical HF_TOKEN variable
// when that variable is absent, so downstream code only needs to know one name.
// An existing HF_TOKEN, even an empty one, is never overwritten.
package token

import (
	"strings"

	"github.com/animalet/envboot/pkg/environ"
	"github.com/animalet/envboot/pkg/secrets"
	"github.com/rs/zerolog/log"
)

// CanonicalName is the variable downstream consumers read.
const CanonicalName = "HF_TOKEN"

// DefaultCandidates lists the accepted variable names, highest priority first.
var DefaultCandidates = []string{
	CanonicalName,
	"HUGGINGFACE_HUB_TOKEN",
	"HUGGINGFACE_TOKEN",
}

// Resolver finds the token.
type Resolver struct {
	env        environ.Environment
	candidates []string
	registry   *secrets.Registry
	sources    []string
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithEnvironment reads from and normalizes into env instead of the process environment.
func WithEnvironment(env environ.Environment) Option {
	return func(r *Resolver) {
		if env != nil {
			r.env = env
		}
	}
}

// WithCandidates replaces the candidate names. The first one becomes the
// canonical name.
func WithCandidates(names ...string) Option {
	return func(r *Resolver) {
		if len(names) > 0 {
			r.candidates = append([]string(nil), names...)
		}
	}
}

// WithSources adds secret references (e.g. "file:hf_token", "vault:HF_TOKEN")
// consulted in order when no candidate variable is set.
func WithSources(registry *secrets.Registry, refs ...string) Option {
	return func(r *Resolver) {
		r.registry = registry
		r.sources = append([]string(nil), refs...)
	}
}

// NewResolver creates a Resolver over the process environment with the default
// candidates and no fallback sources.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		env:        environ.Process,
		candidates: append([]string(nil), DefaultCandidates...),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the token from the process environment using the default candidates.
func Resolve() (string, bool) {
	return NewResolver().Resolve()
}

// Canonical returns the name the token is normalized under.
func (r *Resolver) Canonical() string {
	return r.candidates[0]
}

// Resolve returns the first non-empty candidate, then the first non-empty
// fallback source. It reports false, without touching the environment, when
// nothing is found.
func (r *Resolver) Resolve() (string, bool) {
	for _, name := range r.candidates {
		if value, ok := r.env.Lookup(name); ok && value != "" {
			log.Debug().Str("env_var", name).Msg("Found token in environment")
			r.normalize(name, value)
			return value, true
		}
	}

	if value, ref, ok := r.fromSources(); ok {
		log.Debug().Str("source", ref).Msg("Found token in secret source")
		r.normalize(ref, value)
		return value, true
	}

	log.Debug().Strs("candidates", r.candidates).Msg("No token found")
	return "", false
}

func (r *Resolver) fromSources() (string, string, bool) {
	if r.registry == nil {
		return "", "", false
	}
	for _, ref := range r.sources {
		value, err := r.registry.Resolve(ref)
		if err != nil {
			log.Debug().Err(err).Str("source", ref).Msg("Token source unavailable")
			continue
		}
		if value = strings.TrimSpace(value); value != "" {
			return value, ref, true
		}
	}
	return "", "", false
}

func (r *Resolver) normalize(foundUnder, value string) {
	canonical := r.Canonical()
	if foundUnder == canonical {
		return
	}
	if _, exists := r.env.Lookup(canonical); exists {
		return
	}
	if err := r.env.Set(canonical, value); err != nil {
		log.Warn().Err(err).Str("env_var", canonical).Msg("Unable to normalize token variable")
		return
	}
	log.Debug().Str("from", foundUnder).Str("to", canonical).Msg("Normalized token variable")
}

// Mask renders a token for logs, keeping only a short prefix and suffix.
func Mask(token string) string {
	const keep = 4
	if len(token) <= 2*keep {
		return strings.Repeat("*", len(token))
	}
	return token[:keep] + "…" + token[len(token)-keep:]
}
