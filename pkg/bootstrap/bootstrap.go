// Package bootstrap wires the configuration, the env file loader and the token
// resolver into the startup sequence used by the envboot command.
package bootstrap

import (
	"github.com/animalet/envboot/internal/snapshot"
	"github.com/animalet/envboot/pkg/config"
	"github.com/animalet/envboot/pkg/envfile"
	"github.com/animalet/envboot/pkg/environ"
	"github.com/animalet/envboot/pkg/secrets"
	"github.com/animalet/envboot/pkg/token"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Outcome reports what a run did.
type Outcome struct {
	// EnvFile is nil when no env file was loaded.
	EnvFile    *envfile.Result
	Token      string
	TokenFound bool
	// TokenVariable is the canonical name the token is exposed under.
	TokenVariable string
}

// Run registers the configured secret providers, loads the env file into env
// and resolves the token. A nil cfg runs with defaults; a nil registry gets a
// fresh one bound to env. The caller's configuration is not modified.
func Run(cfg *config.Config, env environ.Environment, registry *secrets.Registry) (*Outcome, error) {
	if cfg == nil {
		cfg = &config.Config{}
	}
	if env == nil {
		env = environ.Process
	}
	if registry == nil {
		registry = secrets.NewRegistry(env)
	}

	cfg, err := snapshot.Copy(cfg)
	if err != nil {
		return nil, err
	}
	if err = cfg.Validate(); err != nil {
		return nil, err
	}

	// Provider settings may only reference the environment as it was before
	// the env file is applied.
	if err = cfg.Expand(registry); err != nil {
		return nil, errors.Wrap(err, "failed to expand configuration")
	}
	if err = cfg.RegisterSecrets(registry); err != nil {
		return nil, err
	}

	outcome := &Outcome{}
	if cfg.EnvFile.Disabled {
		log.Debug().Msg("Env file loading disabled")
	} else {
		opts := append(cfg.EnvFile.Options(), envfile.WithEnvironment(env))
		outcome.EnvFile = envfile.NewLoader(opts...).LoadResult(cfg.EnvFile.Path)
		if outcome.EnvFile != nil {
			log.Info().
				Str("path", outcome.EnvFile.Path).
				Int("applied", len(outcome.EnvFile.Applied)).
				Msg("Environment file loaded")
		}
	}

	resolver := token.NewResolver(
		token.WithEnvironment(env),
		token.WithCandidates(cfg.Token.Candidates...),
		token.WithSources(registry, cfg.Token.Sources...),
	)
	outcome.TokenVariable = resolver.Canonical()
	outcome.Token, outcome.TokenFound = resolver.Resolve()
	if outcome.TokenFound {
		log.Info().Str("token", token.Mask(outcome.Token)).Str("env_var", outcome.TokenVariable).Msg("Token resolved")
	}

	return outcome, nil
}
