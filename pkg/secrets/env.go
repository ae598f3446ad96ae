package secrets

import (
	"github.com/animalet/envboot/pkg/environ"
	"github.com/rs/zerolog/log"
)

// EnvResolver resolves properties from an environment.
//
// Example usage in config:
//
//	token: ${HF_TOKEN}        # implicit
//	token: ${env:HF_TOKEN}    # explicit
type EnvResolver struct {
	env environ.Environment
}

// NewEnvResolver creates a resolver over env, or the process environment when env is nil.
func NewEnvResolver(env environ.Environment) *EnvResolver {
	if env == nil {
		env = environ.Process
	}
	return &EnvResolver{env: env}
}

// Resolve returns the variable value. A missing variable is not an error and
// resolves to the empty string, like os.Expand.
func (e *EnvResolver) Resolve(key string) (string, error) {
	value, ok := e.env.Lookup(key)
	if !ok || value == "" {
		log.Warn().
			Str("env_var", key).
			Msg("Environment variable not set or empty - using empty string")
		return "", nil
	}

	log.Debug().
		Str("env_var", key).
		Msg("Retrieved value from environment variable")
	return value, nil
}

// Name returns the resolver name
func (e *EnvResolver) Name() string {
	return "Environment"
}
