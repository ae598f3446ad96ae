package secrets

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// FileSecretConfig holds configuration for the file-based resolver
type FileSecretConfig struct {
	SecretsDir string `yaml:"secrets_dir" toml:"secrets_dir"`
}

// Validate checks that the secrets directory exists and is a directory
func (f FileSecretConfig) Validate() error {
	if f.SecretsDir == "" {
		return errors.New("secrets_dir is required for file resolver")
	}

	info, err := os.Stat(f.SecretsDir)
	if os.IsNotExist(err) {
		return errors.Errorf("secrets_dir %q does not exist", f.SecretsDir)
	}
	if err != nil {
		return errors.Wrapf(err, "error accessing secrets_dir %q", f.SecretsDir)
	}
	if !info.IsDir() {
		return errors.Errorf("secrets_dir %q is not a directory", f.SecretsDir)
	}
	return nil
}

// CreateClient validates the config and builds a FileSecretLoader.
func (f FileSecretConfig) CreateClient() (*FileSecretLoader, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return NewFileSecretLoader(f.SecretsDir), nil
}

// FileSecretLoader reads one secret per file from a directory, the layout used
// by Docker and Kubernetes secrets (/run/secrets/hf_token).
//
//	token: ${file:hf_token}
//
// File contents are trimmed of whitespace.
type FileSecretLoader struct {
	secretsDir string
}

// NewFileSecretLoader creates a resolver rooted at secretsDir.
func NewFileSecretLoader(secretsDir string) *FileSecretLoader {
	return &FileSecretLoader{secretsDir: secretsDir}
}

// Resolve reads a secret file. Keys escaping the secrets directory are rejected.
func (f *FileSecretLoader) Resolve(key string) (string, error) {
	if f.secretsDir == "" {
		return "", errors.New("no secrets directory configured")
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return "", errors.New("no file specified for file secret")
	}
	if filepath.IsAbs(key) {
		return "", errors.New("invalid secret key: absolute paths not allowed")
	}

	absSecretsDir, err := filepath.Abs(f.secretsDir)
	if err != nil {
		return "", errors.Wrap(err, "failed to resolve secrets directory")
	}
	absFilePath, err := filepath.Abs(filepath.Join(absSecretsDir, key))
	if err != nil {
		return "", errors.Wrap(err, "failed to resolve secret file path")
	}
	if !strings.HasPrefix(absFilePath, absSecretsDir+string(filepath.Separator)) {
		return "", errors.New("invalid secret key: outside secrets directory")
	}

	// #nosec G304 -- confined to the secrets directory above
	content, err := os.ReadFile(absFilePath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.Errorf("secret %q not found", key)
		}
		return "", errors.Wrapf(err, "failed to read secret %q", key)
	}

	log.Debug().Str("file", absFilePath).Msg("Retrieved secret from file")
	return strings.TrimSpace(string(content)), nil
}

// Name returns the resolver name
func (f *FileSecretLoader) Name() string {
	return "File"
}
