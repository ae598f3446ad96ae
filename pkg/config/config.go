// Package config reads the envboot configuration file. YAML and TOML are both
// accepted; the format is chosen by file extension.
//
// String values may reference secrets with ${prefix:key}, resolved through a
// secrets.Registry once the providers are registered.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/animalet/envboot/internal/expansion"
	"github.com/animalet/envboot/pkg/envfile"
	"github.com/animalet/envboot/pkg/secrets"
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type (
	// Config is the root of the configuration file.
	Config struct {
		EnvFile EnvFileConfig `yaml:"env_file" toml:"env_file"`
		Token   TokenConfig   `yaml:"token" toml:"token"`
		Secrets SecretsConfig `yaml:"secrets" toml:"secrets"`
	}

	// EnvFileConfig controls the env file loader.
	EnvFileConfig struct {
		// Path is the file to load. Empty means DefaultPath.
		Path string `yaml:"path,omitempty" toml:"path,omitempty"`
		// DefaultPath replaces the install-relative default location.
		DefaultPath string `yaml:"default_path,omitempty" toml:"default_path,omitempty"`
		Override    bool   `yaml:"override" toml:"override"`
		Dialect     string `yaml:"dialect,omitempty" toml:"dialect,omitempty"`
		Disabled    bool   `yaml:"disabled,omitempty" toml:"disabled,omitempty"`
	}

	// TokenConfig controls the token resolver.
	TokenConfig struct {
		// Candidates replaces the default variable names; the first is canonical.
		Candidates []string `yaml:"candidates,omitempty" toml:"candidates,omitempty"`
		// Sources are secret references tried when no candidate is set.
		Sources []string `yaml:"sources,omitempty" toml:"sources,omitempty"`
	}

	// SecretsConfig declares the optional secret providers.
	SecretsConfig struct {
		File  *secrets.FileSecretConfig `yaml:"file,omitempty" toml:"file,omitempty"`
		Vault *secrets.VaultConfig      `yaml:"vault,omitempty" toml:"vault,omitempty"`
		AWS   *secrets.AWSConfig        `yaml:"aws,omitempty" toml:"aws,omitempty"`
	}
)

// Validatable is implemented by every configuration section.
type Validatable interface {
	Validate() error
}

// ClientFactory is a configuration that can build the client it describes.
type ClientFactory[T any] interface {
	Validatable
	CreateClient() (T, error)
}

// configFileNames are searched, in order, under the XDG config directories.
var configFileNames = []string{
	"envboot/config.yaml",
	"envboot/config.yml",
	"envboot/config.toml",
}

// Read loads the configuration at path. An empty file yields the zero Config.
func Read(path string) (*Config, error) {
	// #nosec G304 -- the configuration path is chosen by the operator
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read configuration file %q", path)
	}

	cfg, err := Unmarshal(data, formatOf(path))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse configuration file %q", path)
	}
	return cfg, nil
}

// Unmarshal decodes data in the given format ("yaml" or "toml").
func Unmarshal(data []byte, format string) (*Config, error) {
	cfg := &Config{}
	switch format {
	case "toml":
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	case "yaml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	default:
		return nil, errors.Errorf("unsupported configuration format %q", format)
	}
	return cfg, nil
}

// Locate returns the first envboot configuration file found in the XDG config
// directories, or "" when there is none.
func Locate() string {
	for _, name := range configFileNames {
		if path, err := xdg.SearchConfigFile(name); err == nil {
			return path
		}
	}
	return ""
}

func formatOf(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return "toml"
	}
	return "yaml"
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.EnvFile.Validate(); err != nil {
		return errors.Wrap(err, "env_file configuration is invalid")
	}
	if err := c.Token.Validate(); err != nil {
		return errors.Wrap(err, "token configuration is invalid")
	}
	return nil
}

// Validate checks the dialect name.
func (e EnvFileConfig) Validate() error {
	_, err := envfile.ParseDialect(e.Dialect)
	return err
}

// Options translates the section into loader options.
func (e EnvFileConfig) Options() []envfile.Option {
	dialect, err := envfile.ParseDialect(e.Dialect)
	if err != nil {
		dialect = envfile.DialectSimple
	}
	return []envfile.Option{
		envfile.WithOverride(e.Override),
		envfile.WithDialect(dialect),
		envfile.WithDefaultPath(e.DefaultPath),
	}
}

// Validate rejects blank candidate names and source references.
func (t TokenConfig) Validate() error {
	for i, name := range t.Candidates {
		if strings.TrimSpace(name) == "" || strings.Contains(name, "=") {
			return errors.Errorf("candidate %d is not a valid variable name: %q", i, name)
		}
	}
	for i, ref := range t.Sources {
		if strings.TrimSpace(ref) == "" {
			return errors.Errorf("source %d is empty", i)
		}
	}
	return nil
}

// Expand resolves ${...} references in every string value through registry.
func (c *Config) Expand(registry *secrets.Registry) error {
	return expansion.ExpandVariables(c, registry.Resolve)
}

// RegisterSecrets creates a client for every configured provider and registers
// it under its prefix ("file", "vault", "aws").
func (c *Config) RegisterSecrets(registry *secrets.Registry) error {
	if c.Secrets.File != nil {
		loader, err := c.Secrets.File.CreateClient()
		if err != nil {
			return errors.Wrap(err, "failed to create file secret provider")
		}
		registry.Register("file", loader)
	}

	if c.Secrets.Vault != nil {
		client, err := c.Secrets.Vault.CreateClient()
		if err != nil {
			return errors.Wrap(err, "failed to create Vault secret provider")
		}
		registry.Register("vault", secrets.NewVaultSecretLoader(client, c.Secrets.Vault.Path))
	}

	if c.Secrets.AWS != nil {
		client, err := c.Secrets.AWS.CreateClient()
		if err != nil {
			return errors.Wrap(err, "failed to create AWS secret provider")
		}
		registry.Register("aws", secrets.NewAWSSecretLoader(client, c.Secrets.AWS.SecretName))
	}

	return nil
}

// Compile-time checks that the provider configs build their clients.
var (
	_ ClientFactory[*secrets.FileSecretLoader] = secrets.FileSecretConfig{}
	_ Validatable                              = EnvFileConfig{}
	_ Validatable                              = TokenConfig{}
)
