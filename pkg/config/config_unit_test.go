//go:build unit

package config_test

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/animalet/envboot/pkg/config"
	"github.com/animalet/envboot/pkg/environ"
	"github.com/animalet/envboot/pkg/secrets"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Config", func() {
	var tempDir string

	writeFile := func(name, content string) string {
		path := filepath.Join(tempDir, name)
		Expect(os.MkdirAll(filepath.Dir(path), 0700)).To(Succeed())
		Expect(os.WriteFile(path, []byte(content), 0600)).To(Succeed())
		return path
	}

	BeforeEach(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "config_test")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tempDir)
	})

	Context("Read", func() {
		It("should read a YAML file", func() {
			path := writeFile("envboot.yaml", `
env_file:
  path: ~/project/.env
  override: true
  dialect: dotenv
token:
  candidates: [MY_TOKEN, HF_TOKEN]
  sources: ["file:hf_token"]
secrets:
  vault:
    address: http://localhost:8200
    token: ${VAULT_TOKEN}
    path: secret/data/app
`)
			cfg, err := config.Read(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.EnvFile.Path).To(Equal("~/project/.env"))
			Expect(cfg.EnvFile.Override).To(BeTrue())
			Expect(cfg.EnvFile.Dialect).To(Equal("dotenv"))
			Expect(cfg.Token.Candidates).To(Equal([]string{"MY_TOKEN", "HF_TOKEN"}))
			Expect(cfg.Token.Sources).To(Equal([]string{"file:hf_token"}))
			Expect(cfg.Secrets.Vault).NotTo(BeNil())
			Expect(cfg.Secrets.Vault.Token).To(Equal("${VAULT_TOKEN}"))
			Expect(cfg.Secrets.AWS).To(BeNil())
		})

		It("should read a TOML file", func() {
			path := writeFile("envboot.toml", `
[env_file]
default_path = "/opt/app/.env"

[token]
sources = ["aws:HF_TOKEN"]

[secrets.aws]
region = "eu-west-1"
secret_name = "app"
`)
			cfg, err := config.Read(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.EnvFile.DefaultPath).To(Equal("/opt/app/.env"))
			Expect(cfg.Token.Sources).To(Equal([]string{"aws:HF_TOKEN"}))
			Expect(cfg.Secrets.AWS).NotTo(BeNil())
			Expect(cfg.Secrets.AWS.Region).To(Equal("eu-west-1"))
		})

		It("should return the zero config for an empty file", func() {
			cfg, err := config.Read(writeFile("empty.yaml", ""))
			Expect(err).NotTo(HaveOccurred())
			Expect(*cfg).To(Equal(config.Config{}))
		})

		It("should fail for a missing file", func() {
			_, err := config.Read(filepath.Join(tempDir, "missing.yaml"))
			Expect(err).To(MatchError(ContainSubstring("failed to read configuration file")))
		})

		It("should fail for malformed content", func() {
			_, err := config.Read(writeFile("bad.yaml", "env_file: [unclosed"))
			Expect(err).To(MatchError(ContainSubstring("failed to parse configuration file")))
		})

		It("should reject unknown formats", func() {
			_, err := config.Unmarshal([]byte("{}"), "xml")
			Expect(err).To(MatchError(ContainSubstring("unsupported configuration format")))
		})
	})

	Context("Locate", func() {
		It("should find a configuration file in the XDG config home", func() {
			// xdg captures its search paths on load, so they are set through
			// the environment and reloaded
			DeferCleanup(xdg.Reload)
			for key, value := range map[string]string{
				"XDG_CONFIG_HOME": tempDir,
				"XDG_CONFIG_DIRS": filepath.Join(tempDir, "system"),
			} {
				if previous, ok := os.LookupEnv(key); ok {
					DeferCleanup(os.Setenv, key, previous)
				} else {
					DeferCleanup(os.Unsetenv, key)
				}
				Expect(os.Setenv(key, value)).To(Succeed())
			}
			xdg.Reload()

			Expect(config.Locate()).To(BeEmpty())

			path := writeFile("envboot/config.toml", "")
			Expect(config.Locate()).To(Equal(path))

			Expect(config.Read(config.Locate())).NotTo(BeNil())
		})
	})

	Context("Validate", func() {
		It("should accept the zero config", func() {
			Expect((&config.Config{}).Validate()).To(Succeed())
		})

		It("should reject unknown dialects", func() {
			cfg := &config.Config{EnvFile: config.EnvFileConfig{Dialect: "ini"}}
			Expect(cfg.Validate()).To(MatchError(ContainSubstring("unknown env file dialect")))
		})

		It("should reject blank candidates and sources", func() {
			cfg := &config.Config{Token: config.TokenConfig{Candidates: []string{"HF_TOKEN", " "}}}
			Expect(cfg.Validate()).To(MatchError(ContainSubstring("candidate 1")))

			cfg = &config.Config{Token: config.TokenConfig{Sources: []string{""}}}
			Expect(cfg.Validate()).To(MatchError(ContainSubstring("source 0 is empty")))
		})
	})

	Context("Expand", func() {
		It("should resolve references through the registry", func() {
			env := environ.Map{"VAULT_TOKEN": "s.root", "APP_DIR": "/srv/app"}
			cfg := &config.Config{
				EnvFile: config.EnvFileConfig{Path: "${APP_DIR}/.env"},
				Secrets: config.SecretsConfig{Vault: &secrets.VaultConfig{Token: "${env:VAULT_TOKEN}"}},
			}

			Expect(cfg.Expand(secrets.NewRegistry(env))).To(Succeed())
			Expect(cfg.EnvFile.Path).To(Equal("/srv/app/.env"))
			Expect(cfg.Secrets.Vault.Token).To(Equal("s.root"))
		})

		It("should fail on unknown prefixes", func() {
			cfg := &config.Config{EnvFile: config.EnvFileConfig{Path: "${nope:x}"}}
			Expect(cfg.Expand(secrets.NewRegistry(environ.Map{}))).To(HaveOccurred())
		})
	})

	Context("RegisterSecrets", func() {
		It("should register configured providers", func() {
			registry := secrets.NewRegistry(environ.Map{})
			cfg := &config.Config{Secrets: config.SecretsConfig{
				File:  &secrets.FileSecretConfig{SecretsDir: tempDir},
				Vault: &secrets.VaultConfig{Address: "http://127.0.0.1:8200", Token: "t", Path: "secret/app"},
				AWS:   &secrets.AWSConfig{Region: "us-east-1", SecretName: "app", AccessKeyID: "k", SecretAccessKey: "s"},
			}}

			Expect(cfg.RegisterSecrets(registry)).To(Succeed())
			Expect(registry.Prefixes()).To(Equal([]string{"aws", "env", "file", "vault"}))
		})

		It("should fail for an invalid provider", func() {
			registry := secrets.NewRegistry(environ.Map{})
			cfg := &config.Config{Secrets: config.SecretsConfig{
				File: &secrets.FileSecretConfig{SecretsDir: filepath.Join(tempDir, "missing")},
			}}

			Expect(cfg.RegisterSecrets(registry)).To(MatchError(ContainSubstring("failed to create file secret provider")))
		})
	})

	Context("EnvFileConfig Options", func() {
		It("should not fail on an invalid dialect", func() {
			Expect(config.EnvFileConfig{Dialect: "bogus"}.Options()).To(HaveLen(3))
		})
	})
})
