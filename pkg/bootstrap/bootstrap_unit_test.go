//go:build unit

package bootstrap_test

import (
	"os"
	"path/filepath"

	"github.com/animalet/envboot/pkg/bootstrap"
	"github.com/animalet/envboot/pkg/config"
	"github.com/animalet/envboot/pkg/environ"
	"github.com/animalet/envboot/pkg/secrets"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Run", func() {
	var (
		tempDir string
		env     environ.Map
	)

	BeforeEach(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "bootstrap_test")
		Expect(err).NotTo(HaveOccurred())
		tempDir, err = filepath.EvalSymlinks(tempDir)
		Expect(err).NotTo(HaveOccurred())
		env = environ.Map{}
	})

	AfterEach(func() {
		os.RemoveAll(tempDir)
	})

	It("should load the env file and normalize the token found in it", func() {
		envPath := filepath.Join(tempDir, ".env")
		Expect(os.WriteFile(envPath, []byte("HUGGINGFACE_HUB_TOKEN=\"hf_from_file\"\nOTHER=1\n"), 0600)).To(Succeed())

		cfg := &config.Config{EnvFile: config.EnvFileConfig{Path: "${WORKDIR}/.env"}}
		env["WORKDIR"] = tempDir

		outcome, err := bootstrap.Run(cfg, env, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(outcome.EnvFile).NotTo(BeNil())
		Expect(outcome.EnvFile.Path).To(Equal(envPath))
		Expect(outcome.EnvFile.Applied).To(Equal([]string{"HUGGINGFACE_HUB_TOKEN", "OTHER"}))
		Expect(outcome.TokenFound).To(BeTrue())
		Expect(outcome.Token).To(Equal("hf_from_file"))
		Expect(outcome.TokenVariable).To(Equal("HF_TOKEN"))
		Expect(env).To(HaveKeyWithValue("HF_TOKEN", "hf_from_file"))

		By("leaving the caller's configuration untouched")
		Expect(cfg.EnvFile.Path).To(Equal("${WORKDIR}/.env"))
	})

	It("should succeed without an env file or a token", func() {
		cfg := &config.Config{EnvFile: config.EnvFileConfig{Path: filepath.Join(tempDir, "absent.env")}}

		outcome, err := bootstrap.Run(cfg, env, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(outcome.EnvFile).To(BeNil())
		Expect(outcome.TokenFound).To(BeFalse())
		Expect(env).To(BeEmpty())
	})

	It("should skip the env file when disabled", func() {
		envPath := filepath.Join(tempDir, ".env")
		Expect(os.WriteFile(envPath, []byte("A=1\n"), 0600)).To(Succeed())

		cfg := &config.Config{EnvFile: config.EnvFileConfig{Path: envPath, Disabled: true}}
		outcome, err := bootstrap.Run(cfg, env, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(outcome.EnvFile).To(BeNil())
		Expect(env).NotTo(HaveKey("A"))
	})

	It("should fall back to configured secret sources", func() {
		secretsDir := filepath.Join(tempDir, "secrets")
		Expect(os.Mkdir(secretsDir, 0700)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(secretsDir, "hf_token"), []byte("hf_docker_secret\n"), 0600)).To(Succeed())

		cfg := &config.Config{
			EnvFile: config.EnvFileConfig{Disabled: true},
			Token:   config.TokenConfig{Sources: []string{"file:hf_token"}},
			Secrets: config.SecretsConfig{File: &secrets.FileSecretConfig{SecretsDir: secretsDir}},
		}

		registry := secrets.NewRegistry(env)
		outcome, err := bootstrap.Run(cfg, env, registry)
		Expect(err).NotTo(HaveOccurred())
		Expect(outcome.Token).To(Equal("hf_docker_secret"))
		Expect(env).To(HaveKeyWithValue("HF_TOKEN", "hf_docker_secret"))
		Expect(registry.Get("file")).NotTo(BeNil())
	})

	It("should reject an invalid configuration", func() {
		cfg := &config.Config{EnvFile: config.EnvFileConfig{Dialect: "xml"}}
		_, err := bootstrap.Run(cfg, env, nil)
		Expect(err).To(HaveOccurred())
	})

	It("should report provider creation failures", func() {
		cfg := &config.Config{Secrets: config.SecretsConfig{Vault: &secrets.VaultConfig{Address: "http://localhost:8200"}}}
		_, err := bootstrap.Run(cfg, env, nil)
		Expect(err).To(MatchError(ContainSubstring("failed to create Vault secret provider")))
	})
})
