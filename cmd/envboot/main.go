package main

import (
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/animalet/envboot/logger"
	"github.com/animalet/envboot/pkg/bootstrap"
	"github.com/animalet/envboot/pkg/config"
	"github.com/animalet/envboot/pkg/envfile"
	"github.com/animalet/envboot/pkg/environ"
	"github.com/animalet/envboot/pkg/token"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Version information set during build
var (
	version = "dev"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n\n", err)
		printUsage(stderr)
		return 2
	}

	if opts.showHelp {
		printUsage(stdout)
		return 0
	}
	if opts.showVersion {
		_, _ = fmt.Fprintf(stdout, "%s %s\n", "envboot", version)
		return 0
	}

	level := logger.ParseLevel(opts.logLevel)
	if opts.debug {
		level = zerolog.DebugLevel
	}
	logger.Setup(level, stderr)

	cfg, err := loadConfig(opts)
	if err != nil {
		log.Error().Err(err).Msg("Invalid configuration")
		return 1
	}

	env := environ.Process
	outcome, err := bootstrap.Run(cfg, env, nil)
	if err != nil {
		log.Error().Err(err).Msg("Startup failed")
		return 1
	}

	if outcome.EnvFile == nil {
		log.Debug().Msg("No env file loaded")
	}

	if opts.exportPath != "" {
		if err := export(opts.exportPath, outcome, env); err != nil {
			log.Error().Err(err).Msg("Export failed")
			return 1
		}
		log.Info().Str("path", opts.exportPath).Msg("Environment exported")
	}

	if opts.showToken {
		if outcome.TokenFound {
			_, _ = fmt.Fprintf(stdout, "%s=%s\n", outcome.TokenVariable, token.Mask(outcome.Token))
		} else {
			_, _ = fmt.Fprintln(stdout, "no token found")
		}
	}

	if len(opts.command) == 0 {
		return 0
	}
	return runCommand(opts.command, stdout, stderr)
}

// loadConfig reads the configuration file, if any, and applies explicit flags on top.
func loadConfig(opts *options) (*config.Config, error) {
	path := opts.configPath
	if path == "" {
		path = config.Locate()
	}

	cfg := &config.Config{}
	if path != "" {
		var err error
		if cfg, err = config.Read(path); err != nil {
			return nil, err
		}
		log.Debug().Str("path", path).Msg("Configuration file read")
	}

	if opts.set["env-file"] {
		cfg.EnvFile.Path = opts.envFile
		cfg.EnvFile.Disabled = false
	}
	if opts.set["override"] {
		cfg.EnvFile.Override = opts.override
	}
	if opts.set["dialect"] {
		cfg.EnvFile.Dialect = opts.dialect
	}

	return cfg, cfg.Validate()
}

// export writes the current values of the keys that came from the env file,
// plus the canonical token variable when a token was resolved.
func export(path string, outcome *bootstrap.Outcome, env environ.Environment) error {
	values := make(map[string]string)

	add := func(key string) {
		if v, ok := env.Lookup(key); ok {
			values[key] = v
		}
	}

	if outcome.EnvFile != nil {
		for _, key := range outcome.EnvFile.Applied {
			add(key)
		}
		for _, key := range outcome.EnvFile.Skipped {
			add(key)
		}
	}
	if outcome.TokenFound {
		add(outcome.TokenVariable)
	}

	if len(values) == 0 {
		return errors.New("nothing to export")
	}
	return envfile.Write(path, values)
}

// runCommand runs the child with the populated process environment and returns
// its exit code.
func runCommand(command []string, stdout, stderr io.Writer) int {
	// #nosec G204 -- running the operator's command is the purpose of this tool
	cmd := exec.Command(command[0], command[1:]...)
	cmd.Env = environ.Current().Pairs()
	cmd.Stdin = os.Stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	err := cmd.Run()
	if err == nil {
		return 0
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}

	log.Error().Err(err).Str("command", command[0]).Msg("Unable to run command")
	return 127
}
