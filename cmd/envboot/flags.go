package main

import (
	"fmt"
	"io"

	"github.com/spf13/pflag"
)

type options struct {
	configPath  string
	envFile     string
	override    bool
	dialect     string
	showToken   bool
	exportPath  string
	debug       bool
	logLevel    string
	showHelp    bool
	showVersion bool

	// set tracks flags given explicitly, so they only override the config file when present
	set     map[string]bool
	command []string
}

func newFlagSet(opts *options) *pflag.FlagSet {
	fs := pflag.NewFlagSet("envboot", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	// everything after the first positional argument belongs to the child command
	fs.SetInterspersed(false)

	fs.StringVarP(&opts.configPath, "config", "c", "", "Path to a YAML or TOML configuration file")
	fs.StringVarP(&opts.envFile, "env-file", "e", "", "Env file to load (default: .env next to the install directory)")
	fs.BoolVar(&opts.override, "override", false, "Let env file values replace variables that are already set")
	fs.StringVar(&opts.dialect, "dialect", "simple", "Env file grammar: simple or dotenv")
	fs.BoolVar(&opts.showToken, "token", false, "Print whether a Hugging Face token was resolved (masked)")
	fs.StringVar(&opts.exportPath, "export", "", "Write the env file keys (already-set ones with their current value) and the token variable to this file")
	fs.BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	fs.StringVar(&opts.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	fs.BoolVarP(&opts.showHelp, "help", "h", false, "Show this help")
	fs.BoolVar(&opts.showVersion, "version", false, "Show version information")
	return fs
}

func parseFlags(args []string) (*options, error) {
	opts := &options{set: map[string]bool{}}
	fs := newFlagSet(opts)

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	fs.Visit(func(f *pflag.Flag) {
		opts.set[f.Name] = true
	})
	opts.command = fs.Args()
	return opts, nil
}

func printUsage(w io.Writer) {
	fs := newFlagSet(&options{})
	_, _ = fmt.Fprintf(w, "Usage: envboot [flags] [--] [command [args...]]\n\n")
	_, _ = fmt.Fprintf(w, "Loads an env file into the environment, resolves the Hugging Face token\n")
	_, _ = fmt.Fprintf(w, "and optionally runs a command with the resulting environment.\n\n")
	_, _ = fmt.Fprintf(w, "Flags:\n%s", fs.FlagUsages())
}
