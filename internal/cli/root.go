package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"stagedb"
	"stagedb/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Config  string
	Verbose bool
	Format  string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the stagedb CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "stagedb",
		Short: "stagedb - staged entity-relationship store",
		Long:  "Inspect and bootstrap a staged entity-relationship store.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.Config, "config", "c", "", "path to YAML config file")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewInitCommand(opts))
	cmd.AddCommand(NewClassesCommand(opts))
	cmd.AddCommand(NewEntitiesCommand(opts))
	cmd.AddCommand(NewRelationshipsCommand(opts))
	cmd.AddCommand(NewCommitsCommand(opts))

	return cmd
}

// loadConfig resolves the effective configuration: the --config file when
// given, defaults plus the positional URL otherwise.
func loadConfig(opts *RootOptions, url string) (config.Config, error) {
	if opts.Config != "" {
		return config.Load(opts.Config)
	}
	cfg := config.Default()
	cfg.URL = url
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// openStore opens the configured store with the configured logger.
func openStore(cmd *cobra.Command, opts *RootOptions, url string) (*stagedb.Store, error) {
	cfg, err := loadConfig(opts, url)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "load config", err)
	}
	log, err := cfg.Logger()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "build logger", err)
	}
	store, err := stagedb.Open(cmd.Context(), stagedb.Options{
		Backend: cfg.Backend,
		URL:     cfg.URL,
		User:    cfg.User,
		Strict:  cfg.Strict,
		Logger:  log,
	})
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "open store", err)
	}
	return store, nil
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
