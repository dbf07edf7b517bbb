package cli

import (
	"github.com/spf13/cobra"
)

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init <url>",
		Short: "Create the canonical schema",
		Long: `Create the canonical tables, the id counter table and the seed rows
in the target store. Safe to run against an already initialized store.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout(), Verbose: rootOpts.Verbose}
			store, err := openStore(cmd, rootOpts, args[0])
			if err != nil {
				return err
			}
			defer store.Close()
			if err := store.CreateSchema(cmd.Context()); err != nil {
				out.Error("E001", "create schema failed", err.Error())
				return WrapExitError(ExitFailure, "create schema", err)
			}
			if err := store.Verify(cmd.Context()); err != nil {
				out.Error("E002", "schema verification failed", err.Error())
				return WrapExitError(ExitFailure, "verify schema", err)
			}
			return out.Success(map[string]string{"url": args[0]}, []string{"schema created"})
		},
	}
	return cmd
}
