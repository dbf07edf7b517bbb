package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// The listing commands share one shape: open the store, read a canonical
// view, print one line per row (or the JSON payload).

// NewClassesCommand creates the classes command.
func NewClassesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "classes <url>",
		Short:         "List object and relationship classes",
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
			objects, err := store.ObjectClasses(cmd.Context())
			if err != nil {
				return WrapExitError(ExitFailure, "query object classes", err)
			}
			relationships, err := store.RelationshipClasses(cmd.Context())
			if err != nil {
				return WrapExitError(ExitFailure, "query relationship classes", err)
			}
			var lines []string
			for _, c := range objects {
				lines = append(lines, fmt.Sprintf("object class %d\t%s", c.ID, c.Name))
			}
			for _, c := range relationships {
				lines = append(lines, fmt.Sprintf("relationship class %d\t%s\t(%s)", c.ID, c.Name,
					strings.Join(c.MemberClassNames, ", ")))
			}
			payload := map[string]any{"object_classes": objects, "relationship_classes": relationships}
			return out.Success(payload, lines)
		},
	}
}

// NewEntitiesCommand creates the entities command.
func NewEntitiesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "entities <url>",
		Short:         "List objects",
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
			objects, err := store.Objects(cmd.Context())
			if err != nil {
				return WrapExitError(ExitFailure, "query objects", err)
			}
			lines := make([]string, 0, len(objects))
			for _, o := range objects {
				lines = append(lines, fmt.Sprintf("object %d\t%s\t(class %d)", o.ID, o.Name, o.ClassID))
			}
			return out.Success(objects, lines)
		},
	}
}

// NewRelationshipsCommand creates the relationships command.
func NewRelationshipsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "relationships <url>",
		Short:         "List relationships with their members",
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
			relationships, err := store.Relationships(cmd.Context())
			if err != nil {
				return WrapExitError(ExitFailure, "query relationships", err)
			}
			lines := make([]string, 0, len(relationships))
			for _, r := range relationships {
				lines = append(lines, fmt.Sprintf("relationship %d\t%s\t(%s)", r.ID, r.Name,
					strings.Join(r.MemberNames, ", ")))
			}
			return out.Success(relationships, lines)
		},
	}
}

// NewCommitsCommand creates the commits command.
func NewCommitsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "commits <url>",
		Short:         "List the commit catalog",
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
			commits, err := store.Commits(cmd.Context())
			if err != nil {
				return WrapExitError(ExitFailure, "query commits", err)
			}
			lines := make([]string, 0, len(commits))
			for _, c := range commits {
				lines = append(lines, fmt.Sprintf("commit %d\t%s\t%s\t%s", c.ID, c.Date, c.User, c.Comment))
			}
			return out.Success(commits, lines)
		},
	}
}
