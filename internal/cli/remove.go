package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"pkgsource/internal/app"
)

type removeOptions struct {
	ReadOnly []string
	Output   string
}

func newRemoveCommand() *cobra.Command {
	opts := removeOptions{}
	cmd := &cobra.Command{
		Use:   "remove <requirement>",
		Short: "Remove matching packages from the writable repositories",
		Long: "Remove loads every --repo index as a writable repository, removes all " +
			"packages matching the requirement and writes the remaining packages to --output. " +
			"Database repositories are modified in place. " +
			"Repositories given with --read-only are consulted but never modified.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemove(cmd.Context(), cmd, args[0], opts)
		},
	}
	cmd.Flags().StringSliceVar(&opts.ReadOnly, "read-only", nil, "Read-only repository index file, directory, URL or database")
	cmd.Flags().StringVar(&opts.Output, "output", "index.yaml", "Output index path")
	_ = viper.BindPFlag("read_only_repos", cmd.Flags().Lookup("read-only"))
	_ = viper.BindPFlag("remove_output", cmd.Flags().Lookup("output"))
	return cmd
}

func runRemove(ctx context.Context, cmd *cobra.Command, requirement string, opts removeOptions) error {
	service := newAppService()
	result, err := service.Remove(ctx, app.RemoveRequest{
		Repos:       configuredRepos(),
		ReadOnly:    resolveStrings(cmd, opts.ReadOnly, "read_only_repos", "read-only"),
		Requirement: requirement,
		Output:      resolveString(cmd, opts.Output, "remove_output", "output"),
	})
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, pkg := range result.Removed {
		fmt.Fprintf(out, "removed: %s\n", pkg.UniqueName())
	}
	fmt.Fprintf(out, "wrote %d packages to %s\n", result.Remaining, result.OutputPath)
	return nil
}
