package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"pkgsource/internal/app"
)

func newStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show repository members and package counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStats(cmd.Context(), cmd)
		},
	}
}

func runStats(ctx context.Context, cmd *cobra.Command) error {
	service := newAppService()
	result, err := service.Stats(ctx, app.StatsRequest{Repos: configuredRepos()})
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s\n", result.Name)
	for _, member := range result.Members {
		fmt.Fprintf(out, "  %-40s %d\n", member.Name, member.Count)
	}
	fmt.Fprintf(out, "total: %d\n", result.Count)
	return nil
}
