package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"pkgsource/internal/app"
)

type showOptions struct {
	All bool
}

func newShowCommand() *cobra.Command {
	opts := showOptions{}
	cmd := &cobra.Command{
		Use:   "show <requirement>",
		Short: "Show the highest priority package matching a requirement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd.Context(), cmd, args[0], opts)
		},
	}
	cmd.Flags().BoolVar(&opts.All, "all", false, "List matches from every repository")
	_ = viper.BindPFlag("show_all", cmd.Flags().Lookup("all"))
	return cmd
}

func runShow(ctx context.Context, cmd *cobra.Command, requirement string, opts showOptions) error {
	service := newAppService()
	result, err := service.Show(ctx, app.ShowRequest{
		Repos:       configuredRepos(),
		Requirement: requirement,
		All:         resolveBool(cmd, opts.All, "show_all", "all"),
	})
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, pkg := range result.Packages {
		fmt.Fprintf(out, "%s %s %s (%s)\n", pkg.Type, pkg.Name, pkg.Version, pkg.Stability)
		if pkg.Description != "" {
			fmt.Fprintf(out, "  %s\n", pkg.Description)
		}
		if len(pkg.Provides) > 0 {
			fmt.Fprintf(out, "  provides: %s\n", strings.Join(pkg.Provides, ", "))
		}
		if len(pkg.Depends) > 0 {
			fmt.Fprintf(out, "  depends: %s\n", strings.Join(pkg.Depends, ", "))
		}
	}
	return nil
}
