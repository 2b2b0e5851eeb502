package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"pkgsource/internal/app"
)

type loadOptions struct {
	MinimumStability string
	StabilityFlags   []string
	Loaded           []string
}

func newLoadCommand() *cobra.Command {
	opts := loadOptions{}
	cmd := &cobra.Command{
		Use:   "load <requirement>...",
		Short: "Load every acceptable package for a set of requirements",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(cmd.Context(), cmd, args, opts)
		},
	}
	cmd.Flags().StringVar(&opts.MinimumStability, "minimum-stability", "stable", "Least stable release accepted (stable, RC, beta, alpha, dev)")
	cmd.Flags().StringSliceVar(&opts.StabilityFlags, "stability-flag", nil, "Per-package stability override: name@stability")
	cmd.Flags().StringSliceVar(&opts.Loaded, "loaded", nil, "Already loaded package to skip: name=version")
	_ = viper.BindPFlag("minimum_stability", cmd.Flags().Lookup("minimum-stability"))
	_ = viper.BindPFlag("stability_flags", cmd.Flags().Lookup("stability-flag"))
	return cmd
}

func runLoad(ctx context.Context, cmd *cobra.Command, requirements []string, opts loadOptions) error {
	service := newAppService()
	result, err := service.Load(ctx, app.LoadRequest{
		Repos:            configuredRepos(),
		Requirements:     requirements,
		MinimumStability: resolveString(cmd, opts.MinimumStability, "minimum_stability", "minimum-stability"),
		StabilityFlags:   resolveStrings(cmd, opts.StabilityFlags, "stability_flags", "stability-flag"),
		Loaded:           opts.Loaded,
	})
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, pkg := range result.Packages {
		fmt.Fprintf(out, "%s\n", pkg.UniqueName())
	}
	fmt.Fprintf(out, "found: %s\n", strings.Join(result.NamesFound, ", "))
	if len(result.Missing) > 0 {
		fmt.Fprintf(out, "missing: %s\n", strings.Join(result.Missing, ", "))
	}
	return nil
}
