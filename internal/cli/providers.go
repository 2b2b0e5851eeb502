package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"pkgsource/internal/app"
)

func newProvidersCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "providers <name>",
		Short: "List packages that provide a name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProviders(cmd.Context(), cmd, args[0])
		},
	}
}

func runProviders(ctx context.Context, cmd *cobra.Command, name string) error {
	service := newAppService()
	result, err := service.Providers(ctx, app.ProvidersRequest{
		Repos: configuredRepos(),
		Name:  name,
	})
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, provider := range result.Providers {
		fmt.Fprintf(out, "%s %s %s\n", provider.Type, provider.Name, provider.Description)
	}
	return nil
}
