package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"pkgsource/internal/app"
	"pkgsource/internal/types"
)

type searchOptions struct {
	Mode string
	Type string
}

func newSearchCommand() *cobra.Command {
	opts := searchOptions{}
	cmd := &cobra.Command{
		Use:   "search <query>...",
		Short: "Search packages by name or description",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd.Context(), cmd, strings.Join(args, " "), opts)
		},
	}
	cmd.Flags().StringVar(&opts.Mode, "mode", string(types.SearchModeName), "Search mode: name or fulltext")
	cmd.Flags().StringVar(&opts.Type, "type", "", "Restrict to package type (apt or pip)")
	_ = viper.BindPFlag("search_mode", cmd.Flags().Lookup("mode"))
	_ = viper.BindPFlag("search_type", cmd.Flags().Lookup("type"))
	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, query string, opts searchOptions) error {
	service := newAppService()
	result, err := service.Search(ctx, app.SearchRequest{
		Repos: configuredRepos(),
		Query: query,
		Mode:  resolveString(cmd, opts.Mode, "search_mode", "mode"),
		Type:  resolveString(cmd, opts.Type, "search_type", "type"),
	})
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, match := range result.Results {
		fmt.Fprintf(out, "%s %s %s\n", match.Type, match.Name, match.Description)
	}
	return nil
}
