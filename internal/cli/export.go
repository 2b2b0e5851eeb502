package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"pkgsource/internal/app"
)

type exportOptions struct {
	Name   string
	Output string
}

func newExportCommand() *cobra.Command {
	opts := exportOptions{}
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write all repositories into a single index file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExport(cmd.Context(), cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.Name, "name", "", "Name recorded in the exported index")
	cmd.Flags().StringVar(&opts.Output, "output", "index.yaml", "Output index path or database (sqlite:<path>, postgres://...)")
	_ = viper.BindPFlag("export_name", cmd.Flags().Lookup("name"))
	_ = viper.BindPFlag("export_output", cmd.Flags().Lookup("output"))
	return cmd
}

func runExport(ctx context.Context, cmd *cobra.Command, opts exportOptions) error {
	service := newAppService()
	result, err := service.Export(ctx, app.ExportRequest{
		Repos:  configuredRepos(),
		Name:   resolveString(cmd, opts.Name, "export_name", "name"),
		Output: resolveString(cmd, opts.Output, "export_output", "output"),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "exported %d packages to %s\n", result.Count, result.OutputPath)
	return nil
}
