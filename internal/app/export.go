package app

import (
	"context"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"pkgsource/internal/adapters"
	"pkgsource/internal/types"
)

// Export writes the combined package list of all repositories to a single
// index file. Packages present in several repositories are written once per
// repository. A database output keeps only the first copy of each package.
func (s Service) Export(ctx context.Context, req ExportRequest) (ExportResult, error) {
	output := strings.TrimSpace(req.Output)
	if output == "" {
		return ExportResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("output path is required")
	}
	repo, opened, err := s.compose(ctx, req.Repos)
	if err != nil {
		return ExportResult{}, err
	}
	defer opened.Close()
	packages, err := repo.GetPackages(ctx)
	if err != nil {
		return ExportResult{}, err
	}
	if adapters.IsSQLRepository(output) {
		return s.exportToDatabase(ctx, output, packages)
	}
	index := types.IndexFile{
		Name:     strings.TrimSpace(req.Name),
		Packages: packages,
	}
	if err := s.IndexWriter.Write(output, index); err != nil {
		return ExportResult{}, err
	}
	return ExportResult{OutputPath: output, Count: len(packages)}, nil
}

func (s Service) exportToDatabase(ctx context.Context, location string, packages []types.Package) (ExportResult, error) {
	repo, err := adapters.OpenSQLRepository(ctx, location)
	if err != nil {
		return ExportResult{}, err
	}
	defer repo.Close()
	written := 0
	for _, pkg := range packages {
		if err := repo.AddPackage(ctx, pkg); err != nil {
			if errbuilder.CodeOf(err) == errbuilder.CodeAlreadyExists {
				log.Debug().Str("package", pkg.UniqueName()).Msg("skipping duplicate package")
				continue
			}
			return ExportResult{}, err
		}
		written++
	}
	return ExportResult{OutputPath: location, Count: written}, nil
}
