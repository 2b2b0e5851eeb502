package app

import (
	"context"
	"io"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"pkgsource/internal/adapters"
	"pkgsource/internal/core"
	"pkgsource/internal/ports"
	"pkgsource/internal/types"
)

// Remove deletes every package matching the requirement from the writable
// repositories and writes what is left of them to req.Output. Read-only
// repositories take part in the lookup but are never modified, so a match
// found only there is not reported as removed. Database repositories are
// modified in place as well.
func (s Service) Remove(ctx context.Context, req RemoveRequest) (RemoveResult, error) {
	output := strings.TrimSpace(req.Output)
	if output == "" {
		return RemoveResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("output path is required")
	}
	if len(req.Repos) == 0 {
		return RemoveResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("at least one writable repository is required")
	}
	name, constraints, err := core.ParseRequirement(req.Requirement)
	if err != nil {
		return RemoveResult{}, err
	}

	var opened handles
	defer func() { opened.Close() }()
	writable := make([]ports.Repository, 0, len(req.Repos))
	for _, path := range req.Repos {
		path = strings.TrimSpace(path)
		repo, err := s.openWritable(ctx, path)
		if err != nil {
			return RemoveResult{}, err
		}
		if closer, ok := repo.(io.Closer); ok {
			opened = append(opened, closer)
		}
		writable = append(writable, repo)
	}
	writableSet := core.NewCompositeRepository(writable...)
	composite := core.NewCompositeRepositoryWithOptions(core.CompositeOptions{Concurrency: s.Concurrency}, writableSet)
	if len(req.ReadOnly) > 0 {
		readOnly, readOnlyHandles, err := s.compose(ctx, req.ReadOnly)
		if err != nil {
			return RemoveResult{}, err
		}
		opened = append(opened, readOnlyHandles...)
		for _, member := range readOnly.Repositories() {
			composite.Add(adapters.ReadOnly(member))
		}
	}

	matches, err := composite.FindPackages(ctx, name, constraints)
	if err != nil {
		return RemoveResult{}, err
	}
	if len(matches) == 0 {
		return RemoveResult{}, packageNotFound(req.Requirement)
	}
	result := RemoveResult{OutputPath: output}
	removed := map[string]struct{}{}
	for _, pkg := range matches {
		if _, ok := removed[pkg.UniqueName()]; ok {
			continue
		}
		removed[pkg.UniqueName()] = struct{}{}
		held, err := writableSet.HasPackage(ctx, pkg)
		if err != nil {
			return RemoveResult{}, err
		}
		if !held {
			log.Debug().
				Str("package", pkg.UniqueName()).
				Msg("match only present in read-only repositories")
			continue
		}
		mutated, err := composite.RemovePackageCount(ctx, pkg)
		if err != nil {
			return RemoveResult{}, err
		}
		log.Debug().
			Str("package", pkg.UniqueName()).
			Int("members", mutated).
			Msg("package removed")
		result.MembersMutated += mutated
		result.Removed = append(result.Removed, pkg)
	}

	remaining, err := writableSet.GetPackages(ctx)
	if err != nil {
		return RemoveResult{}, err
	}
	if err := s.IndexWriter.Write(output, types.IndexFile{Packages: remaining}); err != nil {
		return RemoveResult{}, err
	}
	result.Remaining = len(remaining)
	return result, nil
}

// openWritable loads an index into memory, or connects to a database whose
// removals are persisted immediately.
func (s Service) openWritable(ctx context.Context, location string) (ports.Repository, error) {
	if adapters.IsSQLRepository(location) {
		repo, err := adapters.OpenSQLRepository(ctx, location)
		if err != nil {
			return nil, err
		}
		return repo, nil
	}
	repo, err := adapters.OpenWritableIndex(ctx, s.readerFor(location), location)
	if err != nil {
		return nil, err
	}
	return repo, nil
}
