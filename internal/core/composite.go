package core

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"pkgsource/internal/ports"
	"pkgsource/internal/types"
)

// CompositeOptions tunes how a CompositeRepository dispatches member calls.
type CompositeOptions struct {
	// Concurrency bounds the number of member calls in flight. Values <= 1
	// visit members one at a time.
	Concurrency int
}

// CompositeRepository presents an ordered list of repositories as a single
// repository. Member order encodes priority: single-result lookups return
// the first member's answer, list results are concatenated in member order.
//
// A composite never holds another composite. Nested composites are
// replaced by their members at insertion time.
type CompositeRepository struct {
	repositories []ports.Repository
	concurrency  int
}

func NewCompositeRepository(repositories ...ports.Repository) *CompositeRepository {
	return NewCompositeRepositoryWithOptions(CompositeOptions{}, repositories...)
}

func NewCompositeRepositoryWithOptions(opts CompositeOptions, repositories ...ports.Repository) *CompositeRepository {
	composite := &CompositeRepository{
		repositories: make([]ports.Repository, 0, len(repositories)),
		concurrency:  opts.Concurrency,
	}
	for _, repo := range repositories {
		composite.Add(repo)
	}
	return composite
}

// Add appends repo, or the members of repo when it is itself a composite.
// A nil composite adds nothing.
func (c *CompositeRepository) Add(repo ports.Repository) {
	nested, ok := repo.(*CompositeRepository)
	if ok && nested == nil {
		return
	}
	if !ok {
		c.repositories = append(c.repositories, repo)
		return
	}
	log.Debug().
		Str("repository", nested.Name()).
		Int("members", len(nested.repositories)).
		Msg("flattening nested composite repository")
	for _, member := range nested.repositories {
		c.Add(member)
	}
}

// Repositories returns the member list in insertion order.
func (c *CompositeRepository) Repositories() []ports.Repository {
	return c.repositories
}

func (c *CompositeRepository) Name() string {
	names := make([]string, 0, len(c.repositories))
	for _, repo := range c.repositories {
		names = append(names, repo.Name())
	}
	return "composite repo (" + strings.Join(names, ", ") + ")"
}

func (c *CompositeRepository) HasPackage(ctx context.Context, pkg types.Package) (bool, error) {
	_, found, err := firstMatch(ctx, c, func(ctx context.Context, repo ports.Repository) (struct{}, bool, error) {
		ok, err := repo.HasPackage(ctx, pkg)
		return struct{}{}, ok, err
	})
	return found, err
}

func (c *CompositeRepository) FindPackage(ctx context.Context, name string, constraints []types.Constraint) (types.Package, bool, error) {
	return firstMatch(ctx, c, func(ctx context.Context, repo ports.Repository) (types.Package, bool, error) {
		return repo.FindPackage(ctx, name, constraints)
	})
}

func (c *CompositeRepository) FindPackages(ctx context.Context, name string, constraints []types.Constraint) ([]types.Package, error) {
	parts, err := collect(ctx, c, func(ctx context.Context, repo ports.Repository) ([]types.Package, error) {
		return repo.FindPackages(ctx, name, constraints)
	})
	if err != nil {
		return nil, err
	}
	return concat(parts), nil
}

// LoadPackages sends the same request to every member. Packages found by
// several members are all returned; each found name is reported once.
func (c *CompositeRepository) LoadPackages(ctx context.Context, request types.LoadRequest) (types.LoadResult, error) {
	results, err := collect(ctx, c, func(ctx context.Context, repo ports.Repository) (types.LoadResult, error) {
		return repo.LoadPackages(ctx, request)
	})
	if err != nil {
		return types.LoadResult{}, err
	}
	packages := make([][]types.Package, 0, len(results))
	for _, result := range results {
		packages = append(packages, result.Packages)
	}
	merged := types.LoadResult{
		Packages:   concat(packages),
		NamesFound: []string{},
	}
	seen := map[string]struct{}{}
	for _, result := range results {
		for _, name := range result.NamesFound {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			merged.NamesFound = append(merged.NamesFound, name)
		}
	}
	return merged, nil
}

func (c *CompositeRepository) Search(ctx context.Context, query string, mode types.SearchMode, pkgType types.DependencyType) ([]types.SearchResult, error) {
	parts, err := collect(ctx, c, func(ctx context.Context, repo ports.Repository) ([]types.SearchResult, error) {
		return repo.Search(ctx, query, mode, pkgType)
	})
	if err != nil {
		return nil, err
	}
	return concat(parts), nil
}

func (c *CompositeRepository) GetPackages(ctx context.Context) ([]types.Package, error) {
	parts, err := collect(ctx, c, func(ctx context.Context, repo ports.Repository) ([]types.Package, error) {
		return repo.GetPackages(ctx)
	})
	if err != nil {
		return nil, err
	}
	return concat(parts), nil
}

func (c *CompositeRepository) GetProviders(ctx context.Context, packageName string) ([]types.ProviderInfo, error) {
	parts, err := collect(ctx, c, func(ctx context.Context, repo ports.Repository) ([]types.ProviderInfo, error) {
		return repo.GetProviders(ctx, packageName)
	})
	if err != nil {
		return nil, err
	}
	return concat(parts), nil
}

// Count sums the counts reported by the members.
func (c *CompositeRepository) Count(ctx context.Context) (int, error) {
	counts, err := collect(ctx, c, func(ctx context.Context, repo ports.Repository) (int, error) {
		return repo.Count(ctx)
	})
	if err != nil {
		return 0, err
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	return total, nil
}

func (c *CompositeRepository) RemovePackage(ctx context.Context, pkg types.Package) error {
	_, err := c.RemovePackageCount(ctx, pkg)
	return err
}

// RemovePackageCount removes pkg from every mutable member and reports how
// many members were asked to remove it. Members without removal support
// are skipped. A failing member stops the fan-out; earlier removals stay.
func (c *CompositeRepository) RemovePackageCount(ctx context.Context, pkg types.Package) (int, error) {
	mutated := 0
	for _, repo := range c.repositories {
		mutable, ok := repo.(ports.Mutable)
		if !ok {
			log.Debug().
				Str("repository", repo.Name()).
				Str("package", pkg.UniqueName()).
				Msg("skipping removal on read-only repository")
			continue
		}
		if err := mutable.RemovePackage(ctx, pkg); err != nil {
			return mutated, err
		}
		mutated++
	}
	return mutated, nil
}

func (c *CompositeRepository) sequential() bool {
	return c.concurrency <= 1 || len(c.repositories) < 2
}

// dispatch runs fn against every member with at most c.concurrency calls in
// flight. Results and errors are indexed by member position. Once a member
// fails, no further member is started; calls already in flight finish. The
// first member that was never started carries the cancellation error, so
// every failure precedes any unstarted member in member order.
func dispatch[T any](ctx context.Context, c *CompositeRepository, fn func(context.Context, ports.Repository) (T, error)) ([]T, []error) {
	results := make([]T, len(c.repositories))
	errs := make([]error, len(c.repositories))
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(c.concurrency)
	for i, repo := range c.repositories {
		if err := gctx.Err(); err != nil {
			log.Debug().
				Str("repository", repo.Name()).
				Int("skipped", len(c.repositories)-i).
				Msg("fan-out cancelled")
			errs[i] = err
			break
		}
		group.Go(func() error {
			results[i], errs[i] = fn(ctx, repo)
			return errs[i]
		})
	}
	// errs already holds every failure by position.
	_ = group.Wait()
	return results, errs
}

// collect returns one result per member in member order. The error of the
// first failing member, in member order, aborts the call.
func collect[T any](ctx context.Context, c *CompositeRepository, fn func(context.Context, ports.Repository) (T, error)) ([]T, error) {
	if c.sequential() {
		results := make([]T, 0, len(c.repositories))
		for _, repo := range c.repositories {
			result, err := fn(ctx, repo)
			if err != nil {
				return nil, err
			}
			results = append(results, result)
		}
		return results, nil
	}
	results, errs := dispatch(ctx, c, fn)
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

type match[T any] struct {
	value T
	ok    bool
}

// firstMatch returns the answer of the first member, in member order, that
// reports a match. In sequential mode later members are not consulted.
func firstMatch[T any](ctx context.Context, c *CompositeRepository, fn func(context.Context, ports.Repository) (T, bool, error)) (T, bool, error) {
	var zero T
	if c.sequential() {
		for _, repo := range c.repositories {
			value, ok, err := fn(ctx, repo)
			if err != nil {
				return zero, false, err
			}
			if ok {
				return value, true, nil
			}
		}
		return zero, false, nil
	}
	matches, errs := dispatch(ctx, c, func(ctx context.Context, repo ports.Repository) (match[T], error) {
		value, ok, err := fn(ctx, repo)
		return match[T]{value: value, ok: ok}, err
	})
	for i := range matches {
		if errs[i] != nil {
			return zero, false, errs[i]
		}
		if matches[i].ok {
			return matches[i].value, true, nil
		}
	}
	return zero, false, nil
}

func concat[T any](parts [][]T) []T {
	total := 0
	for _, part := range parts {
		total += len(part)
	}
	out := make([]T, 0, total)
	for _, part := range parts {
		out = append(out, part...)
	}
	return out
}

var _ ports.Mutable = (*CompositeRepository)(nil)
