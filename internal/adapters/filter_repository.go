package adapters

import (
	"context"
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"pkgsource/internal/ports"
	"pkgsource/internal/types"
)

// FilterRepository exposes only the packages of an inner repository that
// pass a filter. It never supports removal, even when the inner repository
// does.
type FilterRepository struct {
	inner  ports.Repository
	filter ports.PackageFilterPort
}

func NewFilterRepository(inner ports.Repository, filter ports.PackageFilterPort) *FilterRepository {
	return &FilterRepository{inner: inner, filter: filter}
}

func (r *FilterRepository) Name() string {
	return "filter repo (" + r.inner.Name() + ")"
}

func (r *FilterRepository) HasPackage(ctx context.Context, pkg types.Package) (bool, error) {
	if !r.filter.Allows(pkg.Type, pkg.Name) {
		return false, nil
	}
	return r.inner.HasPackage(ctx, pkg)
}

// FindPackage consults every inner match so that a filtered-out package of
// one type does not hide an allowed package of another.
func (r *FilterRepository) FindPackage(ctx context.Context, name string, constraints []types.Constraint) (types.Package, bool, error) {
	packages, err := r.FindPackages(ctx, name, constraints)
	if err != nil || len(packages) == 0 {
		return types.Package{}, false, err
	}
	return packages[0], true, nil
}

func (r *FilterRepository) FindPackages(ctx context.Context, name string, constraints []types.Constraint) ([]types.Package, error) {
	packages, err := r.inner.FindPackages(ctx, name, constraints)
	if err != nil {
		return nil, err
	}
	return r.filterPackages(packages), nil
}

// LoadPackages only forwards allowed names. A name is reported found when
// at least one allowed package of that name was loaded.
func (r *FilterRepository) LoadPackages(ctx context.Context, request types.LoadRequest) (types.LoadResult, error) {
	allowed := make(map[string][]types.Constraint, len(request.Packages))
	for name, constraints := range request.Packages {
		if r.filter.Allows(types.DependencyTypeApt, name) || r.filter.Allows(types.DependencyTypePip, name) {
			allowed[name] = constraints
		}
	}
	if len(allowed) == 0 {
		return types.LoadResult{}, nil
	}
	forwarded := request
	forwarded.Packages = allowed
	result, err := r.inner.LoadPackages(ctx, forwarded)
	if err != nil {
		return types.LoadResult{}, err
	}
	filtered := types.LoadResult{Packages: r.filterPackages(result.Packages)}
	for _, name := range result.NamesFound {
		if r.filter.Allows(types.DependencyTypeApt, name) || r.filter.Allows(types.DependencyTypePip, name) {
			filtered.NamesFound = append(filtered.NamesFound, name)
		}
	}
	return filtered, nil
}

func (r *FilterRepository) Search(ctx context.Context, query string, mode types.SearchMode, pkgType types.DependencyType) ([]types.SearchResult, error) {
	results, err := r.inner.Search(ctx, query, mode, pkgType)
	if err != nil {
		return nil, err
	}
	var out []types.SearchResult
	for _, result := range results {
		if r.filter.Allows(result.Type, result.Name) {
			out = append(out, result)
		}
	}
	return out, nil
}

func (r *FilterRepository) GetPackages(ctx context.Context) ([]types.Package, error) {
	packages, err := r.inner.GetPackages(ctx)
	if err != nil {
		return nil, err
	}
	return r.filterPackages(packages), nil
}

func (r *FilterRepository) GetProviders(ctx context.Context, packageName string) ([]types.ProviderInfo, error) {
	providers, err := r.inner.GetProviders(ctx, packageName)
	if err != nil {
		return nil, err
	}
	var out []types.ProviderInfo
	for _, provider := range providers {
		if r.filter.Allows(provider.Type, provider.Name) {
			out = append(out, provider)
		}
	}
	return out, nil
}

// Count reports the number of allowed packages rather than the inner
// repository's count.
func (r *FilterRepository) Count(ctx context.Context) (int, error) {
	packages, err := r.GetPackages(ctx)
	if err != nil {
		return 0, err
	}
	return len(packages), nil
}

func (r *FilterRepository) filterPackages(packages []types.Package) []types.Package {
	var out []types.Package
	for _, pkg := range packages {
		if r.filter.Allows(pkg.Type, pkg.Name) {
			out = append(out, pkg)
		}
	}
	return out
}

// RepoSpec is a repository entry of the form
// "path|only=apt:lib*;pip:numpy|exclude=libbad".
type RepoSpec struct {
	Path    string
	Only    []string
	Exclude []string
}

func ParseRepoSpec(value string) (RepoSpec, error) {
	parts := strings.Split(value, "|")
	spec := RepoSpec{Path: strings.TrimSpace(parts[0])}
	if spec.Path == "" {
		return RepoSpec{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("repository path is empty")
	}
	for _, part := range parts[1:] {
		key, raw, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			return RepoSpec{}, invalidRepoSpec(value)
		}
		var patterns []string
		for _, pattern := range strings.Split(raw, ";") {
			if strings.TrimSpace(pattern) != "" {
				patterns = append(patterns, strings.TrimSpace(pattern))
			}
		}
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "only":
			spec.Only = append(spec.Only, patterns...)
		case "exclude":
			spec.Exclude = append(spec.Exclude, patterns...)
		default:
			return RepoSpec{}, invalidRepoSpec(value)
		}
	}
	return spec, nil
}

func invalidRepoSpec(value string) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(fmt.Sprintf("invalid repository entry: %s", value))
}

var _ ports.Repository = (*FilterRepository)(nil)
