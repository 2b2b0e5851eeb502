package adapters

import (
	"context"
	"fmt"
	"strings"

	assert "github.com/ZanzyTHEbar/assert-lib"
	"github.com/ZanzyTHEbar/errbuilder-go"

	"pkgsource/internal/core"
	"pkgsource/internal/ports"
	"pkgsource/internal/types"
)

// ArrayRepository is an in-memory, writable package list. Packages are
// returned in insertion order.
type ArrayRepository struct {
	label    string
	packages []types.Package
	index    map[string]int
}

func NewArrayRepository(label string, packages ...types.Package) (*ArrayRepository, error) {
	repo := &ArrayRepository{
		label: label,
		index: map[string]int{},
	}
	for _, pkg := range packages {
		if err := repo.AddPackage(context.Background(), pkg); err != nil {
			return nil, err
		}
	}
	return repo, nil
}

func (r *ArrayRepository) Name() string {
	if strings.TrimSpace(r.label) != "" {
		return r.label
	}
	return fmt.Sprintf("array repo (%d packages)", len(r.packages))
}

// AddPackage appends pkg. Adding a package that is already present is an
// error.
func (r *ArrayRepository) AddPackage(ctx context.Context, pkg types.Package) error {
	assert.NotEmpty(ctx, pkg.Name, "package name must be set")
	if pkg.Type != types.DependencyTypeApt && pkg.Type != types.DependencyTypePip {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("package %s has invalid type '%s'", pkg.Name, pkg.Type))
	}
	if pkg.Stability == "" {
		pkg.Stability = core.VersionStability(pkg.Version)
	}
	key := pkg.UniqueName()
	if _, exists := r.index[key]; exists {
		return errbuilder.New().
			WithCode(errbuilder.CodeAlreadyExists).
			WithMsg(fmt.Sprintf("package already present: %s", key))
	}
	r.index[key] = len(r.packages)
	r.packages = append(r.packages, pkg)
	return nil
}

// RemovePackage drops pkg if present. Removing an absent package is a
// no-op.
func (r *ArrayRepository) RemovePackage(_ context.Context, pkg types.Package) error {
	pos, ok := r.index[pkg.UniqueName()]
	if !ok {
		return nil
	}
	r.packages = append(r.packages[:pos], r.packages[pos+1:]...)
	delete(r.index, pkg.UniqueName())
	for i := pos; i < len(r.packages); i++ {
		r.index[r.packages[i].UniqueName()] = i
	}
	return nil
}

func (r *ArrayRepository) HasPackage(_ context.Context, pkg types.Package) (bool, error) {
	_, ok := r.index[pkg.UniqueName()]
	return ok, nil
}

func (r *ArrayRepository) FindPackage(_ context.Context, name string, constraints []types.Constraint) (types.Package, bool, error) {
	for _, pkg := range r.packages {
		ok, err := matchesPackage(pkg, name, constraints)
		if err != nil {
			return types.Package{}, false, err
		}
		if ok {
			return pkg, true, nil
		}
	}
	return types.Package{}, false, nil
}

func (r *ArrayRepository) FindPackages(_ context.Context, name string, constraints []types.Constraint) ([]types.Package, error) {
	var out []types.Package
	for _, pkg := range r.packages {
		ok, err := matchesPackage(pkg, name, constraints)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, pkg)
		}
	}
	return out, nil
}

// LoadPackages reports a requested name as found whenever a package of that
// name exists, even if none of its versions is returned.
func (r *ArrayRepository) LoadPackages(_ context.Context, request types.LoadRequest) (types.LoadResult, error) {
	result := types.LoadResult{}
	found := map[string]struct{}{}
	for _, pkg := range r.packages {
		constraints, requested := request.Packages[pkg.Name]
		if !requested {
			continue
		}
		if _, ok := found[pkg.Name]; !ok {
			found[pkg.Name] = struct{}{}
			result.NamesFound = append(result.NamesFound, pkg.Name)
		}
		if _, loaded := request.AlreadyLoaded[pkg.Name][pkg.Version]; loaded {
			continue
		}
		if !core.IsPackageAcceptable(request.AcceptableStabilities, request.StabilityFlags, pkg.Name, pkg.Stability) {
			continue
		}
		ok, err := core.Satisfies(pkg.Type, pkg.Version, constraints)
		if err != nil {
			return types.LoadResult{}, err
		}
		if ok {
			result.Packages = append(result.Packages, pkg)
		}
	}
	return result, nil
}

// Search matches every whitespace separated token of query,
// case-insensitively. An empty pkgType matches all types.
func (r *ArrayRepository) Search(_ context.Context, query string, mode types.SearchMode, pkgType types.DependencyType) ([]types.SearchResult, error) {
	if mode != types.SearchModeName && mode != types.SearchModeFulltext {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("unknown search mode: %s", mode))
	}
	tokens := strings.Fields(strings.ToLower(query))
	var out []types.SearchResult
	seen := map[string]struct{}{}
	for _, pkg := range r.packages {
		if pkgType != "" && pkg.Type != pkgType {
			continue
		}
		key := string(pkg.Type) + ":" + pkg.Name
		if _, ok := seen[key]; ok {
			continue
		}
		haystack := strings.ToLower(pkg.Name)
		if mode == types.SearchModeFulltext {
			haystack += " " + strings.ToLower(pkg.Description)
		}
		if !containsAll(haystack, tokens) {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, types.SearchResult{
			Name:        pkg.Name,
			Description: pkg.Description,
			Type:        pkg.Type,
		})
	}
	return out, nil
}

func (r *ArrayRepository) GetPackages(_ context.Context) ([]types.Package, error) {
	out := make([]types.Package, len(r.packages))
	copy(out, r.packages)
	return out, nil
}

// GetProviders lists packages that declare packageName in their provides
// list. Provides entries may carry a version, e.g. "foo (= 1.0)".
func (r *ArrayRepository) GetProviders(_ context.Context, packageName string) ([]types.ProviderInfo, error) {
	var out []types.ProviderInfo
	for _, pkg := range r.packages {
		for _, provided := range pkg.Provides {
			if providedName(provided) != packageName {
				continue
			}
			out = append(out, types.ProviderInfo{
				Name:        pkg.Name,
				Description: pkg.Description,
				Type:        pkg.Type,
			})
			break
		}
	}
	return out, nil
}

func (r *ArrayRepository) Count(_ context.Context) (int, error) {
	return len(r.packages), nil
}

func matchesPackage(pkg types.Package, name string, constraints []types.Constraint) (bool, error) {
	if pkg.Name != name {
		return false, nil
	}
	return core.Satisfies(pkg.Type, pkg.Version, constraints)
}

func containsAll(haystack string, tokens []string) bool {
	for _, token := range tokens {
		if !strings.Contains(haystack, token) {
			return false
		}
	}
	return true
}

func providedName(entry string) string {
	entry = strings.TrimSpace(entry)
	if idx := strings.IndexAny(entry, " (<>=!~"); idx >= 0 {
		entry = entry[:idx]
	}
	return entry
}

var _ ports.Writable = (*ArrayRepository)(nil)
