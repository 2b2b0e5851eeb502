package adapters

import (
	"context"
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pkgsource/internal/core"
	"pkgsource/internal/types"
)

func newTestArrayRepository(t *testing.T) *ArrayRepository {
	t.Helper()
	repo, err := NewArrayRepository("test",
		types.Package{Name: "libfoo", Version: "1.0", Type: types.DependencyTypeApt, Description: "Foo runtime library"},
		types.Package{Name: "libfoo", Version: "2.0~beta1", Type: types.DependencyTypeApt, Description: "Foo runtime library"},
		types.Package{Name: "libfoo", Version: "2.0", Type: types.DependencyTypeApt, Description: "Foo runtime library", Provides: []string{"foo-abi (= 2)"}},
		types.Package{Name: "foo-compat", Version: "1.0", Type: types.DependencyTypeApt, Provides: []string{"foo-abi"}},
		types.Package{Name: "requests", Version: "2.31.0", Type: types.DependencyTypePip, Description: "HTTP for humans"},
	)
	require.NoError(t, err)
	return repo
}

func TestArrayRepositoryDerivesStability(t *testing.T) {
	repo := newTestArrayRepository(t)
	packages, err := repo.GetPackages(context.Background())
	require.NoError(t, err)
	assert.Equal(t, types.StabilityStable, packages[0].Stability)
	assert.Equal(t, types.StabilityBeta, packages[1].Stability)
}

func TestArrayRepositoryAddPackage(t *testing.T) {
	ctx := context.Background()
	repo := newTestArrayRepository(t)

	err := repo.AddPackage(ctx, types.Package{Name: "libfoo", Version: "1.0", Type: types.DependencyTypeApt})
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeAlreadyExists, errbuilder.CodeOf(err))

	err = repo.AddPackage(ctx, types.Package{Name: "libfoo", Version: "1.0", Type: "rpm"})
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeInvalidArgument, errbuilder.CodeOf(err))

	require.NoError(t, repo.AddPackage(ctx, types.Package{Name: "libfoo", Version: "1.0", Type: types.DependencyTypePip}))
	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, count)
}

func TestArrayRepositoryFindPackage(t *testing.T) {
	ctx := context.Background()
	repo := newTestArrayRepository(t)

	pkg, ok, err := repo.FindPackage(ctx, "libfoo", nil)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "1.0", pkg.Version)

	pkg, ok, err = repo.FindPackage(ctx, "libfoo", []types.Constraint{{Op: types.ConstraintOpGt, Version: "1.5"}})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "2.0~beta1", pkg.Version)

	_, ok, err = repo.FindPackage(ctx, "libfoo", []types.Constraint{{Op: types.ConstraintOpGt, Version: "3.0"}})
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = repo.FindPackage(ctx, "missing", nil)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestArrayRepositoryFindPackages(t *testing.T) {
	ctx := context.Background()
	repo := newTestArrayRepository(t)

	packages, err := repo.FindPackages(ctx, "libfoo", []types.Constraint{{Op: types.ConstraintOpGte, Version: "1.5"}})
	require.NoError(t, err)
	versions := make([]string, 0, len(packages))
	for _, pkg := range packages {
		versions = append(versions, pkg.Version)
	}
	if diff := cmp.Diff([]string{"2.0~beta1", "2.0"}, versions); diff != "" {
		t.Fatalf("unexpected versions (-want +got):\n%s", diff)
	}
}

func TestArrayRepositoryHasAndRemovePackage(t *testing.T) {
	ctx := context.Background()
	repo := newTestArrayRepository(t)
	target := types.Package{Name: "libfoo", Version: "2.0~beta1", Type: types.DependencyTypeApt}

	has, err := repo.HasPackage(ctx, target)
	require.NoError(t, err)
	assert.True(t, has)

	require.NoError(t, repo.RemovePackage(ctx, target))
	has, err = repo.HasPackage(ctx, target)
	require.NoError(t, err)
	assert.False(t, has)

	// Positions after the removed package must still resolve.
	has, err = repo.HasPackage(ctx, types.Package{Name: "requests", Version: "2.31.0", Type: types.DependencyTypePip})
	require.NoError(t, err)
	assert.True(t, has)
	require.NoError(t, repo.RemovePackage(ctx, types.Package{Name: "requests", Version: "2.31.0", Type: types.DependencyTypePip}))

	require.NoError(t, repo.RemovePackage(ctx, target))
	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestArrayRepositoryLoadPackages(t *testing.T) {
	ctx := context.Background()
	repo := newTestArrayRepository(t)

	t.Run("stable only", func(t *testing.T) {
		result, err := repo.LoadPackages(ctx, types.LoadRequest{
			Packages:              map[string][]types.Constraint{"libfoo": nil, "missing": nil},
			AcceptableStabilities: core.AcceptableStabilities(types.StabilityStable),
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"libfoo"}, result.NamesFound)
		require.Len(t, result.Packages, 2)
		assert.Equal(t, "1.0", result.Packages[0].Version)
		assert.Equal(t, "2.0", result.Packages[1].Version)
	})

	t.Run("stability flag and already loaded", func(t *testing.T) {
		result, err := repo.LoadPackages(ctx, types.LoadRequest{
			Packages:              map[string][]types.Constraint{"libfoo": nil},
			AcceptableStabilities: core.AcceptableStabilities(types.StabilityStable),
			StabilityFlags:        map[string]types.Stability{"libfoo": types.StabilityBeta},
			AlreadyLoaded:         map[string]map[string]struct{}{"libfoo": {"1.0": {}}},
		})
		require.NoError(t, err)
		require.Len(t, result.Packages, 2)
		assert.Equal(t, "2.0~beta1", result.Packages[0].Version)
		assert.Equal(t, "2.0", result.Packages[1].Version)
	})

	t.Run("name found even when no version matches", func(t *testing.T) {
		result, err := repo.LoadPackages(ctx, types.LoadRequest{
			Packages: map[string][]types.Constraint{"libfoo": {{Op: types.ConstraintOpGt, Version: "9.0"}}},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"libfoo"}, result.NamesFound)
		assert.Empty(t, result.Packages)
	})
}

func TestArrayRepositorySearch(t *testing.T) {
	ctx := context.Background()
	repo := newTestArrayRepository(t)

	results, err := repo.Search(ctx, "FOO", types.SearchModeName, "")
	require.NoError(t, err)
	if diff := cmp.Diff([]string{"libfoo", "foo-compat"}, searchNames(results)); diff != "" {
		t.Fatalf("unexpected results (-want +got):\n%s", diff)
	}

	results, err = repo.Search(ctx, "humans", types.SearchModeName, "")
	require.NoError(t, err)
	assert.Empty(t, results)

	results, err = repo.Search(ctx, "http humans", types.SearchModeFulltext, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"requests"}, searchNames(results))

	results, err = repo.Search(ctx, "", types.SearchModeName, types.DependencyTypePip)
	require.NoError(t, err)
	assert.Equal(t, []string{"requests"}, searchNames(results))

	_, err = repo.Search(ctx, "foo", "vendor", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown search mode")
}

func TestArrayRepositoryGetProviders(t *testing.T) {
	repo := newTestArrayRepository(t)
	providers, err := repo.GetProviders(context.Background(), "foo-abi")
	require.NoError(t, err)
	require.Len(t, providers, 2)
	assert.Equal(t, "libfoo", providers[0].Name)
	assert.Equal(t, "foo-compat", providers[1].Name)
}

func TestArrayRepositoryName(t *testing.T) {
	repo, err := NewArrayRepository("")
	require.NoError(t, err)
	assert.Equal(t, "array repo (0 packages)", repo.Name())
	assert.Equal(t, "test", newTestArrayRepository(t).Name())
}

func searchNames(results []types.SearchResult) []string {
	names := make([]string, 0, len(results))
	for _, result := range results {
		names = append(names, result.Name)
	}
	return names
}
