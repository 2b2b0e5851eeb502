package ports

import (
	"context"

	"pkgsource/internal/types"
)

// Repository is the query surface shared by every package source,
// including the composite that aggregates them.
type Repository interface {
	// Name is a human readable label used for diagnostics only.
	Name() string

	HasPackage(ctx context.Context, pkg types.Package) (bool, error)

	// FindPackage returns the first package named name that satisfies all
	// constraints. Returns (pkg, true, nil) on hit and (zero, false, nil)
	// when absent.
	FindPackage(ctx context.Context, name string, constraints []types.Constraint) (types.Package, bool, error)

	// FindPackages returns every package named name satisfying all
	// constraints. An empty constraint list matches any version.
	FindPackages(ctx context.Context, name string, constraints []types.Constraint) ([]types.Package, error)

	LoadPackages(ctx context.Context, request types.LoadRequest) (types.LoadResult, error)
	Search(ctx context.Context, query string, mode types.SearchMode, pkgType types.DependencyType) ([]types.SearchResult, error)
	GetPackages(ctx context.Context) ([]types.Package, error)
	GetProviders(ctx context.Context, packageName string) ([]types.ProviderInfo, error)
	Count(ctx context.Context) (int, error)
}

// Mutable is implemented by repositories that support package removal.
type Mutable interface {
	Repository
	RemovePackage(ctx context.Context, pkg types.Package) error
}

// Writable repositories additionally accept new packages.
type Writable interface {
	Mutable
	AddPackage(ctx context.Context, pkg types.Package) error
}
