package adapters

import "pkgsource/internal/ports"

// ReadOnlyRepository exposes only the query surface of a repository, so
// a composite never removes packages from it.
type ReadOnlyRepository struct {
	ports.Repository
}

// ReadOnly wraps repo when it supports removal and returns it unchanged
// otherwise.
func ReadOnly(repo ports.Repository) ports.Repository {
	if _, ok := repo.(ports.Mutable); !ok {
		return repo
	}
	return ReadOnlyRepository{Repository: repo}
}
