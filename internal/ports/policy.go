package ports

import "pkgsource/internal/types"

// PackageFilterPort decides whether a package may be exposed.
type PackageFilterPort interface {
	Allows(depType types.DependencyType, name string) bool
}
