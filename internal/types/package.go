package types

import "fmt"

type Stability string

const (
	StabilityStable Stability = "stable"
	StabilityRC     Stability = "RC"
	StabilityBeta   Stability = "beta"
	StabilityAlpha  Stability = "alpha"
	StabilityDev    Stability = "dev"
)

// StabilityPriority orders stabilities; lower values are more stable.
var StabilityPriority = map[Stability]int{
	StabilityStable: 0,
	StabilityRC:     5,
	StabilityBeta:   10,
	StabilityAlpha:  15,
	StabilityDev:    20,
}

type Package struct {
	Name        string         `yaml:"name"`
	Version     string         `yaml:"version"`
	Type        DependencyType `yaml:"type"`
	Stability   Stability      `yaml:"stability,omitempty"`
	Description string         `yaml:"description,omitempty"`
	Provides    []string       `yaml:"provides,omitempty"`
	Depends     []string       `yaml:"depends,omitempty"`
}

// UniqueName identifies a package across repositories.
func (p Package) UniqueName() string {
	return fmt.Sprintf("%s:%s=%s", p.Type, p.Name, p.Version)
}

func (p Package) String() string {
	return p.UniqueName()
}

type SearchMode string

const (
	SearchModeName     SearchMode = "name"
	SearchModeFulltext SearchMode = "fulltext"
)

type SearchResult struct {
	Name        string
	Description string
	Type        DependencyType
}

type ProviderInfo struct {
	Name        string
	Description string
	Type        DependencyType
}

type LoadRequest struct {
	Packages              map[string][]Constraint
	AcceptableStabilities map[Stability]struct{}
	StabilityFlags        map[string]Stability
	AlreadyLoaded         map[string]map[string]struct{}
}

type LoadResult struct {
	Packages   []Package
	NamesFound []string
}
