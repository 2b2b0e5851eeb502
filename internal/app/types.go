package app

import "pkgsource/internal/types"

type ShowRequest struct {
	Repos       []string
	Requirement string
	All         bool
}

type ShowResult struct {
	Packages []types.Package
}

type SearchRequest struct {
	Repos []string
	Query string
	Mode  string
	Type  string
}

type SearchResult struct {
	Results []types.SearchResult
}

type ProvidersRequest struct {
	Repos []string
	Name  string
}

type ProvidersResult struct {
	Providers []types.ProviderInfo
}

type StatsRequest struct {
	Repos []string
}

type MemberStats struct {
	Name  string
	Count int
}

type StatsResult struct {
	Name    string
	Members []MemberStats
	Count   int
}

type LoadRequest struct {
	Repos            []string
	Requirements     []string
	MinimumStability string
	// StabilityFlags entries have the form name@stability.
	StabilityFlags []string
	// Loaded entries have the form name=version and are excluded from the
	// result.
	Loaded []string
}

type LoadResult struct {
	Packages   []types.Package
	NamesFound []string
	Missing    []string
}

type RemoveRequest struct {
	Repos       []string
	ReadOnly    []string
	Requirement string
	Output      string
}

type RemoveResult struct {
	Removed        []types.Package
	MembersMutated int
	Remaining      int
	OutputPath     string
}

type ExportRequest struct {
	Repos  []string
	Name   string
	Output string
}

type ExportResult struct {
	OutputPath string
	Count      int
}
