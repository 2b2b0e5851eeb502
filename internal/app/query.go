package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"pkgsource/internal/core"
	"pkgsource/internal/types"
)

func (s Service) Show(ctx context.Context, req ShowRequest) (ShowResult, error) {
	name, constraints, err := core.ParseRequirement(req.Requirement)
	if err != nil {
		return ShowResult{}, err
	}
	repo, opened, err := s.compose(ctx, req.Repos)
	if err != nil {
		return ShowResult{}, err
	}
	defer opened.Close()
	if req.All {
		packages, err := repo.FindPackages(ctx, name, constraints)
		if err != nil {
			return ShowResult{}, err
		}
		if len(packages) == 0 {
			return ShowResult{}, packageNotFound(req.Requirement)
		}
		return ShowResult{Packages: packages}, nil
	}
	pkg, ok, err := repo.FindPackage(ctx, name, constraints)
	if err != nil {
		return ShowResult{}, err
	}
	if !ok {
		return ShowResult{}, packageNotFound(req.Requirement)
	}
	return ShowResult{Packages: []types.Package{pkg}}, nil
}

func (s Service) Search(ctx context.Context, req SearchRequest) (SearchResult, error) {
	mode := types.SearchMode(strings.TrimSpace(req.Mode))
	if mode == "" {
		mode = types.SearchModeName
	}
	pkgType, err := parseDependencyType(req.Type)
	if err != nil {
		return SearchResult{}, err
	}
	repo, opened, err := s.compose(ctx, req.Repos)
	if err != nil {
		return SearchResult{}, err
	}
	defer opened.Close()
	results, err := repo.Search(ctx, req.Query, mode, pkgType)
	if err != nil {
		return SearchResult{}, err
	}
	return SearchResult{Results: results}, nil
}

func (s Service) Providers(ctx context.Context, req ProvidersRequest) (ProvidersResult, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return ProvidersResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("package name is required")
	}
	repo, opened, err := s.compose(ctx, req.Repos)
	if err != nil {
		return ProvidersResult{}, err
	}
	defer opened.Close()
	providers, err := repo.GetProviders(ctx, name)
	if err != nil {
		return ProvidersResult{}, err
	}
	return ProvidersResult{Providers: providers}, nil
}

func (s Service) Stats(ctx context.Context, req StatsRequest) (StatsResult, error) {
	repo, opened, err := s.compose(ctx, req.Repos)
	if err != nil {
		return StatsResult{}, err
	}
	defer opened.Close()
	total, err := repo.Count(ctx)
	if err != nil {
		return StatsResult{}, err
	}
	result := StatsResult{Name: repo.Name(), Count: total}
	for _, member := range repo.Repositories() {
		count, err := member.Count(ctx)
		if err != nil {
			return StatsResult{}, err
		}
		result.Members = append(result.Members, MemberStats{Name: member.Name(), Count: count})
	}
	return result, nil
}

func (s Service) Load(ctx context.Context, req LoadRequest) (LoadResult, error) {
	if len(req.Requirements) == 0 {
		return LoadResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("at least one requirement is required")
	}
	request := types.LoadRequest{
		Packages:       map[string][]types.Constraint{},
		StabilityFlags: map[string]types.Stability{},
		AlreadyLoaded:  map[string]map[string]struct{}{},
	}
	var order []string
	for _, raw := range req.Requirements {
		name, constraints, err := core.ParseRequirement(raw)
		if err != nil {
			return LoadResult{}, err
		}
		if _, ok := request.Packages[name]; !ok {
			order = append(order, name)
		}
		request.Packages[name] = append(request.Packages[name], constraints...)
	}
	minimum := types.StabilityStable
	if strings.TrimSpace(req.MinimumStability) != "" {
		parsed, err := core.ParseStability(req.MinimumStability)
		if err != nil {
			return LoadResult{}, err
		}
		minimum = parsed
	}
	request.AcceptableStabilities = core.AcceptableStabilities(minimum)
	for _, raw := range req.StabilityFlags {
		name, value, ok := strings.Cut(raw, "@")
		if !ok || strings.TrimSpace(name) == "" {
			return LoadResult{}, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("invalid stability flag: %s", raw))
		}
		stability, err := core.ParseStability(value)
		if err != nil {
			return LoadResult{}, err
		}
		request.StabilityFlags[strings.TrimSpace(name)] = stability
	}
	for _, raw := range req.Loaded {
		name, version, ok := strings.Cut(raw, "=")
		if !ok || strings.TrimSpace(name) == "" || strings.TrimSpace(version) == "" {
			return LoadResult{}, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("invalid loaded entry: %s", raw))
		}
		name = strings.TrimSpace(name)
		if request.AlreadyLoaded[name] == nil {
			request.AlreadyLoaded[name] = map[string]struct{}{}
		}
		request.AlreadyLoaded[name][strings.TrimSpace(version)] = struct{}{}
	}

	repo, opened, err := s.compose(ctx, req.Repos)
	if err != nil {
		return LoadResult{}, err
	}
	defer opened.Close()
	loaded, err := repo.LoadPackages(ctx, request)
	if err != nil {
		return LoadResult{}, err
	}
	found := map[string]struct{}{}
	for _, name := range loaded.NamesFound {
		found[name] = struct{}{}
	}
	result := LoadResult{Packages: loaded.Packages, NamesFound: loaded.NamesFound}
	for _, name := range order {
		if _, ok := found[name]; !ok {
			result.Missing = append(result.Missing, name)
		}
	}
	return result, nil
}

func parseDependencyType(raw string) (types.DependencyType, error) {
	switch value := types.DependencyType(strings.ToLower(strings.TrimSpace(raw))); value {
	case "", types.DependencyTypeApt, types.DependencyTypePip:
		return value, nil
	default:
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("unknown package type: %s", raw))
	}
}

func packageNotFound(requirement string) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeNotFound).
		WithMsg(fmt.Sprintf("package not found: %s", strings.TrimSpace(requirement)))
}
