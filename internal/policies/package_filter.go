package policies

import (
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"pkgsource/internal/types"
)

// PackageFilter decides which packages a repository may expose. Patterns
// take the form [type:]name, where name is exact, a prefix ending in "*",
// or "*" alone.
type PackageFilter struct {
	Only    []string
	Exclude []string
	only    matcher
	exclude matcher
}

func NewPackageFilter(only []string, exclude []string) (PackageFilter, error) {
	filter := PackageFilter{Only: only, Exclude: exclude}
	var err error
	if filter.only, err = compile(only); err != nil {
		return PackageFilter{}, err
	}
	if filter.exclude, err = compile(exclude); err != nil {
		return PackageFilter{}, err
	}
	return filter, nil
}

// Allows reports whether a package passes the filter. Exclusions win over
// the only list; an empty only list admits everything.
func (f PackageFilter) Allows(depType types.DependencyType, name string) bool {
	if f.exclude.matches(depType, name) {
		return false
	}
	if f.only.empty() {
		return true
	}
	return f.only.matches(depType, name)
}

func (f PackageFilter) Empty() bool {
	return f.only.empty() && f.exclude.empty()
}

type matcher struct {
	exactByType    map[types.DependencyType]map[string]struct{}
	exactAny       map[string]struct{}
	prefixByType   map[types.DependencyType][]string
	prefixAny      []string
	wildcardByType map[types.DependencyType]struct{}
	wildcardAny    bool
}

func (m matcher) empty() bool {
	return len(m.exactByType) == 0 && len(m.exactAny) == 0 &&
		len(m.prefixByType) == 0 && len(m.prefixAny) == 0 &&
		len(m.wildcardByType) == 0 && !m.wildcardAny
}

func (m matcher) matches(depType types.DependencyType, name string) bool {
	if m.wildcardAny {
		return true
	}
	if _, ok := m.wildcardByType[depType]; ok {
		return true
	}
	if _, ok := m.exactByType[depType][name]; ok {
		return true
	}
	if _, ok := m.exactAny[name]; ok {
		return true
	}
	for _, prefix := range m.prefixByType[depType] {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	for _, prefix := range m.prefixAny {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

type parsedPattern struct {
	depType *types.DependencyType
	kind    patternKind
	name    string
}

type patternKind int

const (
	patternExact patternKind = iota
	patternPrefix
	patternWildcard
	patternInvalid
)

func compile(patterns []string) (matcher, error) {
	m := matcher{
		exactByType:    map[types.DependencyType]map[string]struct{}{},
		exactAny:       map[string]struct{}{},
		prefixByType:   map[types.DependencyType][]string{},
		wildcardByType: map[types.DependencyType]struct{}{},
	}
	for _, pattern := range patterns {
		parsed, ok := parsePattern(pattern)
		if !ok {
			return matcher{}, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("invalid package pattern: %s", pattern))
		}
		switch parsed.kind {
		case patternWildcard:
			if parsed.depType == nil {
				m.wildcardAny = true
			} else {
				m.wildcardByType[*parsed.depType] = struct{}{}
			}
		case patternExact:
			if parsed.depType == nil {
				m.exactAny[parsed.name] = struct{}{}
				continue
			}
			if m.exactByType[*parsed.depType] == nil {
				m.exactByType[*parsed.depType] = map[string]struct{}{}
			}
			m.exactByType[*parsed.depType][parsed.name] = struct{}{}
		case patternPrefix:
			if parsed.depType == nil {
				m.prefixAny = append(m.prefixAny, parsed.name)
			} else {
				m.prefixByType[*parsed.depType] = append(m.prefixByType[*parsed.depType], parsed.name)
			}
		}
	}
	return m, nil
}

func parsePattern(pattern string) (parsedPattern, bool) {
	trimmed := strings.TrimSpace(pattern)
	if trimmed == "" {
		return parsedPattern{kind: patternInvalid}, false
	}
	if trimmed == "*" {
		return parsedPattern{kind: patternWildcard}, true
	}
	parts := strings.Split(trimmed, ":")
	if len(parts) == 2 {
		depType, ok := parseDepType(parts[0])
		if !ok {
			return parsedPattern{kind: patternInvalid}, false
		}
		name, kind := parseNamePattern(parts[1])
		if kind == patternInvalid {
			return parsedPattern{kind: patternInvalid}, false
		}
		return parsedPattern{depType: &depType, kind: kind, name: name}, true
	}
	if len(parts) > 2 {
		return parsedPattern{kind: patternInvalid}, false
	}
	name, kind := parseNamePattern(trimmed)
	if kind == patternInvalid {
		return parsedPattern{kind: patternInvalid}, false
	}
	return parsedPattern{kind: kind, name: name}, true
}

func parseDepType(token string) (types.DependencyType, bool) {
	switch strings.ToLower(strings.TrimSpace(token)) {
	case "apt":
		return types.DependencyTypeApt, true
	case "pip", "python":
		return types.DependencyTypePip, true
	default:
		return "", false
	}
}

func parseNamePattern(value string) (string, patternKind) {
	pattern := strings.TrimSpace(value)
	if pattern == "" {
		return "", patternInvalid
	}
	if pattern == "*" {
		return "", patternWildcard
	}
	if strings.HasSuffix(pattern, "*") {
		return strings.TrimSuffix(pattern, "*"), patternPrefix
	}
	return pattern, patternExact
}
