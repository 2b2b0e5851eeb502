package core

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	pep440 "github.com/aquasecurity/go-pep440-version"
	debversion "github.com/knqyf263/go-deb-version"

	"pkgsource/internal/types"
)

// versionScheme orders and matches the versions of one dependency type.
type versionScheme interface {
	compare(a string, b string) (int, error)
	satisfies(version string, constraints []types.Constraint) (bool, error)
}

func schemeFor(depType types.DependencyType) (versionScheme, error) {
	switch depType {
	case types.DependencyTypeApt:
		return debScheme{}, nil
	case types.DependencyTypePip:
		return pep440Scheme{}, nil
	default:
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("unsupported dependency type: %s", depType))
	}
}

// Satisfies reports whether version meets every constraint using the
// version semantics of depType. Constraints without an operator are
// ignored, so an empty list always matches.
func Satisfies(depType types.DependencyType, version string, constraints []types.Constraint) (bool, error) {
	active := make([]types.Constraint, 0, len(constraints))
	for _, constraint := range constraints {
		if constraint.Op != types.ConstraintOpNone {
			active = append(active, constraint)
		}
	}
	if len(active) == 0 {
		return true, nil
	}
	scheme, err := schemeFor(depType)
	if err != nil {
		return false, err
	}
	return scheme.satisfies(version, active)
}

// CompareVersions returns -1, 0, or 1. Unparseable versions compare equal.
func CompareVersions(depType types.DependencyType, a string, b string) int {
	scheme, err := schemeFor(depType)
	if err != nil {
		return 0
	}
	cmp, err := scheme.compare(a, b)
	if err != nil {
		return 0
	}
	return cmp
}

// SortVersions orders versions from lowest to highest in place.
func SortVersions(depType types.DependencyType, versions []string) []string {
	sort.SliceStable(versions, func(i, j int) bool {
		return CompareVersions(depType, versions[i], versions[j]) < 0
	})
	return versions
}

type debScheme struct{}

func (debScheme) parse(value string) (debversion.Version, error) {
	parsed, err := debversion.NewVersion(value)
	if err != nil {
		return debversion.Version{}, invalidVersion(types.DependencyTypeApt, value, err)
	}
	return parsed, nil
}

func (s debScheme) compare(a string, b string) (int, error) {
	left, err := s.parse(a)
	if err != nil {
		return 0, err
	}
	right, err := s.parse(b)
	if err != nil {
		return 0, err
	}
	return left.Compare(right), nil
}

func (s debScheme) satisfies(version string, constraints []types.Constraint) (bool, error) {
	candidate, err := s.parse(version)
	if err != nil {
		return false, err
	}
	for _, constraint := range constraints {
		bound, err := s.parse(constraint.Version)
		if err != nil {
			return false, err
		}
		cmp := candidate.Compare(bound)
		var ok bool
		switch constraint.Op {
		case types.ConstraintOpEq, types.ConstraintOpEq2:
			ok = cmp == 0
		case types.ConstraintOpNe:
			ok = cmp != 0
		case types.ConstraintOpGte:
			ok = cmp >= 0
		case types.ConstraintOpLte:
			ok = cmp <= 0
		case types.ConstraintOpGt:
			ok = cmp > 0
		case types.ConstraintOpLt:
			ok = cmp < 0
		default:
			return false, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("unsupported constraint operator for apt: %s", constraint.Op))
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

type pep440Scheme struct{}

func (pep440Scheme) parse(value string) (pep440.Version, error) {
	parsed, err := pep440.Parse(value)
	if err != nil {
		return pep440.Version{}, invalidVersion(types.DependencyTypePip, value, err)
	}
	return parsed, nil
}

func (s pep440Scheme) compare(a string, b string) (int, error) {
	left, err := s.parse(a)
	if err != nil {
		return 0, err
	}
	right, err := s.parse(b)
	if err != nil {
		return 0, err
	}
	return left.Compare(right), nil
}

// satisfies checks all constraints as one comma-joined PEP 440 specifier
// set.
func (s pep440Scheme) satisfies(version string, constraints []types.Constraint) (bool, error) {
	candidate, err := s.parse(version)
	if err != nil {
		return false, err
	}
	clauses := make([]string, 0, len(constraints))
	for _, constraint := range constraints {
		clauses = append(clauses, pep440Clause(constraint))
	}
	specifiers, err := pep440.NewSpecifiers(strings.Join(clauses, ", "))
	if err != nil {
		return false, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("invalid pip constraint: %s", strings.Join(clauses, ", "))).
			WithCause(err)
	}
	return specifiers.Check(candidate), nil
}

// pep440Clause renders one constraint as a specifier clause, e.g. ">= 1.0".
// A single "=" is PEP 440 "==".
func pep440Clause(constraint types.Constraint) string {
	op := constraint.Op
	if op == types.ConstraintOpEq {
		op = types.ConstraintOpEq2
	}
	return string(op) + " " + strings.TrimSpace(constraint.Version)
}

func invalidVersion(depType types.DependencyType, value string, cause error) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(fmt.Sprintf("invalid %s version: %q", depType, value)).
		WithCause(cause)
}
