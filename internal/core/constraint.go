package core

import (
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"pkgsource/internal/types"
)

// opTokens is the ordered list of constraint operators tried during
// parsing. Longer tokens must precede shorter ones to avoid false matches
// (e.g. ">=" before ">").
var opTokens = []types.ConstraintOp{
	types.ConstraintOpGte,
	types.ConstraintOpLte,
	types.ConstraintOpCompat,
	types.ConstraintOpNe,
	types.ConstraintOpEq2,
	types.ConstraintOpEq,
	types.ConstraintOpGt,
	types.ConstraintOpLt,
}

// ParseConstraint splits a raw "name>=version" string into a Constraint.
// When no operator is found the constraint is treated as a bare name
// reference with ConstraintOpNone.
func ParseConstraint(raw string, source string) (types.Constraint, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return types.Constraint{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("empty constraint")
	}
	for _, op := range opTokens {
		if strings.Contains(raw, string(op)) {
			parts := strings.SplitN(raw, string(op), 2)
			name := strings.TrimSpace(parts[0])
			version := strings.TrimSpace(parts[1])
			if name == "" || version == "" {
				return types.Constraint{}, errbuilder.New().
					WithCode(errbuilder.CodeInvalidArgument).
					WithMsg(fmt.Sprintf("invalid constraint: %s", raw))
			}
			return types.Constraint{
				Name:    name,
				Op:      op,
				Version: version,
				Source:  source,
			}, nil
		}
	}
	return types.Constraint{
		Name:    raw,
		Op:      types.ConstraintOpNone,
		Version: "",
		Source:  source,
	}, nil
}

// ParseRequirement splits "name>=1.0,<2.0" into the package name and the
// conjunction of its constraints. A bare name yields no constraints.
func ParseRequirement(raw string) (string, []types.Constraint, error) {
	raw = strings.TrimSpace(raw)
	idx := strings.IndexAny(raw, "<>=!~")
	if idx < 0 {
		if raw == "" {
			return "", nil, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("empty requirement")
		}
		return raw, nil, nil
	}
	name := strings.TrimSpace(raw[:idx])
	if name == "" {
		return "", nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("invalid requirement: %s", raw))
	}
	var constraints []types.Constraint
	for _, part := range strings.Split(raw[idx:], ",") {
		constraint, err := ParseConstraint(name+strings.TrimSpace(part), raw)
		if err != nil {
			return "", nil, err
		}
		if constraint.Op == types.ConstraintOpNone {
			return "", nil, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("invalid requirement: %s", raw))
		}
		constraints = append(constraints, constraint)
	}
	return name, constraints, nil
}
