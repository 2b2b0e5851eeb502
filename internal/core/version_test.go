package core

import (
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pkgsource/internal/types"
)

func constraints(op types.ConstraintOp, version string, more ...types.Constraint) []types.Constraint {
	return append([]types.Constraint{{Op: op, Version: version}}, more...)
}

func TestSatisfies(t *testing.T) {
	tests := []struct {
		name        string
		depType     types.DependencyType
		version     string
		constraints []types.Constraint
		want        bool
	}{
		{"apt no constraints", types.DependencyTypeApt, "1.0.0", nil, true},
		{"apt operator-less constraint ignored", types.DependencyTypeApt, "1.0.0", constraints(types.ConstraintOpNone, ""), true},
		{"apt gte boundary", types.DependencyTypeApt, "1.0.0", constraints(types.ConstraintOpGte, "1.0.0"), true},
		{"apt gte miss", types.DependencyTypeApt, "0.9.0", constraints(types.ConstraintOpGte, "1.0.0"), false},
		{"apt lte hit", types.DependencyTypeApt, "1.5.0", constraints(types.ConstraintOpLte, "1.5.0"), true},
		{"apt lt boundary", types.DependencyTypeApt, "2.0.0", constraints(types.ConstraintOpLt, "2.0.0"), false},
		{"apt range", types.DependencyTypeApt, "1.5.0", constraints(types.ConstraintOpGte, "1.0", types.Constraint{Op: types.ConstraintOpLt, Version: "2.0"}), true},
		{"apt single equals", types.DependencyTypeApt, "1.0.0", constraints(types.ConstraintOpEq, "1.0.0"), true},
		{"apt not equal", types.DependencyTypeApt, "1.0.0", constraints(types.ConstraintOpNe, "1.0.0"), false},
		{"apt tilde sorts before release", types.DependencyTypeApt, "2.0~rc1", constraints(types.ConstraintOpGte, "2.0"), false},
		{"apt epoch", types.DependencyTypeApt, "1:0.9", constraints(types.ConstraintOpGt, "2.0"), true},
		{"pip gte", types.DependencyTypePip, "1.26.0", constraints(types.ConstraintOpGte, "1.20.0"), true},
		{"pip single equals", types.DependencyTypePip, "2.3.0", constraints(types.ConstraintOpEq, "2.3.0"), true},
		{"pip exact miss", types.DependencyTypePip, "2.4.0", constraints(types.ConstraintOpEq2, "2.3.0"), false},
		{"pip compatible", types.DependencyTypePip, "2.3.5", constraints(types.ConstraintOpCompat, "2.3.0"), true},
		{"pip range miss", types.DependencyTypePip, "2.0.0", constraints(types.ConstraintOpGte, "1.0", types.Constraint{Op: types.ConstraintOpLt, Version: "2.0"}), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Satisfies(tt.depType, tt.version, tt.constraints)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSatisfiesErrors(t *testing.T) {
	tests := []struct {
		name        string
		depType     types.DependencyType
		version     string
		constraints []types.Constraint
		message     string
	}{
		{"compatible operator on apt", types.DependencyTypeApt, "1.0", constraints(types.ConstraintOpCompat, "1.0"), "unsupported constraint operator"},
		{"unknown type", "rpm", "1.0", constraints(types.ConstraintOpGte, "1.0"), "unsupported dependency type"},
		{"invalid apt version", types.DependencyTypeApt, "not-a-version!!!", constraints(types.ConstraintOpGte, "1.0"), "invalid apt version"},
		{"invalid pip version", types.DependencyTypePip, "not-a-pep440!!!", constraints(types.ConstraintOpGte, "1.0"), "invalid pip version"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Satisfies(tt.depType, tt.version, tt.constraints)
			require.Error(t, err)
			assert.Equal(t, errbuilder.CodeInvalidArgument, errbuilder.CodeOf(err))
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestCompareVersions(t *testing.T) {
	assert.Equal(t, -1, CompareVersions(types.DependencyTypeApt, "1.0", "1.0.1"))
	assert.Equal(t, 1, CompareVersions(types.DependencyTypePip, "2.0.0", "2.0.0rc1"))
	assert.Equal(t, 0, CompareVersions(types.DependencyTypeApt, "not-valid!!!", "1.0"))
	assert.Equal(t, 0, CompareVersions("rpm", "1.0", "2.0"))
}

func TestSortVersions(t *testing.T) {
	got := SortVersions(types.DependencyTypeApt, []string{"2.0", "1.0~beta1", "1.0", "1:0.1"})
	assert.Equal(t, []string{"1.0~beta1", "1.0", "2.0", "1:0.1"}, got)

	got = SortVersions(types.DependencyTypePip, []string{"2.31.0", "2.28.0", "2.31.0rc1"})
	assert.Equal(t, []string{"2.28.0", "2.31.0rc1", "2.31.0"}, got)
}
