package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pkgsource/internal/types"
)

func TestVersionStability(t *testing.T) {
	tests := []struct {
		version string
		want    types.Stability
	}{
		{"1.0.0", types.StabilityStable},
		{"1.2.3-1ubuntu1", types.StabilityStable},
		{"0.5.0-2build1", types.StabilityStable},
		{"2.0.0rc1", types.StabilityRC},
		{"1.0.0-rc.2", types.StabilityRC},
		{"1.0~beta2", types.StabilityBeta},
		{"1.0b1", types.StabilityBeta},
		{"1.0a1", types.StabilityAlpha},
		{"3.0.0-alpha", types.StabilityAlpha},
		{"1.0.dev3", types.StabilityDev},
		{"1.0~SNAPSHOT", types.StabilityDev},
	}
	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			assert.Equal(t, tt.want, VersionStability(tt.version))
		})
	}
}

func TestParseStability(t *testing.T) {
	got, err := ParseStability("rc")
	require.NoError(t, err)
	assert.Equal(t, types.StabilityRC, got)

	got, err = ParseStability(" Beta ")
	require.NoError(t, err)
	assert.Equal(t, types.StabilityBeta, got)

	_, err = ParseStability("nightly")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown stability")
}

func TestAcceptableStabilities(t *testing.T) {
	got := AcceptableStabilities(types.StabilityBeta)
	assert.Len(t, got, 3)
	assert.Contains(t, got, types.StabilityStable)
	assert.Contains(t, got, types.StabilityRC)
	assert.Contains(t, got, types.StabilityBeta)
	assert.NotContains(t, got, types.StabilityDev)
}

func TestIsPackageAcceptable(t *testing.T) {
	stableOnly := AcceptableStabilities(types.StabilityStable)
	flags := map[string]types.Stability{"libfoo": types.StabilityAlpha}

	assert.True(t, IsPackageAcceptable(stableOnly, nil, "libbar", types.StabilityStable))
	assert.True(t, IsPackageAcceptable(stableOnly, nil, "libbar", ""))
	assert.False(t, IsPackageAcceptable(stableOnly, nil, "libbar", types.StabilityBeta))
	assert.True(t, IsPackageAcceptable(stableOnly, flags, "libfoo", types.StabilityBeta))
	assert.False(t, IsPackageAcceptable(stableOnly, flags, "libfoo", types.StabilityDev))
	assert.True(t, IsPackageAcceptable(nil, nil, "libbar", types.StabilityDev))
}
