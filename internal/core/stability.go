package core

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"pkgsource/internal/types"
)

// preReleasePattern matches a trailing pre-release marker directly after a
// version digit, e.g. 2.0rc1, 1.0~beta2, 1.0.a1.
var preReleasePattern = regexp.MustCompile(`\d[._~-]?(alpha|beta|pre|rc|a|b|c)\.?\d*$`)

// ParseStability maps a user supplied stability name onto a Stability.
func ParseStability(raw string) (types.Stability, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	for stability := range types.StabilityPriority {
		if strings.ToLower(string(stability)) == value {
			return stability, nil
		}
	}
	return "", errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(fmt.Sprintf("unknown stability: %s", raw))
}

// VersionStability derives the stability of a version string from its
// suffix. Versions without a recognised marker are stable.
func VersionStability(version string) types.Stability {
	value := strings.ToLower(strings.TrimSpace(version))
	if strings.Contains(value, "dev") || strings.Contains(value, "snapshot") {
		return types.StabilityDev
	}
	match := preReleasePattern.FindStringSubmatch(value)
	if match == nil {
		return types.StabilityStable
	}
	switch match[1] {
	case "alpha", "a":
		return types.StabilityAlpha
	case "beta", "b":
		return types.StabilityBeta
	default:
		return types.StabilityRC
	}
}

// AcceptableStabilities returns every stability at least as stable as
// minimum.
func AcceptableStabilities(minimum types.Stability) map[types.Stability]struct{} {
	limit, ok := types.StabilityPriority[minimum]
	if !ok {
		limit = types.StabilityPriority[types.StabilityStable]
	}
	out := map[types.Stability]struct{}{}
	for stability, priority := range types.StabilityPriority {
		if priority <= limit {
			out[stability] = struct{}{}
		}
	}
	return out
}

// IsPackageAcceptable applies a per-name stability flag when one exists and
// falls back to the acceptable set otherwise. A nil acceptable set accepts
// every stability.
func IsPackageAcceptable(acceptable map[types.Stability]struct{}, flags map[string]types.Stability, name string, stability types.Stability) bool {
	if stability == "" {
		stability = types.StabilityStable
	}
	if flag, ok := flags[name]; ok {
		return types.StabilityPriority[stability] <= types.StabilityPriority[flag]
	}
	if acceptable == nil {
		return true
	}
	_, ok := acceptable[stability]
	return ok
}
