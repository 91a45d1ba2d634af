package providers

import (
	"maps"
	"slices"
	"strings"

	"github.com/alex-user-go/placeomat/internal/apperr"
)

// Params is a flat set of query parameters.
type Params map[string]string

// ParamMap maps a generic query key to one or more provider keys.
// Several provider keys are joined by commas, e.g. "latitude,longitude".
type ParamMap map[string]string

// MapParams translates query into provider parameter names using m.
//
// A key mapped to a single provider key keeps its whole value, commas included.
// A key mapped to N provider keys must carry exactly N comma-separated values;
// each is trimmed and assigned in order. Keys absent from m pass through unchanged
// and win over mapped keys on collision.
func MapParams(query Params, m ParamMap) (Params, error) {
	mapped := make(Params, len(query))
	defaults := make(Params)

	for _, key := range slices.Sorted(maps.Keys(query)) {
		value := query[key]

		target, ok := m[key]
		if !ok || target == "" {
			defaults[key] = value
			continue
		}

		targets := splitTrim(target)
		if len(targets) == 1 {
			mapped[targets[0]] = value
			continue
		}

		values := splitTrim(value)
		if len(values) != len(targets) {
			return nil, apperr.Validationf(
				"%s must have %d comma-separated values (%s), got %d",
				key, len(targets), strings.Join(targets, ","), len(values),
			).WithOp("map params")
		}
		for i, t := range targets {
			mapped[t] = values[i]
		}
	}

	return MergeParams(mapped, defaults), nil
}

// MergeParams combines parameter sets left to right; later sets win on collision.
// The result is always a new map.
func MergeParams(sets ...Params) Params {
	out := make(Params)
	for _, s := range sets {
		maps.Copy(out, s)
	}
	return out
}

func splitTrim(s string) []string {
	parts := strings.Split(s, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}
