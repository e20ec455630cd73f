package querypath

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
)

// segmentRE splits a dot path; backtick-wrapped segments are single
// literal keys, so `a.b` in backticks is one lookup, not two.
var segmentRE = regexp.MustCompile("`[^`]+`|[^.]+")

// ParsePath splits a dot-notation path into lookup segments. Backtick
// wrapping selects a literal key, which is how a child named after a
// reserved XML slot (like "value") stays reachable.
func ParsePath(path string) []string {
	return segmentRE.FindAllString(path, -1)
}

// Resolve walks a normalized tree following the segments. Map segments
// look up keys, list segments must parse as in-range integers.
func Resolve(tree any, segments []string) (any, error) {
	node := tree
	for _, segment := range segments {
		switch n := node.(type) {
		case map[string]any:
			child, ok := n[segment]
			if !ok {
				return nil, fmt.Errorf("key %q not found", segment)
			}
			node = child
		case []any:
			idx, err := strconv.Atoi(segment)
			if err != nil {
				return nil, fmt.Errorf("list index %q is not an integer", segment)
			}
			if idx < 0 || idx >= len(n) {
				return nil, fmt.Errorf("index %d out of range (length %d)", idx, len(n))
			}
			node = n[idx]
		default:
			return nil, fmt.Errorf("cannot descend into scalar at %q", segment)
		}
	}
	return normalizeScalar(node), nil
}

// normalizeScalar unwraps json.Number so integers render without a
// float suffix.
func normalizeScalar(value any) any {
	if n, ok := value.(json.Number); ok {
		if i, err := n.Int64(); err == nil {
			return i
		}
		if f, err := n.Float64(); err == nil {
			return f
		}
		return n.String()
	}
	return value
}
