package model

import (
	"fmt"
	"strings"
)

// GroupLabelError is returned when a dotted group label contains an empty
// component.
type GroupLabelError struct {
	Label string
}

func (e *GroupLabelError) Error() string {
	return fmt.Sprintf("group component cannot be empty: %s", e.Label)
}

// ParseGroupLabel splits a dotted rack-awareness or buddy label into its
// trimmed, non-empty components. "dc1.rack7" parses to ["dc1", "rack7"].
func ParseGroupLabel(label string) ([]string, error) {
	raw := strings.Split(strings.TrimSpace(label), ".")
	components := make([]string, len(raw))
	for i, c := range raw {
		trimmed := strings.TrimSpace(c)
		if trimmed == "" {
			return nil, &GroupLabelError{Label: label}
		}
		components[i] = trimmed
	}
	return components, nil
}

// ExtensibleGroupTag pairs a host's rack-awareness group with its buddy
// group. The rack group drives fault-domain spreading; the buddy group
// partitions the host set into independent placement universes.
type ExtensibleGroupTag struct {
	RackGroup  string
	BuddyGroup string
}

// siblingOf reports whether two label component slices are siblings: equal
// in every component except the last.
func siblingOf(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a)-1; i++ {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// distance returns the index of the first component at which a and b
// differ, or the shared length if one is a prefix of the other.
func distance(a, b []string) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}
