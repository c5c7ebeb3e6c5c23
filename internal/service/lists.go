package service

import (
	"sort"
	"strings"

	"github.com/go-faster/errors"
)

// SortDefaultFirst returns a copy of lists with the default list first.
// The relative order of the other lists is preserved.
func SortDefaultFirst(lists []TaskList) []TaskList {
	out := make([]TaskList, len(lists))
	copy(out, lists)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].IsDefault() && !out[j].IsDefault()
	})
	return out
}

// DefaultList returns the default list, if the provider reported one.
func DefaultList(lists []TaskList) (TaskList, bool) {
	for _, l := range lists {
		if l.IsDefault() {
			return l, true
		}
	}
	return TaskList{}, false
}

// ResolveList finds a list by exact ID, or by display name
// (case-insensitive, trimmed).
func ResolveList(lists []TaskList, ref string) (TaskList, error) {
	for _, l := range lists {
		if l.ID == ref {
			return l, nil
		}
	}

	name := strings.ToLower(strings.TrimSpace(ref))
	var matches []TaskList
	for _, l := range lists {
		if strings.ToLower(strings.TrimSpace(l.DisplayName)) == name {
			matches = append(matches, l)
		}
	}

	switch len(matches) {
	case 0:
		return TaskList{}, errors.Wrap(ErrListNotFound, ref)
	case 1:
		return matches[0], nil
	default:
		return TaskList{}, errors.Wrap(ErrListAmbiguous, ref)
	}
}
