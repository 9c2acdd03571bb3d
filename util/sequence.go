package util

import (
	"cmp"
	"slices"
	"strings"
)

// RemovePrefix strips prefix from text, returning text unchanged when it
// does not start with prefix.
func RemovePrefix(text, prefix string) string {
	return strings.TrimPrefix(text, prefix)
}

// MergeSorted merges sorted lists into one sorted list of the distinct
// items of all of them.
func MergeSorted[T cmp.Ordered](lists ...[]T) []T {
	seen := map[T]struct{}{}
	out := []T{}
	for _, list := range lists {
		for _, item := range list {
			if _, ok := seen[item]; ok {
				continue
			}
			seen[item] = struct{}{}
			out = append(out, item)
		}
	}
	slices.Sort(out)
	return out
}

// RemoveCommonPrefix drops the leading sep-separated components shared
// by all names. At least one component of every name is kept, so
// "a.b.c" and "a.b.d" become "c" and "d" while "a.b" and "a.b.c"
// become "b" and "b.c".
func RemoveCommonPrefix(names []string, sep string) []string {
	if len(names) == 0 {
		return names
	}

	split := make([][]string, len(names))
	minLen := -1
	for i, name := range names {
		split[i] = strings.Split(name, sep)
		if minLen < 0 || len(split[i]) < minLen {
			minLen = len(split[i])
		}
	}

	prefixLen := 0
	for prefixLen+1 < minLen && sameComponent(split, prefixLen) {
		prefixLen++
	}

	out := make([]string, len(names))
	for i, components := range split {
		out[i] = strings.Join(components[prefixLen:], sep)
	}
	return out
}

func sameComponent(split [][]string, index int) bool {
	for _, components := range split[1:] {
		if components[index] != split[0][index] {
			return false
		}
	}
	return true
}
