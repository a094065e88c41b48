package util

import (
	"golang.org/x/exp/slices"
)

func Contains[T comparable](src []T, dst []T) bool {
	if len(src) == 0 && len(dst) == 0 {
		return true
	}
	for _, v := range dst {
		if !slices.Contains(src, v) {
			return false
		}
	}
	return true
}

func Dedup[T comparable](in []T) []T {
	seen := make(map[T]struct{}, len(in))
	out := make([]T, 0, len(in))
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
