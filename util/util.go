package util

import (
	"cmp"
	"errors"
	"io/fs"
	"os"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/exp/constraints"
)

// Check whether a file (or dir) with name exists in file system.
// If it encounter an file system access error, return false,err
func FileExists(name string) (bool, error) {
	_, err := os.Stat(name)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return err == nil, err
}

// ParseInt parses s as a base 10 integer that fits in T.
// Empty, malformed or out of range input yields defaultValue.
func ParseInt[T constraints.Integer](s string, defaultValue T) T {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultValue
	}
	var zero T
	if zero-1 > zero { // unsigned
		if i, err := strconv.ParseUint(s, 10, 64); err == nil && uint64(T(i)) == i {
			return T(i)
		}
		return defaultValue
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil && int64(T(i)) == i {
		return T(i)
	}
	return defaultValue
}

// Return filtered ss. The ret is nil if and only if ss is nil.
func FilterSlice[T any](ss []T, test func(T) bool) (ret []T) {
	if ss != nil {
		ret = []T{}
	}
	for _, s := range ss {
		if test(s) {
			ret = append(ret, s)
		}
	}
	return
}

// Map applies a function to each element of a slice and returns a new slice containing the results.
// If input is nil, the output will also be nil.
func Map[T1 any, T2 any](ss []T1, mapper func(T1) T2) (ret []T2) {
	for _, s := range ss {
		ret = append(ret, mapper(s))
	}
	return
}

// Keys returns a sorted slice of all keys in the map.
func Keys[T1 cmp.Ordered, T2 any](m map[T1]T2) []T1 {
	keys := make([]T1, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// UniqueSlice returns ss with duplicates removed, keeping the first occurrence.
func UniqueSlice[T comparable](ss []T) []T {
	seen := make(map[T]struct{}, len(ss))
	ret := make([]T, 0, len(ss))
	for _, s := range ss {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		ret = append(ret, s)
	}
	return ret
}
