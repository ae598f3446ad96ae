// Package snapshot takes deep copies of values handed across package boundaries,
// so that a caller mutating its configuration or environment map afterwards does
// not affect the copy kept by a loader or resolver.
package snapshot

import (
	"github.com/pkg/errors"
	"github.com/tiendc/go-deepcopy"
)

// Copy returns a deep copy of *src. Slices, maps and nested pointers are
// duplicated. A nil src yields (nil, nil).
func Copy[T any](src *T) (*T, error) {
	if src == nil {
		return nil, nil
	}

	var dst T
	if err := deepcopy.Copy(&dst, *src); err != nil {
		return nil, errors.Wrapf(err, "failed to deep copy type %T", src)
	}

	return &dst, nil
}

// MustCopy is Copy for constructors. A copy failure means the type itself cannot
// be copied, which is a programming error, so it panics.
func MustCopy[T any](src *T) *T {
	if src == nil {
		return nil
	}

	result, err := Copy(src)
	if err != nil {
		panic("failed to create snapshot: " + err.Error())
	}

	return result
}

// Map copies a string map. The result is never nil.
func Map(src map[string]string) map[string]string {
	if src == nil {
		return map[string]string{}
	}
	return *MustCopy(&src)
}
