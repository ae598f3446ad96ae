// Package expansion expands ${...} references in the string fields of
// configuration structs.
package expansion

import (
	"os"
	"reflect"
	"strings"

	"github.com/pkg/errors"
)

// ResolveFunc resolves the text between ${ and }, e.g. "vault:HF_TOKEN".
type ResolveFunc func(reference string) (string, error)

// ExpandVariables walks toExpand, which must be a pointer, and expands every
// settable string it reaches through structs, pointers, slices and maps. String
// values are trimmed. The first resolution error aborts the walk.
func ExpandVariables(toExpand any, resolve ResolveFunc) error {
	if toExpand == nil {
		return nil
	}

	v := reflect.ValueOf(toExpand)
	if v.Kind() != reflect.Ptr {
		return errors.Errorf("expansion target must be a pointer, got %T", toExpand)
	}
	if v.IsNil() {
		return nil
	}
	return expandValue(v.Elem(), resolve)
}

func expandValue(val reflect.Value, resolve ResolveFunc) error {
	switch val.Kind() {
	case reflect.String:
		if !val.CanSet() {
			return nil
		}
		var expandErr error
		expanded := os.Expand(strings.TrimSpace(val.String()), func(ref string) string {
			if expandErr != nil {
				return ""
			}
			res, err := resolve(ref)
			if err != nil {
				expandErr = errors.Wrapf(err, "error resolving property %q", ref)
				return ""
			}
			return res
		})
		if expandErr != nil {
			return expandErr
		}
		val.SetString(expanded)

	case reflect.Struct:
		for i := 0; i < val.NumField(); i++ {
			if err := expandValue(val.Field(i), resolve); err != nil {
				return err
			}
		}

	case reflect.Ptr:
		if !val.IsNil() {
			return expandValue(val.Elem(), resolve)
		}

	case reflect.Slice:
		for j := 0; j < val.Len(); j++ {
			if err := expandValue(val.Index(j), resolve); err != nil {
				return err
			}
		}

	case reflect.Map:
		for _, key := range val.MapKeys() {
			// map elements are not addressable
			newVal := reflect.New(val.Type().Elem()).Elem()
			newVal.Set(val.MapIndex(key))
			if err := expandValue(newVal, resolve); err != nil {
				return err
			}
			val.SetMapIndex(key, newVal)
		}

	default:
	}

	return nil
}
