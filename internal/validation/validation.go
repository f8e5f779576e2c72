// Package validation checks skill metadata records and whole document stores
// against the metadata schema.
//
// Validation is advisory: every problem is reported as a human-readable
// string and nothing here refuses to load a record.
package validation

import (
	"encoding/json"
	"fmt"
)

var (
	requiredFields         = []string{"name", "description"}
	requiredSubSkillFields = []string{"name", "file"}
)

// ValidateMeta checks a permissively decoded metadata object belonging to the
// domain directory dirName. It returns one message per violation, or nil.
func ValidateMeta(meta map[string]any, dirName string) []string {
	var errs []string

	for _, field := range requiredFields {
		if _, ok := meta[field]; !ok {
			errs = append(errs, fmt.Sprintf("%s: Missing required field '%s'", dirName, field))
		}
	}

	if name, ok := meta["name"]; ok {
		if s, isString := name.(string); !isString || s != dirName {
			errs = append(errs, fmt.Sprintf("%s: 'name' field (%v) doesn't match directory name", dirName, name))
		}
	}

	if tags, ok := meta["tags"]; ok {
		list, isList := tags.([]any)
		switch {
		case !isList:
			errs = append(errs, fmt.Sprintf("%s: 'tags' must be a list", dirName))
		case !allStrings(list):
			errs = append(errs, fmt.Sprintf("%s: All tags must be strings", dirName))
		}
	}

	if subs, ok := meta["sub_skills"]; ok {
		list, isList := subs.([]any)
		if !isList {
			errs = append(errs, fmt.Sprintf("%s: 'sub_skills' must be a list", dirName))
		} else {
			for i, item := range list {
				obj, _ := item.(map[string]any)
				for _, field := range requiredSubSkillFields {
					if _, ok := obj[field]; !ok {
						errs = append(errs, fmt.Sprintf("%s: sub_skill[%d] missing required field '%s'", dirName, i, field))
					}
				}
			}
		}
	}

	return errs
}

// DecodeMeta parses _meta.json bytes into a permissive object so that
// malformed records stay representable for validation.
func DecodeMeta(data []byte) (map[string]any, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("top-level value must be an object, got %s", jsonKind(v))
	}
	return obj, nil
}

func allStrings(items []any) bool {
	for _, item := range items {
		if _, ok := item.(string); !ok {
			return false
		}
	}
	return true
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case []any:
		return "array"
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	default:
		return fmt.Sprintf("%T", v)
	}
}
