// Package errors provides structured error handling for skillsmcp.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: Not found (skill, sub-skill, file)
//   - 3XX: IO errors (read, decode)
//   - 4XX: Invalid caller input
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryNotFound indicates a skill, sub-skill or file is absent.
	CategoryNotFound Category = "NOT_FOUND"
	// CategoryIO indicates file read or decode failures.
	CategoryIO Category = "IO"
	// CategoryValidation indicates invalid caller input.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigInvalid = "ERR_101_CONFIG_INVALID"

	// Not found errors (200-299)
	ErrCodeSkillNotFound    = "ERR_201_SKILL_NOT_FOUND"
	ErrCodeSubSkillNotFound = "ERR_202_SUB_SKILL_NOT_FOUND"
	ErrCodeFileNotFound     = "ERR_203_FILE_NOT_FOUND"

	// IO errors (300-399)
	ErrCodeFileRead = "ERR_301_FILE_READ"

	// Validation errors (400-499)
	ErrCodeInvalidInput = "ERR_401_INVALID_INPUT"
	ErrCodeInvalidName  = "ERR_402_INVALID_NAME"
	ErrCodeQueryEmpty   = "ERR_403_QUERY_EMPTY"
	ErrCodeQueryTooLong = "ERR_404_QUERY_TOO_LONG"
	ErrCodeTooManyTerms = "ERR_405_TOO_MANY_TERMS"
	ErrCodeInvalidPath  = "ERR_406_INVALID_PATH"

	// Internal errors (500-599)
	ErrCodeInternal = "ERR_501_INTERNAL"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	// Numeric portion, e.g. "201" from "ERR_201_SKILL_NOT_FOUND"
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryNotFound
	case '3':
		return CategoryIO
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}
