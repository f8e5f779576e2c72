package preflight

import (
	"fmt"
	"os"
	"strings"

	"github.com/Aman-CERP/skillsmcp/internal/validation"
)

// CheckSkillsDir checks that the skill store directory exists.
func (c *Checker) CheckSkillsDir(dir string) CheckResult {
	result := CheckResult{
		Name:     "skills_dir",
		Required: true,
		Details:  dir,
	}

	info, err := os.Stat(dir)
	switch {
	case err != nil:
		result.Status = StatusFail
		result.Message = fmt.Sprintf("not found: %s", dir)
	case !info.IsDir():
		result.Status = StatusFail
		result.Message = fmt.Sprintf("not a directory: %s", dir)
	default:
		result.Status = StatusPass
		result.Message = dir
	}
	return result
}

// CheckSkillStore validates every domain. Validation errors are warnings:
// the server still serves the domains that load.
func (c *Checker) CheckSkillStore(dir string) CheckResult {
	result := CheckResult{
		Name:     "skill_store",
		Required: false,
	}

	report, err := validation.ValidateStore(dir)
	if err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("failed to validate: %v", err)
		return result
	}

	switch {
	case report.SkillsChecked == 0:
		result.Status = StatusWarn
		result.Message = "no skill domains found"
	case !report.Valid:
		result.Status = StatusWarn
		result.Message = fmt.Sprintf("%d domain(s), %d error(s)", report.SkillsChecked, len(report.Errors))
		result.Details = strings.Join(report.Errors, "; ")
	default:
		result.Status = StatusPass
		result.Message = fmt.Sprintf("%d domain(s), %d warning(s)", report.SkillsChecked, len(report.Warnings))
	}
	return result
}
