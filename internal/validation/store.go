package validation

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/Aman-CERP/skillsmcp/internal/skill"
)

// Report is the outcome of validating a whole store.
type Report struct {
	Valid         bool     `json:"valid"`
	Errors        []string `json:"errors"`
	Warnings      []string `json:"warnings"`
	SkillsChecked int      `json:"skills_checked"`
}

// ValidateStore checks every domain directory under root. In addition to the
// schema rules it verifies that SKILL.md and every declared sub-skill file
// exist, and warns about domains without tags or sub-skills.
func ValidateStore(root string) (*Report, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read skills directory: %w", err)
	}

	report := &Report{
		Errors:   []string{},
		Warnings: []string{},
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		report.SkillsChecked++
		validateDomain(filepath.Join(root, entry.Name()), entry.Name(), report)
	}

	report.Valid = len(report.Errors) == 0
	return report, nil
}

func validateDomain(dir, name string, report *Report) {
	data, err := os.ReadFile(filepath.Join(dir, skill.MetaFile))
	if errors.Is(err, fs.ErrNotExist) {
		report.Errors = append(report.Errors, fmt.Sprintf("%s: Missing %s", name, skill.MetaFile))
		return
	}

	if !exists(filepath.Join(dir, skill.MainFile)) {
		report.Errors = append(report.Errors, fmt.Sprintf("%s: Missing %s", name, skill.MainFile))
	}

	if err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("%s: Failed to read %s: %v", name, skill.MetaFile, err))
		return
	}

	raw, err := DecodeMeta(data)
	if err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("%s: Invalid JSON in %s: %v", name, skill.MetaFile, err))
		return
	}

	report.Errors = append(report.Errors, ValidateMeta(raw, name)...)

	meta := skill.FromMap(raw)
	for _, sub := range meta.SubSkills {
		if sub.File == "" {
			continue
		}
		path, err := skill.ResolveWithin(dir, sub.File)
		if err != nil || !exists(path) {
			report.Errors = append(report.Errors, fmt.Sprintf("%s: Sub-skill file not found: %s", name, sub.File))
		}
	}

	if len(meta.Tags) == 0 {
		report.Warnings = append(report.Warnings, fmt.Sprintf("%s: No tags defined", name))
	}
	if len(meta.SubSkills) == 0 {
		report.Warnings = append(report.Warnings, fmt.Sprintf("%s: No sub-skills defined (standalone skill)", name))
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
