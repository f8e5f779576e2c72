// Package skill defines the on-disk layout and in-memory records of a skill
// document store.
//
// A store is a directory whose immediate subdirectories are domains:
//
//	skills/
//	  forms/
//	    SKILL.md          primary document
//	    _meta.json        metadata record
//	    references/*.md   sub-documents
//	    scripts/*.md      script sub-documents
package skill

import "strings"

// Fixed names inside a domain directory.
const (
	MainFile      = "SKILL.md"
	MetaFile      = "_meta.json"
	ReferencesDir = "references"
	ScriptsDir    = "scripts"
)

// SubSkill describes a named sub-document belonging to a domain.
type SubSkill struct {
	Name     string   `json:"name"`
	File     string   `json:"file"`
	Triggers []string `json:"triggers,omitempty"`
}

// Meta is a domain metadata record as loaded from _meta.json.
// Fields that were malformed on disk are left at their zero value.
type Meta struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Tags        []string   `json:"tags,omitempty"`
	SubSkills   []SubSkill `json:"sub_skills,omitempty"`
	Source      string     `json:"source,omitempty"`
}

// SubSkillNames returns the sub-skill names in declaration order.
func (m Meta) SubSkillNames() []string {
	names := make([]string, 0, len(m.SubSkills))
	for _, s := range m.SubSkills {
		names = append(names, s.Name)
	}
	return names
}

// FindSubSkill returns the sub-skill with the given name.
func (m Meta) FindSubSkill(name string) (SubSkill, bool) {
	for _, s := range m.SubSkills {
		if s.Name == name {
			return s, true
		}
	}
	return SubSkill{}, false
}

// ContentEntry is one indexed document body.
type ContentEntry struct {
	// Domain is the owning domain name.
	Domain string `json:"domain"`

	// SubSkill is the derived sub-skill label, empty for the primary document.
	SubSkill string `json:"sub_skill,omitempty"`

	// File is the path relative to the domain directory, slash separated.
	File string `json:"file"`

	// Content is the lower-cased document text.
	Content string `json:"-"`
}

// Key returns the content-index key "<domain>:<file>".
func (e ContentEntry) Key() string {
	return ContentKey(e.Domain, e.File)
}

// ContentKey builds a content-index key.
func ContentKey(domain, file string) string {
	return domain + ":" + file
}

// SubSkillLabel derives a sub-skill label from a sub-document file name.
// Script documents often embed their source extension ("gen.ts.md"), which
// is stripped along with the markdown extension.
func SubSkillLabel(folder, filename string) string {
	stem := strings.TrimSuffix(filename, ".md")
	if folder == ScriptsDir {
		stem = strings.ReplaceAll(stem, ".js", "")
		stem = strings.ReplaceAll(stem, ".ts", "")
	}
	return stem
}

// FromMap converts a permissively decoded metadata object into a Meta.
// Values of the wrong type are ignored rather than rejected; schema problems
// are reported separately by the validation package.
func FromMap(raw map[string]any) Meta {
	m := Meta{
		Name:        stringField(raw, "name"),
		Description: stringField(raw, "description"),
		Source:      stringField(raw, "source"),
		Tags:        stringList(raw["tags"]),
	}

	subs, _ := raw["sub_skills"].([]any)
	for _, item := range subs {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		m.SubSkills = append(m.SubSkills, SubSkill{
			Name:     stringField(obj, "name"),
			File:     stringField(obj, "file"),
			Triggers: stringList(obj["triggers"]),
		})
	}
	return m
}

func stringField(obj map[string]any, key string) string {
	s, _ := obj[key].(string)
	return s
}

func stringList(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
