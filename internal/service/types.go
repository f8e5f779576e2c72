package service

import (
	"github.com/Aman-CERP/skillsmcp/internal/telemetry"
)

// SkillSummary is one entry of List.
type SkillSummary struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	SubSkills   []string `json:"sub_skills"`
}

// ListResult is returned by List.
type ListResult struct {
	Skills []SkillSummary `json:"skills"`
}

// SkillDoc is a domain's primary document.
type SkillDoc struct {
	Name          string   `json:"name"`
	Content       string   `json:"content"`
	SubSkills     []string `json:"sub_skills"`
	HasReferences bool     `json:"has_references"`
}

// SubSkillDoc is one sub-skill document.
type SubSkillDoc struct {
	Domain   string `json:"domain"`
	SubSkill string `json:"sub_skill"`
	Content  string `json:"content"`
}

// BatchRequest names a domain, and optionally one of its sub-skills.
type BatchRequest struct {
	Domain   string `json:"domain"`
	SubSkill string `json:"sub_skill,omitempty"`
}

// BatchItem carries either a SkillDoc or a SubSkillDoc shape, or Error.
type BatchItem struct {
	Name          string   `json:"name,omitempty"`
	Domain        string   `json:"domain,omitempty"`
	SubSkill      string   `json:"sub_skill,omitempty"`
	Content       string   `json:"content,omitempty"`
	SubSkills     []string `json:"sub_skills,omitempty"`
	HasReferences bool     `json:"has_references,omitempty"`
	Error         string   `json:"error,omitempty"`
}

// BatchResult is returned by GetBatch. Results follow request order.
type BatchResult struct {
	Results []BatchItem `json:"results"`
}

// ReloadResult is returned by Reload.
type ReloadResult struct {
	Status              string   `json:"status"`
	SkillCount          int      `json:"skill_count"`
	ContentFilesIndexed int      `json:"content_files_indexed"`
	ValidationErrors    []string `json:"validation_errors"`
}

// Stats is the usage snapshot plus index sizes.
type Stats struct {
	*telemetry.Snapshot
	Uptime              string `json:"uptime"`
	TotalSkills         int    `json:"total_skills"`
	ContentFilesIndexed int    `json:"content_files_indexed"`
}
