package mcp

import (
	"time"

	"github.com/Aman-CERP/skillsmcp/internal/search"
	"github.com/Aman-CERP/skillsmcp/internal/service"
)

// EmptyInput is the input schema for tools without parameters.
type EmptyInput struct{}

// GetSkillInput is the input schema for get_skill.
type GetSkillInput struct {
	Name string `json:"name" jsonschema:"skill domain name, e.g. forms"`
}

// GetSubSkillInput is the input schema for get_sub_skill.
type GetSubSkillInput struct {
	Domain   string `json:"domain" jsonschema:"parent skill domain, e.g. forms"`
	SubSkill string `json:"sub_skill" jsonschema:"sub-skill name, e.g. validation"`
}

// GetSkillsBatchInput is the input schema for get_skills_batch.
type GetSkillsBatchInput struct {
	Requests []service.BatchRequest `json:"requests" jsonschema:"list of {domain, sub_skill}; omit sub_skill to load SKILL.md"`
}

// SearchInput is the input schema for the three search tools.
type SearchInput struct {
	Query    string   `json:"query" jsonschema:"search term or phrase"`
	Limit    int      `json:"limit,omitempty" jsonschema:"maximum number of results, clamped to 1-100"`
	Domains  []string `json:"domains,omitempty" jsonschema:"only return results from these skill domains"`
	MinScore   float64  `json:"min_score,omitempty" jsonschema:"drop results scoring below this"`
	MatchTypes []string `json:"match_types,omitempty" jsonschema:"only return these match types: name, description, tags, triggers, content"`
}

func (in SearchInput) options() (search.Options, error) {
	types, err := search.ParseMatchTypes(in.MatchTypes)
	if err != nil {
		return search.Options{}, NewInvalidParamsError(err.Error())
	}
	return search.Options{
		Limit:      in.Limit,
		Domains:    in.Domains,
		MinScore:   in.MinScore,
		MatchTypes: types,
	}, nil
}

// RecentSearch is one recent search in get_stats output.
type RecentSearch struct {
	Operation   string `json:"operation"`
	Query       string `json:"query"`
	ResultCount int    `json:"result_count"`
	Timestamp   string `json:"timestamp"`
}

// TermCount is one frequent query term in get_stats output.
type TermCount struct {
	Term  string `json:"term"`
	Count int64  `json:"count"`
}

// StatsOutput is the output schema for get_stats.
type StatsOutput struct {
	UptimeSince         string           `json:"uptime_since"`
	Uptime              string           `json:"uptime"`
	ToolCalls           map[string]int64 `json:"tool_calls"`
	SkillLoads          map[string]int64 `json:"skill_loads"`
	RecentSearches      []RecentSearch   `json:"recent_searches"`
	TopTerms            []TermCount      `json:"top_terms"`
	TotalSearches       int64            `json:"total_searches"`
	TotalSkills         int              `json:"total_skills"`
	ContentFilesIndexed int              `json:"content_files_indexed"`
}

func toStatsOutput(st *service.Stats) *StatsOutput {
	out := &StatsOutput{
		UptimeSince:         st.StartTime.Format(time.RFC3339),
		Uptime:              st.Uptime,
		ToolCalls:           st.ToolCalls,
		SkillLoads:          st.SkillLoads,
		RecentSearches:      make([]RecentSearch, 0, len(st.RecentSearches)),
		TopTerms:            make([]TermCount, 0, len(st.TopTerms)),
		TotalSearches:       st.TotalSearches,
		TotalSkills:         st.TotalSkills,
		ContentFilesIndexed: st.ContentFilesIndexed,
	}
	for _, r := range st.RecentSearches {
		out.RecentSearches = append(out.RecentSearches, RecentSearch{
			Operation:   r.Operation,
			Query:       r.Query,
			ResultCount: r.ResultCount,
			Timestamp:   r.Timestamp.Format(time.RFC3339),
		})
	}
	for _, t := range st.TopTerms {
		out.TopTerms = append(out.TopTerms, TermCount{Term: t.Term, Count: t.Count})
	}
	return out
}
