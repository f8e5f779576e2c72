package search

import (
	"strings"

	"github.com/Aman-CERP/skillsmcp/internal/skill"
)

// matchMetadata produces at most one domain-level hit per domain and at most
// one hit per sub-skill, in record order.
//
// Rules are checked in a fixed order and the first match wins, even where a
// later rule would score higher: a domain is matched on name, then
// description, then tags; a sub-skill on name, then triggers.
func matchMetadata(skills []skill.Meta, query string) []Result {
	q := strings.ToLower(query)
	var results []Result

	for _, s := range skills {
		if r, ok := matchDomain(s, q); ok {
			results = append(results, r)
		}
		for _, sub := range s.SubSkills {
			if r, ok := matchSubSkill(s.Name, sub, q); ok {
				results = append(results, r)
			}
		}
	}
	return results
}

func matchDomain(s skill.Meta, q string) (Result, bool) {
	r := Result{Domain: s.Name}
	switch {
	case strings.Contains(strings.ToLower(s.Name), q):
		r.Score, r.MatchType = ScoreDomainName, MatchName
	case strings.Contains(strings.ToLower(s.Description), q):
		r.Score, r.MatchType = ScoreDomainDescription, MatchDescription
	case anyContains(s.Tags, q):
		r.Score, r.MatchType = ScoreDomainTags, MatchTags
	default:
		return Result{}, false
	}
	return r, true
}

func matchSubSkill(domain string, sub skill.SubSkill, q string) (Result, bool) {
	r := Result{Domain: domain, SubSkill: sub.Name}
	switch {
	case strings.Contains(strings.ToLower(sub.Name), q):
		r.Score, r.MatchType = ScoreSubSkillName, MatchName
	case anyContains(sub.Triggers, q):
		r.Score, r.MatchType = ScoreSubSkillTriggers, MatchTriggers
	default:
		return Result{}, false
	}
	return r, true
}

func anyContains(values []string, q string) bool {
	for _, v := range values {
		if strings.Contains(strings.ToLower(v), q) {
			return true
		}
	}
	return false
}
