package output

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Aman-CERP/skillsmcp/internal/search"
	"github.com/Aman-CERP/skillsmcp/internal/service"
	"github.com/Aman-CERP/skillsmcp/internal/validation"
)

// SkillList prints every domain with its description and sub-skills.
func (w *Writer) SkillList(list *service.ListResult) {
	if len(list.Skills) == 0 {
		w.Warning("No skills found")
		return
	}

	w.Header(fmt.Sprintf("Skills (%d)", len(list.Skills)))
	for _, s := range list.Skills {
		_, _ = fmt.Fprintf(w.out, "\n  %s\n", w.styles.Name.Render(s.Name))
		if s.Description != "" {
			_, _ = fmt.Fprintf(w.out, "    %s\n", s.Description)
		}
		if len(s.SubSkills) > 0 {
			_, _ = fmt.Fprintf(w.out, "    %s %s\n",
				w.styles.Label.Render("sub-skills:"), strings.Join(s.SubSkills, ", "))
		}
	}
}

// SearchResults prints a ranked result list.
func (w *Writer) SearchResults(resp *search.Response) {
	if len(resp.Results) == 0 {
		w.Warningf("No results for %q", resp.Query)
		return
	}

	header := fmt.Sprintf("%d result(s) for %q", len(resp.Results), resp.Query)
	if resp.Truncated {
		header += fmt.Sprintf(" (showing %d of %d)", len(resp.Results), resp.TotalMatches)
	}
	w.Header(header)

	for i, r := range resp.Results {
		target := r.Domain
		if r.SubSkill != "" {
			target += "/" + r.SubSkill
		}
		_, _ = fmt.Fprintf(w.out, "\n%2d. %s %s %s\n", i+1,
			w.styles.Name.Render(target),
			w.styles.Score.Render(fmt.Sprintf("%.3f", r.Score)),
			w.styles.Label.Render("["+string(r.MatchType)+"]"))
		if r.File != "" {
			_, _ = fmt.Fprintf(w.out, "    %s\n", w.styles.Dim.Render(r.File))
		}
		if r.Snippet != "" {
			_, _ = fmt.Fprintf(w.out, "    %s\n", strings.ReplaceAll(r.Snippet, "\n", " "))
		}
	}
}

// Validation prints a validation report.
func (w *Writer) Validation(report *validation.Report) {
	for _, e := range report.Errors {
		w.Error(e)
	}
	for _, warn := range report.Warnings {
		w.Warning(warn)
	}
	if report.Valid {
		w.Successf("%d skill(s) checked, no errors", report.SkillsChecked)
		return
	}
	w.Errorf("%d skill(s) checked, %d error(s)", report.SkillsChecked, len(report.Errors))
}

// Reload prints the outcome of an index rebuild.
func (w *Writer) Reload(res *service.ReloadResult) {
	w.Successf("Indexed %d skill(s), %d content file(s)", res.SkillCount, res.ContentFilesIndexed)
	for _, e := range res.ValidationErrors {
		w.Warning(e)
	}
}

// Stats prints usage statistics.
func (w *Writer) Stats(st *service.Stats) {
	w.Header("Index")
	w.kv("skills", fmt.Sprint(st.TotalSkills))
	w.kv("content files", fmt.Sprint(st.ContentFilesIndexed))
	w.kv("uptime", st.Uptime)

	w.Newline()
	w.Header("Tool calls")
	w.counts(st.ToolCalls)

	w.Newline()
	w.Header("Skill loads")
	w.counts(st.SkillLoads)

	w.Newline()
	w.Header(fmt.Sprintf("Recent searches (%d total)", st.TotalSearches))
	if len(st.RecentSearches) == 0 {
		_, _ = fmt.Fprintf(w.out, "  %s\n", w.styles.Dim.Render("none"))
	}
	for _, r := range st.RecentSearches {
		_, _ = fmt.Fprintf(w.out, "  %s %-15s %q %s\n",
			w.styles.Dim.Render(r.Timestamp.Format("15:04:05")),
			r.Operation, r.Query,
			w.styles.Label.Render(fmt.Sprintf("(%d)", r.ResultCount)))
	}

	if len(st.TopTerms) > 0 {
		w.Newline()
		w.Header("Top terms")
		for _, t := range st.TopTerms {
			w.kv(t.Term, fmt.Sprint(t.Count))
		}
	}
}

func (w *Writer) kv(key, value string) {
	_, _ = fmt.Fprintf(w.out, "  %s %s\n", w.styles.Label.Render(fmt.Sprintf("%-16s", key+":")), value)
}

func (w *Writer) counts(m map[string]int64) {
	if len(m) == 0 {
		_, _ = fmt.Fprintf(w.out, "  %s\n", w.styles.Dim.Render("none"))
		return
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		w.kv(k, fmt.Sprint(m[k]))
	}
}
