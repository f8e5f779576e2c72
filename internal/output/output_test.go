package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/skillsmcp/internal/search"
	"github.com/Aman-CERP/skillsmcp/internal/service"
	"github.com/Aman-CERP/skillsmcp/internal/telemetry"
	"github.com/Aman-CERP/skillsmcp/internal/validation"
)

func TestWriter_Status_PrintsIconAndMessage(t *testing.T) {
	// Given: a writer with a buffer
	buf := &bytes.Buffer{}
	w := New(buf)

	// When: printing a status message
	w.Status("🔍", "Loading skills...")

	// Then: output contains icon and message
	output := buf.String()
	assert.Contains(t, output, "🔍")
	assert.Contains(t, output, "Loading skills...")
}

func TestWriter_Success_PrintsCheckmark(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New(buf)

	w.Success("Index reloaded")

	assert.Equal(t, "✅ Index reloaded\n", buf.String())
}

func TestWriter_Warning_PrintsWarningIcon(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New(buf)

	w.Warningf("%d skills without tags", 2)

	assert.Contains(t, buf.String(), "⚠️")
	assert.Contains(t, buf.String(), "2 skills without tags")
}

func TestWriter_Error_PrintsErrorIcon(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New(buf)

	w.Error("Skill 'x' not found")

	assert.Contains(t, buf.String(), "❌")
	assert.Contains(t, buf.String(), "Skill 'x' not found")
}

func TestWriter_BufferIsNeverStyled(t *testing.T) {
	// Given: a non-terminal writer
	buf := &bytes.Buffer{}
	w := New(buf)

	// When: printing styled output
	w.Header("Skills")
	w.Success("done")

	// Then: no ANSI escape sequences are written
	assert.NotContains(t, buf.String(), "\x1b[")
	assert.False(t, IsTTY(buf))
	assert.False(t, IsTTY(nil))
}

func TestWriter_Raw_AddsMissingNewline(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New(buf)

	w.Raw("# Forms")
	w.Raw("body\n")

	assert.Equal(t, "# Forms\nbody\n", buf.String())
}

func TestWriter_JSON_Indents(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New(buf)

	require.NoError(t, w.JSON(map[string]int{"skills": 2}))

	assert.Equal(t, "{\n  \"skills\": 2\n}\n", buf.String())
}

func TestWriter_SkillList(t *testing.T) {
	t.Run("empty list warns", func(t *testing.T) {
		buf := &bytes.Buffer{}
		New(buf).SkillList(&service.ListResult{})

		assert.Contains(t, buf.String(), "No skills found")
	})

	t.Run("prints names and sub-skills", func(t *testing.T) {
		buf := &bytes.Buffer{}
		New(buf).SkillList(&service.ListResult{Skills: []service.SkillSummary{
			{Name: "forms", Description: "Form building", SubSkills: []string{"validation", "react"}},
			{Name: "tables"},
		}})

		out := buf.String()
		assert.Contains(t, out, "Skills (2)")
		assert.Contains(t, out, "Form building")
		assert.Contains(t, out, "sub-skills: validation, react")
		assert.Contains(t, out, "tables")
	})
}

func TestWriter_SearchResults(t *testing.T) {
	buf := &bytes.Buffer{}
	New(buf).SearchResults(&search.Response{
		Query: "zod",
		Results: []search.Result{{
			Domain: "forms", SubSkill: "validation", Score: 1.2,
			MatchType: search.MatchContent, File: "references/validation.md",
			Snippet: "use zod\nfor schemas",
		}},
		TotalMatches: 3,
		Truncated:    true,
	})

	out := buf.String()
	assert.Contains(t, out, `1 result(s) for "zod" (showing 1 of 3)`)
	assert.Contains(t, out, "forms/validation 1.200 [content]")
	assert.Contains(t, out, "references/validation.md")
	assert.Contains(t, out, "use zod for schemas")
}

func TestWriter_SearchResults_NoResults(t *testing.T) {
	buf := &bytes.Buffer{}
	New(buf).SearchResults(&search.Response{Query: "nothing"})

	assert.Contains(t, buf.String(), `No results for "nothing"`)
}

func TestWriter_Validation(t *testing.T) {
	buf := &bytes.Buffer{}
	New(buf).Validation(&validation.Report{
		Valid:         false,
		Errors:        []string{"forms: missing SKILL.md"},
		Warnings:      []string{"tables: no tags"},
		SkillsChecked: 2,
	})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "forms: missing SKILL.md")
	assert.Contains(t, lines[1], "tables: no tags")
	assert.Contains(t, lines[2], "2 skill(s) checked, 1 error(s)")
}

func TestWriter_Stats(t *testing.T) {
	buf := &bytes.Buffer{}
	New(buf).Stats(&service.Stats{
		Snapshot: &telemetry.Snapshot{
			StartTime:  time.Now(),
			ToolCalls:  map[string]int64{"search_skills": 3, "get_skill": 1},
			SkillLoads: map[string]int64{},
			RecentSearches: []telemetry.SearchRecord{
				{Operation: "search_skills", Query: "zod", ResultCount: 1, Timestamp: time.Now()},
			},
			TopTerms:      []telemetry.TermCount{{Term: "zod", Count: 3}},
			TotalSearches: 3,
		},
		Uptime:      "1m0s",
		TotalSkills: 2,
	})

	out := buf.String()
	assert.Contains(t, out, "skills:")
	assert.Contains(t, out, "uptime:")
	assert.Less(t, strings.Index(out, "get_skill"), strings.Index(out, "search_skills:"))
	assert.Contains(t, out, "Recent searches (3 total)")
	assert.Contains(t, out, `"zod" (1)`)
	assert.Contains(t, out, "Top terms")
}

func TestWriter_StatsOutputIsValidJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	st := &service.Stats{
		Snapshot:    &telemetry.Snapshot{StartTime: time.Now(), ToolCalls: map[string]int64{"list_skills": 1}},
		Uptime:      "5s",
		TotalSkills: 1,
	}

	require.NoError(t, New(buf).JSON(st))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "5s", got["uptime"])
	assert.Contains(t, got, "uptime_since")
	assert.Contains(t, got, "tool_calls")
}

func TestGetStyles_NoColorRendersPlain(t *testing.T) {
	styles := GetStyles(true)

	assert.Equal(t, "Test", styles.Header.Render("Test"))
	assert.Contains(t, DefaultStyles().Header.Render("Test"), "Test")
}
