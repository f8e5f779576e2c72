package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	skerrors "github.com/Aman-CERP/skillsmcp/internal/errors"
	"github.com/Aman-CERP/skillsmcp/internal/index"
	"github.com/Aman-CERP/skillsmcp/internal/logging"
	"github.com/Aman-CERP/skillsmcp/internal/search"
	"github.com/Aman-CERP/skillsmcp/internal/watcher"
)

const formsMeta = `{
  "name": "forms",
  "description": "Form building and input handling",
  "tags": ["html", "validation"],
  "sub_skills": [
    {"name": "validation", "file": "references/validation.md", "triggers": ["zod", "yup"]},
    {"name": "react", "file": "references/react.md", "triggers": ["useForm"]}
  ]
}`

const tablesMeta = `{
  "name": "tables",
  "description": "Data tables with sorting and pagination",
  "tags": ["grid"]
}`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// newStore builds a two-domain skill store and returns its root.
func newStore(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	writeFile(t, filepath.Join(root, "forms", "_meta.json"), formsMeta)
	writeFile(t, filepath.Join(root, "forms", "SKILL.md"), "# Forms\n\nBuild forms with validation and accessible labels.\n")
	writeFile(t, filepath.Join(root, "forms", "references", "validation.md"), "# Validation\n\nUse zod schemas to describe input rules.\n")
	writeFile(t, filepath.Join(root, "forms", "references", "react.md"), "# React\n\nThe useForm hook wires inputs.\n")

	writeFile(t, filepath.Join(root, "tables", "_meta.json"), tablesMeta)
	writeFile(t, filepath.Join(root, "tables", "SKILL.md"), "# Tables\n\nSort columns and paginate rows.\n")

	return root
}

func newService(t *testing.T, root string) *Service {
	t.Helper()
	svc, err := New(Config{
		Root:        root,
		Search:      search.DefaultConfig(),
		StatsRecent: 10,
	}, WithLogger(logging.Nop()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func TestNew_RequiresRoot(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestList_ReturnsSkillsWithSubSkillNames(t *testing.T) {
	// Given: a store with forms and tables
	svc := newService(t, newStore(t))

	// When: listing before any explicit reload
	res, err := svc.List(context.Background())

	// Then: the lazy load ran and both domains are present in directory order
	require.NoError(t, err)
	require.Len(t, res.Skills, 2)
	assert.Equal(t, "forms", res.Skills[0].Name)
	assert.Equal(t, []string{"validation", "react"}, res.Skills[0].SubSkills)
	assert.Equal(t, "tables", res.Skills[1].Name)
	assert.Empty(t, res.Skills[1].SubSkills)
}

func TestGet(t *testing.T) {
	svc := newService(t, newStore(t))
	ctx := context.Background()

	t.Run("existing skill", func(t *testing.T) {
		doc, err := svc.Get(ctx, "forms")

		require.NoError(t, err)
		assert.Equal(t, "forms", doc.Name)
		assert.Contains(t, doc.Content, "# Forms")
		assert.Equal(t, []string{"validation", "react"}, doc.SubSkills)
		assert.True(t, doc.HasReferences)
	})

	t.Run("skill without references", func(t *testing.T) {
		doc, err := svc.Get(ctx, "tables")

		require.NoError(t, err)
		assert.False(t, doc.HasReferences)
	})

	t.Run("missing skill", func(t *testing.T) {
		_, err := svc.Get(ctx, "charts")

		require.Error(t, err)
		assert.True(t, skerrors.IsNotFound(err))
		assert.Equal(t, "Skill 'charts' not found", message(err))
	})

	t.Run("unsafe name is rejected", func(t *testing.T) {
		for _, name := range []string{"../etc", "forms/x", "", "a b"} {
			_, err := svc.Get(ctx, name)

			require.Error(t, err, name)
			assert.Equal(t, skerrors.ErrCodeInvalidName, skerrors.GetCode(err), name)
		}
	})
}

func TestGetSub(t *testing.T) {
	root := newStore(t)
	writeFile(t, filepath.Join(root, "escape", "_meta.json"),
		`{"name":"escape","description":"d","sub_skills":[{"name":"x","file":"../../outside.md"},{"name":"gone","file":"references/gone.md"}]}`)
	writeFile(t, filepath.Join(root, "escape", "SKILL.md"), "# Escape\n")
	svc := newService(t, root)
	ctx := context.Background()

	tests := []struct {
		name     string
		domain   string
		sub      string
		wantCode string
		wantMsg  string
	}{
		{"invalid domain", "../forms", "react", skerrors.ErrCodeInvalidName, "Invalid domain name: ../forms"},
		{"unknown domain", "charts", "bar", skerrors.ErrCodeSkillNotFound, "Domain 'charts' not found"},
		{"unknown sub-skill", "forms", "vue", skerrors.ErrCodeSubSkillNotFound, "Sub-skill 'vue' not found in 'forms'"},
		{"path escapes store", "escape", "x", skerrors.ErrCodeInvalidPath, "Invalid file path"},
		{"declared file missing", "escape", "gone", skerrors.ErrCodeFileNotFound, "File not found: references/gone.md"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.GetSub(ctx, tt.domain, tt.sub)

			require.Error(t, err)
			assert.Equal(t, tt.wantCode, skerrors.GetCode(err))
			assert.Equal(t, tt.wantMsg, message(err))
		})
	}

	t.Run("existing sub-skill", func(t *testing.T) {
		doc, err := svc.GetSub(ctx, "forms", "validation")

		require.NoError(t, err)
		assert.Equal(t, "forms", doc.Domain)
		assert.Equal(t, "validation", doc.SubSkill)
		assert.Contains(t, doc.Content, "zod schemas")
	})
}

func TestGetSub_FileMustStayInsideOwnDomain(t *testing.T) {
	// Given: a domain whose sub-skill points at a sibling domain's document
	root := newStore(t)
	writeFile(t, filepath.Join(root, "borrow", "_meta.json"),
		`{"name":"borrow","description":"d","sub_skills":[{"name":"steal","file":"../tables/SKILL.md"}]}`)
	writeFile(t, filepath.Join(root, "borrow", "SKILL.md"), "# Borrow\n")
	svc := newService(t, root)
	ctx := context.Background()

	// When: reading that sub-skill
	doc, err := svc.GetSub(ctx, "borrow", "steal")

	// Then: it is rejected rather than served from the other domain
	require.Error(t, err)
	assert.Nil(t, doc)
	assert.Equal(t, skerrors.ErrCodeInvalidPath, skerrors.GetCode(err))

	// And: validation flags the same entry
	report, err := svc.ValidateAll(ctx)
	require.NoError(t, err)
	assert.Contains(t, report.Errors, "borrow: Sub-skill file not found: ../tables/SKILL.md")
}

func TestGetBatch_PreservesOrderAndIsolatesFailures(t *testing.T) {
	// Given: a valid and an invalid domain, plus a sub-skill
	svc := newService(t, newStore(t))

	// When: requesting them in one batch
	res := svc.GetBatch(context.Background(), []BatchRequest{
		{Domain: "forms"},
		{Domain: "nope"},
		{Domain: "forms", SubSkill: "react"},
	})

	// Then: results follow input order and only the bad one carries an error
	require.Len(t, res.Results, 3)
	assert.Equal(t, "forms", res.Results[0].Name)
	assert.NotEmpty(t, res.Results[0].Content)
	assert.Empty(t, res.Results[0].Error)

	assert.Equal(t, "Skill 'nope' not found", res.Results[1].Error)
	assert.Empty(t, res.Results[1].Content)

	assert.Equal(t, "react", res.Results[2].SubSkill)
	assert.Contains(t, res.Results[2].Content, "useForm")
}

func TestSearch_EndToEnd(t *testing.T) {
	svc := newService(t, newStore(t))
	ctx := context.Background()

	// A trigger hit on a sub-skill
	resp, err := svc.SearchSkills(ctx, "zod", search.Options{})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Results)
	assert.Equal(t, "forms", resp.Results[0].Domain)
	assert.Equal(t, "validation", resp.Results[0].SubSkill)
	assert.Equal(t, 0.9, resp.Results[0].Score)
	assert.Equal(t, search.MatchTriggers, resp.Results[0].MatchType)

	// A name hit on the domain
	resp, err = svc.SearchSkills(ctx, "forms", search.Options{})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Results)
	assert.Equal(t, "forms", resp.Results[0].Domain)
	assert.Empty(t, resp.Results[0].SubSkill)
	assert.Equal(t, 0.9, resp.Results[0].Score)
	assert.Equal(t, search.MatchName, resp.Results[0].MatchType)

	// A content hit on the primary document
	resp, err = svc.SearchContent(ctx, "validation", search.Options{})
	require.NoError(t, err)
	var found bool
	for _, r := range resp.Results {
		if r.Domain == "forms" && r.File == "SKILL.md" {
			found = true
			assert.GreaterOrEqual(t, r.Score, 0.7)
		}
	}
	assert.True(t, found, "forms SKILL.md should match")
}

func TestSearchAll_MergesMetadataFirst(t *testing.T) {
	svc := newService(t, newStore(t))

	resp, err := svc.SearchAll(context.Background(), "paginate", search.Options{})

	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "tables", resp.Results[0].Domain)
	assert.Equal(t, search.MatchContent, resp.Results[0].MatchType)
}

func TestSearch_InvalidQueryIsNotRecorded(t *testing.T) {
	svc := newService(t, newStore(t))
	ctx := context.Background()

	_, err := svc.SearchSkills(ctx, "   ", search.Options{})
	require.Error(t, err)
	assert.True(t, skerrors.IsInvalidInput(err))

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalSearches)
	assert.Empty(t, stats.RecentSearches)
}

func TestStats_RecentSearchesStayBounded(t *testing.T) {
	// Given: a service with default telemetry
	svc := newService(t, newStore(t))
	ctx := context.Background()

	// When: running 150 searches
	for i := 0; i < 150; i++ {
		_, err := svc.SearchSkills(ctx, fmt.Sprintf("query-%d", i), search.Options{})
		require.NoError(t, err)
	}

	// Then: the buffer holds 100 and stats report the last 10
	assert.Equal(t, 100, svc.usage.RecentSearchCount())

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	require.Len(t, stats.RecentSearches, 10)
	assert.Equal(t, "query-149", stats.RecentSearches[9].Query)
	assert.Equal(t, int64(150), stats.TotalSearches)
	assert.Equal(t, int64(150), stats.ToolCalls[OpSearchSkills])
	assert.Equal(t, 2, stats.TotalSkills)
	assert.Equal(t, 4, stats.ContentFilesIndexed)
	assert.NotEmpty(t, stats.Uptime)
}

func TestStats_CountsSkillLoads(t *testing.T) {
	svc := newService(t, newStore(t))
	ctx := context.Background()

	_, _ = svc.Get(ctx, "forms")
	_, _ = svc.GetSub(ctx, "forms", "react")
	_, _ = svc.Get(ctx, "tables")

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.SkillLoads["forms"])
	assert.Equal(t, int64(1), stats.SkillLoads["tables"])
}

func TestReload_IsIdempotent(t *testing.T) {
	svc := newService(t, newStore(t))
	ctx := context.Background()

	first, err := svc.Reload(ctx)
	require.NoError(t, err)
	second, err := svc.Reload(ctx)
	require.NoError(t, err)

	assert.Equal(t, "reloaded", first.Status)
	assert.Equal(t, first.SkillCount, second.SkillCount)
	assert.Equal(t, first.ContentFilesIndexed, second.ContentFilesIndexed)
	assert.Equal(t, 2, first.SkillCount)
	assert.Equal(t, 4, first.ContentFilesIndexed)
	assert.NotNil(t, first.ValidationErrors)
}

func TestReload_PicksUpNewDomainAndReportsMismatch(t *testing.T) {
	root := newStore(t)
	svc := newService(t, root)
	ctx := context.Background()
	_, err := svc.List(ctx)
	require.NoError(t, err)

	// Given: a new domain whose name does not match its directory
	writeFile(t, filepath.Join(root, "charts", "_meta.json"), `{"name":"graphs","description":"Charts"}`)
	writeFile(t, filepath.Join(root, "charts", "SKILL.md"), "# Charts\n")

	// When: reloading
	res, err := svc.Reload(ctx)

	// Then: the domain is indexed and the mismatch is reported
	require.NoError(t, err)
	assert.Equal(t, 3, res.SkillCount)
	require.Len(t, res.ValidationErrors, 1)
	assert.Contains(t, res.ValidationErrors[0], "charts")
}

func TestCheckForChanges(t *testing.T) {
	root := newStore(t)
	svc := newService(t, root)

	// First pass establishes the baseline.
	svc.CheckForChanges()
	assert.False(t, svc.CheckForChanges(), "no change between immediate passes")

	writeFile(t, filepath.Join(root, "tables", "references", "sorting.md"), "# Sorting\n")
	assert.True(t, svc.CheckForChanges(), "added file")

	require.NoError(t, os.Remove(filepath.Join(root, "tables", "references", "sorting.md")))
	assert.True(t, svc.CheckForChanges(), "removed file")
	assert.False(t, svc.CheckForChanges())
}

func TestStartRefresher_ReloadsOnChange(t *testing.T) {
	root := newStore(t)
	svc, err := New(Config{
		Root:   root,
		Search: search.DefaultConfig(),
	}, WithLogger(logging.Nop()))
	require.NoError(t, err)
	svc.watchOpts.PollInterval = 20 * time.Millisecond
	defer svc.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, svc.StartRefresher(ctx))

	writeFile(t, filepath.Join(root, "charts", "_meta.json"), `{"name":"charts","description":"Charts"}`)
	writeFile(t, filepath.Join(root, "charts", "SKILL.md"), "# Charts\n")

	assert.Eventually(t, func() bool {
		res, err := svc.List(context.Background())
		return err == nil && len(res.Skills) == 3
	}, 2*time.Second, 20*time.Millisecond)
}

func TestStartRefresher_KeepsPollingAfterFailedFirstLoad(t *testing.T) {
	// Given: a service whose first index build fails
	root := newStore(t)
	svc, err := New(Config{
		Root:   root,
		Search: search.DefaultConfig(),
		Watch:  watcher.Options{PollInterval: 20 * time.Millisecond},
	}, WithLogger(logging.Nop()))
	require.NoError(t, err)
	defer svc.Close()

	realBuild := svc.build
	var builds atomic.Int32
	svc.build = func(ctx context.Context) (*index.MetaSnapshot, *index.ContentSnapshot, error) {
		if builds.Add(1) == 1 {
			return nil, nil, fmt.Errorf("disk hiccup")
		}
		return realBuild(ctx)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// When: the refresher starts
	err = svc.StartRefresher(ctx)

	// Then: the failure is reported
	require.ErrorContains(t, err, "disk hiccup")
	assert.False(t, svc.loaded.Load())

	// And: polling still reloads on change without any request
	writeFile(t, filepath.Join(root, "charts", "_meta.json"), `{"name":"charts","description":"Charts"}`)
	assert.Eventually(t, func() bool {
		svc.metaMu.Lock()
		defer svc.metaMu.Unlock()
		return svc.loaded.Load() && svc.meta.Len() == 3
	}, 2*time.Second, 20*time.Millisecond)
}

func TestReload_StaleBuildDoesNotReplaceNewerIndex(t *testing.T) {
	// Given: a reload whose build is held until a later reload finishes
	root := newStore(t)
	svc := newService(t, root)
	ctx := context.Background()

	realBuild := svc.build
	var builds atomic.Int32
	entered := make(chan struct{})
	release := make(chan struct{})
	svc.build = func(ctx context.Context) (*index.MetaSnapshot, *index.ContentSnapshot, error) {
		if builds.Add(1) == 1 {
			meta, content, err := realBuild(ctx)
			close(entered)
			<-release
			return meta, content, err
		}
		return realBuild(ctx)
	}

	slow := make(chan *ReloadResult, 1)
	go func() {
		res, err := svc.Reload(ctx)
		assert.NoError(t, err)
		slow <- res
	}()
	<-entered

	// When: a domain is added and a second reload completes first
	writeFile(t, filepath.Join(root, "charts", "_meta.json"), `{"name":"charts","description":"Charts"}`)
	fresh, err := svc.Reload(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, fresh.SkillCount)

	close(release)
	stale := <-slow

	// Then: the older build is discarded and the newer index stays
	assert.Equal(t, 3, stale.SkillCount)
	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list.Skills, 3)
}

func TestValidateAll(t *testing.T) {
	root := newStore(t)
	writeFile(t, filepath.Join(root, "broken", "SKILL.md"), "# Broken\n")
	svc := newService(t, root)

	report, err := svc.ValidateAll(context.Background())

	require.NoError(t, err)
	assert.False(t, report.Valid)
	assert.Equal(t, 3, report.SkillsChecked)
	assert.Contains(t, report.Errors, "broken: Missing _meta.json")
	assert.Contains(t, report.Warnings, "tables: No sub-skills defined (standalone skill)")
}

func TestConcurrentReadsDuringReload(t *testing.T) {
	svc := newService(t, newStore(t))
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				switch (i + j) % 4 {
				case 0:
					_, err := svc.Reload(ctx)
					assert.NoError(t, err)
				case 1:
					res, err := svc.List(ctx)
					if assert.NoError(t, err) {
						assert.Len(t, res.Skills, 2)
					}
				case 2:
					_, err := svc.SearchContent(ctx, "forms", search.Options{})
					assert.NoError(t, err)
				default:
					_, err := svc.Stats(ctx)
					assert.NoError(t, err)
				}
			}
		}(i)
	}
	wg.Wait()
}
