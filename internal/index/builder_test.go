package index

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// newStore creates a small store with a healthy domain, a domain without
// metadata, one with broken JSON and one whose name mismatches its directory.
func newStore(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	writeFile(t, filepath.Join(root, "forms", "SKILL.md"), "# Forms\nHandle VALIDATION here.")
	writeFile(t, filepath.Join(root, "forms", "_meta.json"), `{
		"name": "forms",
		"description": "Form handling",
		"tags": ["html", "validation"],
		"sub_skills": [{"name": "validation", "file": "references/validation.md", "triggers": ["zod"]}]
	}`)
	writeFile(t, filepath.Join(root, "forms", "references", "validation.md"), "Use Zod schemas.")
	writeFile(t, filepath.Join(root, "forms", "references", "notes.txt"), "ignored")
	writeFile(t, filepath.Join(root, "forms", "references", "deep", "nested.md"), "ignored")
	writeFile(t, filepath.Join(root, "forms", "scripts", "gen.ts.md"), "generator")

	writeFile(t, filepath.Join(root, "nometa", "SKILL.md"), "orphan content")

	writeFile(t, filepath.Join(root, "broken", "_meta.json"), `{"name": `)

	writeFile(t, filepath.Join(root, "renamed", "_meta.json"), `{"name": "other", "description": "d"}`)

	writeFile(t, filepath.Join(root, "stray.md"), "not a domain")
	return root
}

func TestBuilder_LoadMetadata(t *testing.T) {
	// Given: a store with mixed-quality domains
	root := newStore(t)
	b := NewBuilder(root)

	// When: loading metadata
	snap := b.LoadMetadata()

	// Then: missing meta is skipped silently and broken JSON is excluded with an error
	names := make([]string, 0, snap.Len())
	for _, m := range snap.Skills {
		names = append(names, m.Name)
	}
	assert.Equal(t, []string{"forms", "other"}, names)

	require.Len(t, snap.Errors, 2)
	assert.Contains(t, snap.Errors[0], "broken: Invalid JSON in _meta.json: ")
	assert.Equal(t, "renamed: 'name' field (other) doesn't match directory name", snap.Errors[1])

	forms, ok := snap.Find("forms")
	require.True(t, ok)
	assert.Equal(t, []string{"html", "validation"}, forms.Tags)
	assert.Equal(t, []string{"zod"}, forms.SubSkills[0].Triggers)
}

func TestBuilder_BuildContent(t *testing.T) {
	// Given: the same store
	root := newStore(t)
	b := NewBuilder(root, WithWorkers(2))

	// When: building the content index
	content, err := b.BuildContent(context.Background())
	require.NoError(t, err)

	// Then: only SKILL.md and top-level markdown in the two folders are indexed
	assert.Equal(t, 4, content.Len())

	main, ok := content.Get("forms:SKILL.md")
	require.True(t, ok)
	assert.Equal(t, "# forms\nhandle validation here.", main.Content)
	assert.Empty(t, main.SubSkill)

	ref, ok := content.Get("forms:references/validation.md")
	require.True(t, ok)
	assert.Equal(t, "validation", ref.SubSkill)
	assert.Equal(t, "use zod schemas.", ref.Content)

	script, ok := content.Get("forms:scripts/gen.ts.md")
	require.True(t, ok)
	assert.Equal(t, "gen", script.SubSkill)

	_, ok = content.Get("nometa:SKILL.md")
	assert.True(t, ok, "content indexing does not require metadata")

	_, ok = content.Get("forms:references/deep/nested.md")
	assert.False(t, ok)
}

func TestBuilder_ContentOrderIsDeterministic(t *testing.T) {
	root := newStore(t)

	first, err := NewBuilder(root, WithWorkers(1)).BuildContent(context.Background())
	require.NoError(t, err)
	second, err := NewBuilder(root, WithWorkers(8)).BuildContent(context.Background())
	require.NoError(t, err)

	keys := func(s *ContentSnapshot) []string {
		var out []string
		for _, e := range s.Entries() {
			out = append(out, e.Key())
		}
		return out
	}
	assert.Equal(t, keys(first), keys(second))
}

func TestBuilder_Build_IdempotentOnUnchangedStore(t *testing.T) {
	root := newStore(t)
	b := NewBuilder(root)

	m1, c1, err := b.Build(context.Background())
	require.NoError(t, err)
	m2, c2, err := b.Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, m1.Len(), m2.Len())
	assert.Equal(t, c1.Len(), c2.Len())
	assert.Equal(t, m1.Errors, m2.Errors)
}

func TestBuilder_MissingRootYieldsEmptySnapshots(t *testing.T) {
	b := NewBuilder(filepath.Join(t.TempDir(), "missing"))

	meta, content, err := b.Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, meta.Len())
	assert.NotNil(t, meta.Errors)
	assert.Equal(t, 0, content.Len())
}

func TestBuilder_CancelledContext(t *testing.T) {
	root := newStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := NewBuilder(root).Build(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuilder_UnreadableFileIsSkipped(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced")
	}

	// Given: a reference file that cannot be read
	root := newStore(t)
	locked := filepath.Join(root, "forms", "references", "locked.md")
	writeFile(t, locked, "secret")
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o644) })

	// When: building
	content, err := NewBuilder(root).BuildContent(context.Background())

	// Then: the scan completes without it
	require.NoError(t, err)
	_, ok := content.Get("forms:references/locked.md")
	assert.False(t, ok)
	assert.Equal(t, 4, content.Len())
}

func TestContentSnapshot_NilSafe(t *testing.T) {
	var s *ContentSnapshot
	assert.Equal(t, 0, s.Len())
	assert.Nil(t, s.Entries())
	_, ok := s.Get("x")
	assert.False(t, ok)

	var m *MetaSnapshot
	assert.Equal(t, 0, m.Len())
	_, ok = m.Find("x")
	assert.False(t, ok)
}
