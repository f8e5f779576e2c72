package index

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/skillsmcp/internal/skill"
	"github.com/Aman-CERP/skillsmcp/internal/validation"
)

// Builder scans a skill store and produces fresh snapshots.
// It holds no snapshot state and is safe for concurrent use.
type Builder struct {
	root    string
	workers int
	logger  *slog.Logger
}

// Option configures a Builder.
type Option func(*Builder)

// WithWorkers bounds how many domains are read in parallel.
// Values below 1 fall back to GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(b *Builder) {
		b.workers = n
	}
}

// WithLogger sets the logger used for skipped files.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// NewBuilder creates a builder for the store rooted at root.
func NewBuilder(root string, opts ...Option) *Builder {
	b := &Builder{
		root:   root,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.workers < 1 {
		b.workers = runtime.GOMAXPROCS(0)
	}
	return b
}

// Root returns the store directory.
func (b *Builder) Root() string {
	return b.root
}

// Build loads metadata and content in one pass over the domain listing.
func (b *Builder) Build(ctx context.Context) (*MetaSnapshot, *ContentSnapshot, error) {
	start := time.Now()
	domains := b.domains()

	meta := b.loadMetadata(domains)
	content, err := b.buildContent(ctx, domains)
	if err != nil {
		return nil, nil, err
	}

	b.logger.Debug("index built",
		slog.String("root", b.root),
		slog.Int("skills", meta.Len()),
		slog.Int("content_files", content.Len()),
		slog.Int("validation_errors", len(meta.Errors)),
		slog.Duration("duration", time.Since(start)))

	return meta, content, nil
}

// LoadMetadata parses every domain's _meta.json.
func (b *Builder) LoadMetadata() *MetaSnapshot {
	return b.loadMetadata(b.domains())
}

// BuildContent reads every indexable document.
func (b *Builder) BuildContent(ctx context.Context) (*ContentSnapshot, error) {
	return b.buildContent(ctx, b.domains())
}

// domains lists the immediate subdirectories of the store in name order.
func (b *Builder) domains() []string {
	entries, err := os.ReadDir(b.root)
	if err != nil {
		b.logger.Warn("skills directory unreadable",
			slog.String("path", b.root),
			slog.String("error", err.Error()))
		return nil
	}

	var names []string
	for _, e := range entries {
		if isDir(b.root, e) {
			names = append(names, e.Name())
		}
	}
	return names
}

func (b *Builder) loadMetadata(domains []string) *MetaSnapshot {
	snap := EmptyMeta()
	snap.LoadedAt = time.Now()

	for _, dir := range domains {
		meta, errs, ok := b.loadDomainMeta(dir)
		snap.Errors = append(snap.Errors, errs...)
		if ok {
			snap.Skills = append(snap.Skills, meta)
		}
	}
	return snap
}

// loadDomainMeta reads one domain's metadata. A missing file excludes the
// domain silently; an unreadable or undecodable file excludes it with an
// error. Schema violations are reported but the record is kept.
func (b *Builder) loadDomainMeta(dir string) (skill.Meta, []string, bool) {
	data, err := os.ReadFile(filepath.Join(b.root, dir, skill.MetaFile))
	if errors.Is(err, fs.ErrNotExist) {
		return skill.Meta{}, nil, false
	}
	if err != nil {
		return skill.Meta{}, []string{fmt.Sprintf("%s: Failed to read %s: %v", dir, skill.MetaFile, err)}, false
	}

	raw, err := validation.DecodeMeta(data)
	if err != nil {
		return skill.Meta{}, []string{fmt.Sprintf("%s: Invalid JSON in %s: %v", dir, skill.MetaFile, err)}, false
	}

	meta := skill.FromMap(raw)
	if meta.Name == "" {
		meta.Name = dir
	}
	return meta, validation.ValidateMeta(raw, dir), true
}

func (b *Builder) buildContent(ctx context.Context, domains []string) (*ContentSnapshot, error) {
	perDomain := make([][]skill.ContentEntry, len(domains))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)

	for i, dir := range domains {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			perDomain[i] = b.indexDomain(dir)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("build content index: %w", err)
	}

	var all []skill.ContentEntry
	for _, entries := range perDomain {
		all = append(all, entries...)
	}
	return NewContentSnapshot(all), nil
}

// indexDomain reads SKILL.md plus the markdown files directly inside the
// references and scripts folders.
func (b *Builder) indexDomain(domain string) []skill.ContentEntry {
	var entries []skill.ContentEntry

	if e, ok := b.readEntry(domain, skill.MainFile, ""); ok {
		entries = append(entries, e)
	}

	for _, folder := range []string{skill.ReferencesDir, skill.ScriptsDir} {
		files, err := os.ReadDir(filepath.Join(b.root, domain, folder))
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				b.logger.Warn("sub-document folder unreadable",
					slog.String("domain", domain),
					slog.String("folder", folder),
					slog.String("error", err.Error()))
			}
			continue
		}
		for _, f := range files {
			if f.IsDir() || !strings.HasSuffix(f.Name(), ".md") {
				continue
			}
			rel := path.Join(folder, f.Name())
			if e, ok := b.readEntry(domain, rel, skill.SubSkillLabel(folder, f.Name())); ok {
				entries = append(entries, e)
			}
		}
	}
	return entries
}

func (b *Builder) readEntry(domain, rel, subSkill string) (skill.ContentEntry, bool) {
	data, err := os.ReadFile(filepath.Join(b.root, domain, filepath.FromSlash(rel)))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			b.logger.Warn("failed to index file",
				slog.String("domain", domain),
				slog.String("file", rel),
				slog.String("error", err.Error()))
		}
		return skill.ContentEntry{}, false
	}

	return skill.ContentEntry{
		Domain:   domain,
		SubSkill: subSkill,
		File:     rel,
		Content:  strings.ToLower(strings.ToValidUTF8(string(data), "")),
	}, true
}

// isDir follows symlinks so linked domain directories are indexed.
func isDir(root string, e fs.DirEntry) bool {
	if e.IsDir() {
		return true
	}
	if e.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(filepath.Join(root, e.Name()))
	return err == nil && info.IsDir()
}
