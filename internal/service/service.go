package service

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Aman-CERP/skillsmcp/internal/config"
	"github.com/Aman-CERP/skillsmcp/internal/index"
	"github.com/Aman-CERP/skillsmcp/internal/search"
	"github.com/Aman-CERP/skillsmcp/internal/telemetry"
	"github.com/Aman-CERP/skillsmcp/internal/watcher"
)

// Operation names recorded in usage statistics.
const (
	OpListSkills     = "list_skills"
	OpGetSkill       = "get_skill"
	OpGetSubSkill    = "get_sub_skill"
	OpGetSkillsBatch = "get_skills_batch"
	OpSearchSkills   = "search_skills"
	OpSearchContent  = "search_content"
	OpSearchAll      = "search_all"
	OpReloadIndex    = "reload_index"
)

// Config configures a Service.
type Config struct {
	// Root is the skill store directory.
	Root string

	Search       search.Config
	Usage        telemetry.Config
	Watch        watcher.Options
	IndexWorkers int

	// StatsRecent is how many recent searches Stats returns.
	StatsRecent int

	// Persist enables the SQLite usage store at DBPath.
	Persist bool
	DBPath  string
}

// FromConfig maps loaded configuration onto a Service config. Relative skill
// directories resolve against base.
func FromConfig(cfg *config.Config, base string) Config {
	return Config{
		Root: cfg.SkillsRoot(base),
		Search: search.Config{
			MaxQueryLength:      cfg.Search.MaxQueryLength,
			MaxQueryTerms:       cfg.Search.MaxQueryTerms,
			SnippetBefore:       cfg.Search.SnippetBefore,
			SnippetAfter:        cfg.Search.SnippetAfter,
			DefaultSkillLimit:   cfg.Search.DefaultSkillLimit,
			DefaultContentLimit: cfg.Search.DefaultContentLimit,
		},
		Usage: telemetry.Config{
			RecentCapacity: cfg.Telemetry.RecentSearches,
		},
		Watch: watcher.Options{
			PollInterval: cfg.PollDuration(),
			UseFsnotify:  cfg.Watch.Fsnotify,
		},
		IndexWorkers: cfg.Performance.IndexWorkers,
		StatsRecent:  cfg.Telemetry.StatsRecent,
		Persist:      cfg.Telemetry.Persist,
		DBPath:       cfg.Telemetry.DBPath,
	}
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger for the service and its components.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Service answers list, get, search, reload, stats and validate requests.
// It is safe for concurrent use.
type Service struct {
	root        string
	statsRecent int
	watchOpts   watcher.Options
	logger      *slog.Logger

	builder  *index.Builder
	build    func(context.Context) (*index.MetaSnapshot, *index.ContentSnapshot, error)
	engine   *search.Engine
	detector *watcher.ChangeDetector
	usage    *telemetry.Usage

	// loadMu serializes the lazy first load only.
	loadMu sync.Mutex
	loaded atomic.Bool

	// generation numbers builds in start order. A snapshot is only swapped
	// in over an older one, so a slow build cannot undo a newer reload.
	generation atomic.Uint64

	metaMu  sync.Mutex
	meta    *index.MetaSnapshot
	metaGen uint64

	contentMu  sync.Mutex
	content    *index.ContentSnapshot
	contentGen uint64
}

// New creates a Service. The index is not built until first use.
func New(cfg Config, opts ...Option) (*Service, error) {
	if cfg.Root == "" {
		return nil, fmt.Errorf("skill store root is required")
	}
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("resolve skill store root: %w", err)
	}

	s := &Service{
		root:        root,
		statsRecent: cfg.StatsRecent,
		watchOpts:   cfg.Watch,
		logger:      slog.Default(),
		meta:        index.EmptyMeta(),
		content:     index.NewContentSnapshot(nil),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.statsRecent <= 0 {
		s.statsRecent = 10
	}

	s.builder = index.NewBuilder(root,
		index.WithWorkers(cfg.IndexWorkers),
		index.WithLogger(s.logger))
	s.build = s.builder.Build
	s.engine = search.NewEngine(cfg.Search, search.WithLogger(s.logger))
	s.detector = watcher.NewChangeDetector(root, watcher.WithDetectorLogger(s.logger))

	usageOpts := []telemetry.Option{telemetry.WithLogger(s.logger)}
	if cfg.Persist {
		store, err := telemetry.OpenSQLiteStore(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open usage store: %w", err)
		}
		usageOpts = append(usageOpts, telemetry.WithStore(store, cfg.DBPath))
	}
	s.usage = telemetry.NewUsage(cfg.Usage, usageOpts...)

	return s, nil
}

// Root returns the absolute skill store directory.
func (s *Service) Root() string {
	return s.root
}

// ensureLoaded builds the index on first use.
func (s *Service) ensureLoaded(ctx context.Context) error {
	if s.loaded.Load() {
		return nil
	}

	s.loadMu.Lock()
	defer s.loadMu.Unlock()
	if s.loaded.Load() {
		return nil
	}
	_, _, err := s.load(ctx)
	return err
}

// load builds fresh snapshots and swaps them in, metadata first. It returns
// the snapshots in effect afterwards, which are newer than the ones it built
// when a later build finished first.
func (s *Service) load(ctx context.Context) (*index.MetaSnapshot, *index.ContentSnapshot, error) {
	start := time.Now()
	gen := s.generation.Add(1)
	meta, content, err := s.build(ctx)
	if err != nil {
		return nil, nil, err
	}

	meta, fresh := s.swapMeta(gen, meta)
	content, _ = s.swapContent(gen, content)
	s.loaded.Store(true)

	if !fresh {
		s.logger.Debug("discarded stale index build", slog.Uint64("generation", gen))
		return meta, content, nil
	}

	s.logger.Info("skill index loaded",
		slog.String("root", s.root),
		slog.Int("skills", meta.Len()),
		slog.Int("content_files", content.Len()),
		slog.Int("validation_errors", len(meta.Errors)),
		slog.Duration("duration", time.Since(start)))

	return meta, content, nil
}

// swapMeta installs meta unless a newer build already did. It reports the
// current snapshot and whether meta was installed.
func (s *Service) swapMeta(gen uint64, meta *index.MetaSnapshot) (*index.MetaSnapshot, bool) {
	s.metaMu.Lock()
	defer s.metaMu.Unlock()
	if gen < s.metaGen {
		return s.meta, false
	}
	s.meta, s.metaGen = meta, gen
	return meta, true
}

func (s *Service) swapContent(gen uint64, content *index.ContentSnapshot) (*index.ContentSnapshot, bool) {
	s.contentMu.Lock()
	defer s.contentMu.Unlock()
	if gen < s.contentGen {
		return s.content, false
	}
	s.content, s.contentGen = content, gen
	return content, true
}

func (s *Service) metaSnapshot(ctx context.Context) (*index.MetaSnapshot, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	s.metaMu.Lock()
	defer s.metaMu.Unlock()
	return s.meta, nil
}

func (s *Service) contentSnapshot(ctx context.Context) (*index.ContentSnapshot, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	s.contentMu.Lock()
	defer s.contentMu.Unlock()
	return s.content, nil
}

// Reload rebuilds the index from disk.
func (s *Service) Reload(ctx context.Context) (*ReloadResult, error) {
	meta, content, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	s.usage.Record(OpReloadIndex, telemetry.Details{})

	errs := meta.Errors
	if errs == nil {
		errs = []string{}
	}
	return &ReloadResult{
		Status:              "reloaded",
		SkillCount:          meta.Len(),
		ContentFilesIndexed: content.Len(),
		ValidationErrors:    errs,
	}, nil
}

// StartRefresher primes the change detector, starts polling for changes
// until ctx is done and loads the index. It returns once the first load
// completes. A failed first load is returned but polling keeps running, and
// the next request retries the load.
func (s *Service) StartRefresher(ctx context.Context) error {
	s.detector.Prime()

	refresher := watcher.NewRefresher(s.detector, func(ctx context.Context) error {
		_, _, err := s.load(ctx)
		return err
	}, s.watchOpts)

	go func() {
		_ = refresher.Run(ctx)
	}()

	if err := s.ensureLoaded(ctx); err != nil {
		return fmt.Errorf("initial index load: %w", err)
	}
	return nil
}

// CheckForChanges runs one change-detection pass and reports whether any
// file under the store was added, modified or removed since the last pass.
func (s *Service) CheckForChanges() bool {
	return s.detector.Check()
}

// Close flushes usage statistics.
func (s *Service) Close() error {
	return s.usage.Close()
}
