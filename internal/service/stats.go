package service

import (
	"context"

	skerrors "github.com/Aman-CERP/skillsmcp/internal/errors"
	"github.com/Aman-CERP/skillsmcp/internal/validation"
)

// Stats returns usage statistics with the current index sizes. The usage
// lock is released before either index lock is taken.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	snap := s.usage.Snapshot(s.statsRecent)

	meta, err := s.metaSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	content, err := s.contentSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	return &Stats{
		Snapshot:            snap,
		Uptime:              snap.Uptime().String(),
		TotalSkills:         meta.Len(),
		ContentFilesIndexed: content.Len(),
	}, nil
}

// ValidateAll checks every domain directory on disk. It reads the store
// directly and does not touch the loaded index.
func (s *Service) ValidateAll(_ context.Context) (*validation.Report, error) {
	report, err := validation.ValidateStore(s.root)
	if err != nil {
		return nil, skerrors.IOError("Failed to read skills directory", err).
			WithDetail("root", s.root)
	}
	return report, nil
}
