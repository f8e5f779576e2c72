package service

import (
	"context"

	"github.com/Aman-CERP/skillsmcp/internal/search"
	"github.com/Aman-CERP/skillsmcp/internal/telemetry"
)

// SearchSkills ranks domains and sub-skills by their metadata.
func (s *Service) SearchSkills(ctx context.Context, query string, opts search.Options) (*search.Response, error) {
	if err := s.engine.Config().ValidateQuery(query); err != nil {
		return nil, err
	}
	meta, err := s.metaSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := s.engine.Metadata(meta.Skills, query, opts)
	if err != nil {
		return nil, err
	}
	s.recordSearch(OpSearchSkills, query, resp)
	return resp, nil
}

// SearchContent ranks indexed documents by full-text containment.
func (s *Service) SearchContent(ctx context.Context, query string, opts search.Options) (*search.Response, error) {
	if err := s.engine.Config().ValidateQuery(query); err != nil {
		return nil, err
	}
	content, err := s.contentSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := s.engine.Content(content.Entries(), query, opts)
	if err != nil {
		return nil, err
	}
	s.recordSearch(OpSearchContent, query, resp)
	return resp, nil
}

// SearchAll merges metadata and content results, metadata first.
func (s *Service) SearchAll(ctx context.Context, query string, opts search.Options) (*search.Response, error) {
	if err := s.engine.Config().ValidateQuery(query); err != nil {
		return nil, err
	}
	meta, err := s.metaSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	content, err := s.contentSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := s.engine.All(meta.Skills, content.Entries(), query, opts)
	if err != nil {
		return nil, err
	}
	s.recordSearch(OpSearchAll, query, resp)
	return resp, nil
}

func (s *Service) recordSearch(op, query string, resp *search.Response) {
	s.usage.Record(op, telemetry.Details{Query: query, ResultCount: len(resp.Results)})
}
