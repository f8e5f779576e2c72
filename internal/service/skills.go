package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	skerrors "github.com/Aman-CERP/skillsmcp/internal/errors"
	"github.com/Aman-CERP/skillsmcp/internal/skill"
	"github.com/Aman-CERP/skillsmcp/internal/telemetry"
)

// List returns every loaded skill with its sub-skill names.
func (s *Service) List(ctx context.Context) (*ListResult, error) {
	s.usage.Record(OpListSkills, telemetry.Details{})

	meta, err := s.metaSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	out := &ListResult{Skills: make([]SkillSummary, 0, meta.Len())}
	for _, m := range meta.Skills {
		out.Skills = append(out.Skills, SkillSummary{
			Name:        m.Name,
			Description: m.Description,
			SubSkills:   m.SubSkillNames(),
		})
	}
	return out, nil
}

// Get reads a domain's SKILL.md.
func (s *Service) Get(ctx context.Context, name string) (*SkillDoc, error) {
	if !skill.IsSafeName(name) {
		return nil, skerrors.InvalidInput(skerrors.ErrCodeInvalidName,
			fmt.Sprintf("Invalid skill name: %s", name))
	}
	s.usage.Record(OpGetSkill, telemetry.Details{Domain: name})

	dir, err := skill.ResolveWithin(s.root, name)
	if err != nil {
		return nil, skerrors.InvalidInput(skerrors.ErrCodeInvalidPath,
			fmt.Sprintf("Invalid skill path: %s", name))
	}

	data, err := os.ReadFile(filepath.Join(dir, skill.MainFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, skerrors.NotFound(skerrors.ErrCodeSkillNotFound,
				fmt.Sprintf("Skill '%s' not found", name)).
				WithSuggestion("Use list_skills to see available skills.")
		}
		s.logger.Error("failed to read skill",
			slog.String("skill", name),
			slog.String("error", err.Error()))
		return nil, skerrors.IOError(fmt.Sprintf("Failed to read skill: %v", err), err)
	}

	meta, err := s.metaSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	m, _ := meta.Find(name)

	return &SkillDoc{
		Name:          name,
		Content:       strings.ToValidUTF8(string(data), "�"),
		SubSkills:     m.SubSkillNames(),
		HasReferences: dirExists(filepath.Join(dir, skill.ReferencesDir)),
	}, nil
}

// GetSub reads one sub-skill document of domain. The file path comes from
// the domain's metadata and must stay inside that domain's directory.
func (s *Service) GetSub(ctx context.Context, domain, subName string) (*SubSkillDoc, error) {
	if !skill.IsSafeName(domain) {
		return nil, skerrors.InvalidInput(skerrors.ErrCodeInvalidName,
			fmt.Sprintf("Invalid domain name: %s", domain))
	}
	s.usage.Record(OpGetSubSkill, telemetry.Details{Domain: domain})

	meta, err := s.metaSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	m, ok := meta.Find(domain)
	if !ok {
		return nil, skerrors.NotFound(skerrors.ErrCodeSkillNotFound,
			fmt.Sprintf("Domain '%s' not found", domain))
	}
	sub, ok := m.FindSubSkill(subName)
	if !ok {
		return nil, skerrors.NotFound(skerrors.ErrCodeSubSkillNotFound,
			fmt.Sprintf("Sub-skill '%s' not found in '%s'", subName, domain)).
			WithDetail("available", strings.Join(m.SubSkillNames(), ", "))
	}

	path, err := skill.ResolveWithin(filepath.Join(s.root, domain), sub.File)
	if err != nil || sub.File == "" {
		s.logger.Warn("path traversal attempt detected",
			slog.String("domain", domain),
			slog.String("file", sub.File))
		return nil, skerrors.InvalidInput(skerrors.ErrCodeInvalidPath, "Invalid file path")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, skerrors.NotFound(skerrors.ErrCodeFileNotFound,
				fmt.Sprintf("File not found: %s", sub.File))
		}
		s.logger.Error("failed to read sub-skill",
			slog.String("domain", domain),
			slog.String("sub_skill", subName),
			slog.String("error", err.Error()))
		return nil, skerrors.IOError(fmt.Sprintf("Failed to read sub-skill: %v", err), err)
	}

	return &SubSkillDoc{
		Domain:   domain,
		SubSkill: subName,
		Content:  strings.ToValidUTF8(string(data), "�"),
	}, nil
}

// GetBatch resolves each request in order. A failing item carries its error
// message and does not affect the others.
func (s *Service) GetBatch(ctx context.Context, reqs []BatchRequest) *BatchResult {
	s.usage.Record(OpGetSkillsBatch, telemetry.Details{})

	out := &BatchResult{Results: make([]BatchItem, 0, len(reqs))}
	for _, req := range reqs {
		if req.SubSkill != "" {
			doc, err := s.GetSub(ctx, req.Domain, req.SubSkill)
			if err != nil {
				out.Results = append(out.Results, BatchItem{Domain: req.Domain, SubSkill: req.SubSkill, Error: message(err)})
				continue
			}
			out.Results = append(out.Results, BatchItem{
				Domain:   doc.Domain,
				SubSkill: doc.SubSkill,
				Content:  doc.Content,
			})
			continue
		}

		doc, err := s.Get(ctx, req.Domain)
		if err != nil {
			out.Results = append(out.Results, BatchItem{Domain: req.Domain, Error: message(err)})
			continue
		}
		out.Results = append(out.Results, BatchItem{
			Name:          doc.Name,
			Content:       doc.Content,
			SubSkills:     doc.SubSkills,
			HasReferences: doc.HasReferences,
		})
	}
	return out
}

// message returns the human-readable part of err.
func message(err error) string {
	var se *skerrors.SkillError
	if errors.As(err, &se) {
		return se.Message
	}
	return err.Error()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
