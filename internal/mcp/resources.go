package mcp

import (
	"context"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	uriScheme    = "skill://"
	markdownMIME = "text/markdown"
)

// registerResources exposes skill documents as resource templates:
//
//	skill://{name}                SKILL.md of a domain
//	skill://{domain}/{sub_skill}  one sub-skill document
func (s *Server) registerResources() {
	s.mcp.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "{name}",
		Name:        "skill",
		Description: "Main SKILL.md of a skill domain",
		MIMEType:    markdownMIME,
	}, s.handleSkillResource)

	s.mcp.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "{domain}/{sub_skill}",
		Name:        "sub-skill",
		Description: "A sub-skill document of a skill domain",
		MIMEType:    markdownMIME,
	}, s.handleSkillResource)
}

func (s *Server) handleSkillResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := req.Params.URI
	text, err := s.readResource(ctx, uri)
	if err != nil {
		return nil, err
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: markdownMIME,
			Text:     text,
		}},
	}, nil
}

// readResource resolves a skill:// URI to document text.
func (s *Server) readResource(ctx context.Context, uri string) (string, error) {
	rest, ok := strings.CutPrefix(uri, uriScheme)
	if !ok || rest == "" {
		return "", NewResourceNotFoundError(uri)
	}

	parts := strings.Split(rest, "/")
	switch len(parts) {
	case 1:
		doc, err := s.svc.Get(ctx, parts[0])
		if err != nil {
			return "", MapError(err)
		}
		return doc.Content, nil
	case 2:
		doc, err := s.svc.GetSub(ctx, parts[0], parts[1])
		if err != nil {
			return "", MapError(err)
		}
		return doc.Content, nil
	default:
		return "", NewResourceNotFoundError(uri)
	}
}
