package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Aman-CERP/skillsmcp/internal/search"
	"github.com/Aman-CERP/skillsmcp/internal/service"
	"github.com/Aman-CERP/skillsmcp/internal/validation"
	"github.com/Aman-CERP/skillsmcp/pkg/version"
)

// ServerName is reported to MCP clients.
const ServerName = "skillsmcp"

// SkillService is the facade the server exposes.
type SkillService interface {
	List(ctx context.Context) (*service.ListResult, error)
	Get(ctx context.Context, name string) (*service.SkillDoc, error)
	GetSub(ctx context.Context, domain, subName string) (*service.SubSkillDoc, error)
	GetBatch(ctx context.Context, reqs []service.BatchRequest) *service.BatchResult
	SearchSkills(ctx context.Context, query string, opts search.Options) (*search.Response, error)
	SearchContent(ctx context.Context, query string, opts search.Options) (*search.Response, error)
	SearchAll(ctx context.Context, query string, opts search.Options) (*search.Response, error)
	Reload(ctx context.Context) (*service.ReloadResult, error)
	Stats(ctx context.Context) (*service.Stats, error)
	ValidateAll(ctx context.Context) (*validation.Report, error)
}

var _ SkillService = (*service.Service)(nil)

// ErrMissingService is returned by NewServer when no service is given.
var ErrMissingService = errors.New("skill service is required")

// Server bridges MCP clients with the skill service.
type Server struct {
	mcp    *mcp.Server
	svc    SkillService
	logger *slog.Logger
}

// ToolInfo contains information about a registered tool.
type ToolInfo struct {
	Name        string
	Description string
}

// tools lists every registered tool in registration order.
var tools = []ToolInfo{
	{"list_skills", "List all available skill domains with descriptions and sub-skill names. Use this first to see what skills exist."},
	{"get_skill", "Load a skill's main SKILL.md content. For domains with sub-skills this is the overview that routes to them."},
	{"get_sub_skill", "Load one sub-skill document from a domain."},
	{"get_skills_batch", "Load several skills or sub-skills in one request. Results keep request order; failed items carry an error."},
	{"search_skills", "Search skills by keyword or phrase across names, descriptions, tags and trigger words."},
	{"search_content", "Full-text search across all skill documents. Returns snippets around each match."},
	{"search_all", "Search metadata and document content together, metadata matches first."},
	{"reload_index", "Reload the skill index from disk after adding or changing skill files."},
	{"get_stats", "Usage statistics: tool calls, skill loads, recent searches and uptime."},
	{"validate_skills", "Validate all skill metadata and file structure. Returns errors and warnings."},
}

// NewServer creates an MCP server over svc.
func NewServer(svc SkillService, logger *slog.Logger) (*Server, error) {
	if svc == nil {
		return nil, ErrMissingService
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		svc:    svc,
		logger: logger,
		mcp: mcp.NewServer(&mcp.Implementation{
			Name:    ServerName,
			Version: version.Version,
		}, nil),
	}

	s.registerTools()
	s.registerResources()
	return s, nil
}

// MCPServer returns the underlying MCP server instance.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// ListTools returns all registered tools.
func (s *Server) ListTools() []ToolInfo {
	out := make([]ToolInfo, len(tools))
	copy(out, tools)
	return out
}

func (s *Server) registerTools() {
	desc := make(map[string]string, len(tools))
	for _, t := range tools {
		desc[t.Name] = t.Description
	}
	tool := func(name string) *mcp.Tool {
		return &mcp.Tool{Name: name, Description: desc[name]}
	}

	mcp.AddTool(s.mcp, tool("list_skills"), s.handleListSkills)
	mcp.AddTool(s.mcp, tool("get_skill"), s.handleGetSkill)
	mcp.AddTool(s.mcp, tool("get_sub_skill"), s.handleGetSubSkill)
	mcp.AddTool(s.mcp, tool("get_skills_batch"), s.handleGetSkillsBatch)
	mcp.AddTool(s.mcp, tool("search_skills"), s.handleSearchSkills)
	mcp.AddTool(s.mcp, tool("search_content"), s.handleSearchContent)
	mcp.AddTool(s.mcp, tool("search_all"), s.handleSearchAll)
	mcp.AddTool(s.mcp, tool("reload_index"), s.handleReloadIndex)
	mcp.AddTool(s.mcp, tool("get_stats"), s.handleGetStats)
	mcp.AddTool(s.mcp, tool("validate_skills"), s.handleValidateSkills)

	s.logger.Debug("MCP tools registered", slog.Int("count", len(tools)))
}

// call wraps a service call with request-id logging and error mapping.
func call[T any](s *Server, ctx context.Context, tool string, attrs []slog.Attr, fn func() (T, error)) (T, error) {
	requestID := uuid.NewString()
	start := time.Now()

	s.logger.LogAttrs(ctx, slog.LevelInfo, tool+" started",
		append([]slog.Attr{slog.String("request_id", requestID)}, attrs...)...)

	out, err := fn()
	duration := time.Since(start)
	if err != nil {
		s.logger.LogAttrs(ctx, slog.LevelWarn, tool+" failed",
			slog.String("request_id", requestID),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))
		var zero T
		return zero, MapError(err)
	}

	s.logger.LogAttrs(ctx, slog.LevelInfo, tool+" completed",
		slog.String("request_id", requestID),
		slog.Duration("duration", duration))
	return out, nil
}

func (s *Server) handleListSkills(ctx context.Context, _ *mcp.CallToolRequest, _ EmptyInput) (
	*mcp.CallToolResult, *service.ListResult, error,
) {
	out, err := call(s, ctx, "list_skills", nil, func() (*service.ListResult, error) {
		return s.svc.List(ctx)
	})
	return nil, out, err
}

func (s *Server) handleGetSkill(ctx context.Context, _ *mcp.CallToolRequest, in GetSkillInput) (
	*mcp.CallToolResult, *service.SkillDoc, error,
) {
	out, err := call(s, ctx, "get_skill", []slog.Attr{slog.String("name", in.Name)},
		func() (*service.SkillDoc, error) {
			return s.svc.Get(ctx, in.Name)
		})
	return nil, out, err
}

func (s *Server) handleGetSubSkill(ctx context.Context, _ *mcp.CallToolRequest, in GetSubSkillInput) (
	*mcp.CallToolResult, *service.SubSkillDoc, error,
) {
	attrs := []slog.Attr{slog.String("domain", in.Domain), slog.String("sub_skill", in.SubSkill)}
	out, err := call(s, ctx, "get_sub_skill", attrs, func() (*service.SubSkillDoc, error) {
		if in.SubSkill == "" {
			return nil, NewInvalidParamsError("sub_skill parameter is required")
		}
		return s.svc.GetSub(ctx, in.Domain, in.SubSkill)
	})
	return nil, out, err
}

func (s *Server) handleGetSkillsBatch(ctx context.Context, _ *mcp.CallToolRequest, in GetSkillsBatchInput) (
	*mcp.CallToolResult, *service.BatchResult, error,
) {
	attrs := []slog.Attr{slog.Int("requests", len(in.Requests))}
	out, err := call(s, ctx, "get_skills_batch", attrs, func() (*service.BatchResult, error) {
		if in.Requests == nil {
			return nil, NewInvalidParamsError("requests parameter is required")
		}
		return s.svc.GetBatch(ctx, in.Requests), nil
	})
	return nil, out, err
}

func (s *Server) handleSearchSkills(ctx context.Context, _ *mcp.CallToolRequest, in SearchInput) (
	*mcp.CallToolResult, *search.Response, error,
) {
	out, err := call(s, ctx, "search_skills", searchAttrs(in), func() (*search.Response, error) {
		opts, err := in.options()
		if err != nil {
			return nil, err
		}
		return s.svc.SearchSkills(ctx, in.Query, opts)
	})
	return nil, out, err
}

func (s *Server) handleSearchContent(ctx context.Context, _ *mcp.CallToolRequest, in SearchInput) (
	*mcp.CallToolResult, *search.Response, error,
) {
	out, err := call(s, ctx, "search_content", searchAttrs(in), func() (*search.Response, error) {
		opts, err := in.options()
		if err != nil {
			return nil, err
		}
		return s.svc.SearchContent(ctx, in.Query, opts)
	})
	return nil, out, err
}

func (s *Server) handleSearchAll(ctx context.Context, _ *mcp.CallToolRequest, in SearchInput) (
	*mcp.CallToolResult, *search.Response, error,
) {
	out, err := call(s, ctx, "search_all", searchAttrs(in), func() (*search.Response, error) {
		opts, err := in.options()
		if err != nil {
			return nil, err
		}
		return s.svc.SearchAll(ctx, in.Query, opts)
	})
	return nil, out, err
}

func (s *Server) handleReloadIndex(ctx context.Context, _ *mcp.CallToolRequest, _ EmptyInput) (
	*mcp.CallToolResult, *service.ReloadResult, error,
) {
	out, err := call(s, ctx, "reload_index", nil, func() (*service.ReloadResult, error) {
		return s.svc.Reload(ctx)
	})
	return nil, out, err
}

func (s *Server) handleGetStats(ctx context.Context, _ *mcp.CallToolRequest, _ EmptyInput) (
	*mcp.CallToolResult, *StatsOutput, error,
) {
	out, err := call(s, ctx, "get_stats", nil, func() (*StatsOutput, error) {
		st, err := s.svc.Stats(ctx)
		if err != nil {
			return nil, err
		}
		return toStatsOutput(st), nil
	})
	return nil, out, err
}

func (s *Server) handleValidateSkills(ctx context.Context, _ *mcp.CallToolRequest, _ EmptyInput) (
	*mcp.CallToolResult, *validation.Report, error,
) {
	out, err := call(s, ctx, "validate_skills", nil, func() (*validation.Report, error) {
		return s.svc.ValidateAll(ctx)
	})
	return nil, out, err
}

func searchAttrs(in SearchInput) []slog.Attr {
	return []slog.Attr{slog.String("query", in.Query), slog.Int("limit", in.Limit)}
}

// Serve runs the server on the given transport until ctx is done.
func (s *Server) Serve(ctx context.Context, transport string) error {
	s.logger.Info("starting MCP server", slog.String("transport", transport))

	switch transport {
	case "stdio":
		err := s.mcp.Run(ctx, &mcp.StdioTransport{})
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("MCP server stopped with error", slog.String("error", err.Error()))
			return err
		}
		s.logger.Info("MCP server stopped")
		return nil
	default:
		return fmt.Errorf("unknown transport: %s (supported: stdio)", transport)
	}
}
