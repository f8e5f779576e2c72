package cmd

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	skerrors "github.com/Aman-CERP/skillsmcp/internal/errors"
	"github.com/Aman-CERP/skillsmcp/internal/output"
	"github.com/Aman-CERP/skillsmcp/internal/search"
	"github.com/Aman-CERP/skillsmcp/internal/service"
)

// searchOptions holds CLI flags shared by the search commands.
type searchOptions struct {
	limit      int
	domains    []string
	minScore   float64
	matchTypes []string
	jsonOutput bool
	all        bool
}

func (o searchOptions) toSearch() (search.Options, error) {
	types, err := search.ParseMatchTypes(o.matchTypes)
	if err != nil {
		return search.Options{}, skerrors.InvalidInput(skerrors.ErrCodeInvalidInput, err.Error())
	}
	return search.Options{
		Limit:      o.limit,
		Domains:    o.domains,
		MinScore:   o.minScore,
		MatchTypes: types,
	}, nil
}

func (o *searchOptions) bind(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&o.limit, "limit", "n", 0, "Maximum number of results (default from config)")
	cmd.Flags().StringSliceVar(&o.domains, "domain", nil, "Only return results from these domains (repeatable)")
	cmd.Flags().Float64Var(&o.minScore, "min-score", 0, "Drop results scoring below this")
	cmd.Flags().StringSliceVar(&o.matchTypes, "match-type", nil, "Only return these match types: name, description, tags, triggers, content")
	cmd.Flags().BoolVar(&o.jsonOutput, "json", false, "Output as JSON")
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search skill metadata",
		Long: `Search skill names, descriptions, tags and sub-skill triggers.

With --all, document content is searched too and metadata matches are
listed first.`,
		Example: `  skillsmcp search "form validation"
  skillsmcp search zod --limit 3
  skillsmcp search pagination --all --domain tables`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return runSearch(cmd, opts, func(ctx context.Context, svc *service.Service, so search.Options) (*search.Response, error) {
				if opts.all {
					return svc.SearchAll(ctx, query, so)
				}
				return svc.SearchSkills(ctx, query, so)
			})
		},
	}

	opts.bind(cmd)
	cmd.Flags().BoolVar(&opts.all, "all", false, "Search metadata and document content together")
	return cmd
}

func newSearchContentCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search-content <query>",
		Short: "Full-text search across skill documents",
		Long:  `Search the text of every SKILL.md and sub-skill document and show snippets around each match.`,
		Example: `  skillsmcp search-content "zod schema"
  skillsmcp search-content useForm --domain forms --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return runSearch(cmd, opts, func(ctx context.Context, svc *service.Service, so search.Options) (*search.Response, error) {
				return svc.SearchContent(ctx, query, so)
			})
		},
	}

	opts.bind(cmd)
	return cmd
}

func runSearch(cmd *cobra.Command, opts searchOptions,
	fn func(ctx context.Context, svc *service.Service, so search.Options) (*search.Response, error),
) error {
	so, err := opts.toSearch()
	if err != nil {
		return err
	}
	return withService(cmd, func(ctx context.Context, svc *service.Service) error {
		resp, err := fn(ctx, svc, so)
		if err != nil {
			return err
		}
		out := output.New(cmd.OutOrStdout())
		if opts.jsonOutput {
			return out.JSON(resp)
		}
		out.SearchResults(resp)
		return nil
	})
}
