package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/skillsmcp/internal/output"
	"github.com/Aman-CERP/skillsmcp/internal/service"
)

func newGetCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "get <domain> [sub-skill]",
		Short: "Print a skill document",
		Long: `Print a domain's SKILL.md, or one of its sub-skill documents when a
sub-skill name is given.`,
		Example: `  skillsmcp get forms
  skillsmcp get forms validation
  skillsmcp get forms --json`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, func(ctx context.Context, svc *service.Service) error {
				out := output.New(cmd.OutOrStdout())

				var (
					doc     any
					content string
				)
				if len(args) == 2 {
					sub, err := svc.GetSub(ctx, args[0], args[1])
					if err != nil {
						return err
					}
					doc, content = sub, sub.Content
				} else {
					skill, err := svc.Get(ctx, args[0])
					if err != nil {
						return err
					}
					doc, content = skill, skill.Content
				}

				if jsonOutput {
					return out.JSON(doc)
				}
				out.Raw(content)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
