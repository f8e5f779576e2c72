package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/skillsmcp/internal/output"
	"github.com/Aman-CERP/skillsmcp/internal/service"
)

func newListCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List skill domains",
		Long:  `List every indexed skill domain with its description and sub-skills.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withService(cmd, func(ctx context.Context, svc *service.Service) error {
				list, err := svc.List(ctx)
				if err != nil {
					return err
				}
				out := output.New(cmd.OutOrStdout())
				if jsonOutput {
					return out.JSON(list)
				}
				out.SkillList(list)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
