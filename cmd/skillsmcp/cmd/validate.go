package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/skillsmcp/internal/output"
	"github.com/Aman-CERP/skillsmcp/internal/service"
)

func newValidateCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate skill metadata and files",
		Long: `Check every skill domain: _meta.json must parse and satisfy the schema,
SKILL.md must exist and every declared sub-skill file must be present.
Domains without tags or sub-skills produce warnings.

Exits non-zero when any error is found.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withService(cmd, func(ctx context.Context, svc *service.Service) error {
				report, err := svc.ValidateAll(ctx)
				if err != nil {
					return err
				}

				out := output.New(cmd.OutOrStdout())
				if jsonOutput {
					if err := out.JSON(report); err != nil {
						return err
					}
				} else {
					out.Validation(report)
				}

				if !report.Valid {
					return fmt.Errorf("validation failed with %d error(s)", len(report.Errors))
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
