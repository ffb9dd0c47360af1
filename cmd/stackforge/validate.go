package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/stackforge/stackforge/pkg/constraints"
	"github.com/stackforge/stackforge/pkg/presenter"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a skill selection without compiling",
	Long: `Validate checks the selected skills for conflicts, unmet requirements, and
category exclusivity violations, and reports advisory warnings for missing
recommendations and unused setup skills. Exits nonzero when any error is
found; warnings never fail the command.

Examples:
  stackforge validate --skill react --skill vue
  stackforge validate -s react -s react-query`,
	Run: func(cmd *cobra.Command, _ []string) {
		skills, _ := cmd.Flags().GetStringSlice("skill")
		runValidate(cmd.Context(), skills)
	},
}

func init() {
	validateCmd.Flags().StringSliceP("skill", "s", nil, "Skill id or display name (repeatable)")
}

func runValidate(ctx context.Context, skills []string) {
	appConfig, err := loadAppConfig()
	if err != nil {
		presenter.Error(err, "Failed to load configuration")
		os.Exit(1)
	}

	m, err := loadMatrix(ctx, appConfig)
	if err != nil {
		presenter.Error(err, "Failed to build skill matrix")
		os.Exit(1)
	}

	engine := constraints.New(m, constraints.WithExpertMode(appConfig.ExpertMode))
	result := engine.ValidateSelection(skills)

	for _, verr := range result.Errors {
		presenter.Error(fmt.Errorf("%s", verr.Message), string(verr.Type))
	}
	for _, warning := range result.Warnings {
		presenter.Warning(warning.Message)
	}

	if !result.Valid {
		presenter.Error(fmt.Errorf("%d error(s)", len(result.Errors)), "Selection is not valid")
		os.Exit(1)
	}
	presenter.Success(fmt.Sprintf("Selection is valid (%d warnings)", len(result.Warnings)))
}
