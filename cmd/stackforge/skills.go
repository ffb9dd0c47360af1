package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/stackforge/stackforge/pkg/constraints"
	"github.com/stackforge/stackforge/pkg/presenter"
)

var skillsCmd = &cobra.Command{
	Use:   "skills",
	Short: "Inspect the merged skill matrix",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Help()
	},
}

var skillsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all skills in the merged matrix",
	Long:  `List every skill with its category, active source, and available sources.`,
	Run: func(cmd *cobra.Command, _ []string) {
		runSkillsList(cmd.Context())
	},
}

var skillsOptionsCmd = &cobra.Command{
	Use:   "options <category>",
	Short: "Show selectable skills in a category against a selection",
	Long: `Show each skill in the category with its display state (disabled,
discouraged, or recommended) given the current selection.

Examples:
  stackforge skills options framework
  stackforge skills options database -s react -s prisma`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		selection, _ := cmd.Flags().GetStringSlice("skill")
		runSkillsOptions(cmd.Context(), args[0], selection)
	},
}

func init() {
	skillsOptionsCmd.Flags().StringSliceP("skill", "s", nil, "Currently selected skill (repeatable)")
	skillsCmd.AddCommand(skillsListCmd)
	skillsCmd.AddCommand(skillsOptionsCmd)
}

func runSkillsList(ctx context.Context) {
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

	if len(m.Skills) == 0 {
		presenter.Info("No skills found")
		return
	}

	ids := make([]string, 0, len(m.Skills))
	for id := range m.Skills {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tACTIVE SOURCE\tSOURCES")
	for _, id := range ids {
		skill := m.Skills[id]
		sources := make([]string, 0, len(skill.AvailableSources))
		for _, src := range skill.AvailableSources {
			sources = append(sources, src.Name)
		}
		active := ""
		if skill.ActiveSource != nil {
			active = skill.ActiveSource.Name
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", id, skill.Name, skill.Category, active, strings.Join(sources, ","))
	}
	w.Flush()
}

func runSkillsOptions(ctx context.Context, category string, selection []string) {
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

	if allDisabled, summary := engine.CategoryAllDisabled(category, selection); allDisabled {
		presenter.Warning(fmt.Sprintf("All skills in %s are disabled: %s", category, summary))
	}

	options := engine.AvailableSkills(category, selection)
	if len(options) == 0 {
		presenter.Info(fmt.Sprintf("No skills in category %q", category))
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSTATE\tREASON")
	for _, opt := range options {
		state, reason := "", ""
		switch {
		case opt.Selected:
			state = "selected"
		case opt.Disabled:
			state, reason = "disabled", opt.DisableReason
		case opt.Discouraged:
			state, reason = "discouraged", opt.DiscourageReason
		case opt.Recommended:
			state, reason = "recommended", opt.RecommendReason
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", opt.ID, opt.Name, state, reason)
	}
	w.Flush()
}
