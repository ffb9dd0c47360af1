package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/stackforge/stackforge/pkg/presenter"
	"github.com/stackforge/stackforge/pkg/stacks"
)

var stacksCmd = &cobra.Command{
	Use:   "stacks",
	Short: "Inspect stack templates",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Help()
	},
}

var stacksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available stack templates",
	Run: func(cmd *cobra.Command, _ []string) {
		runStacksList(cmd.Context())
	},
}

func init() {
	stacksCmd.AddCommand(stacksListCmd)
}

func runStacksList(ctx context.Context) {
	appConfig, err := loadAppConfig()
	if err != nil {
		presenter.Error(err, "Failed to load configuration")
		os.Exit(1)
	}

	cache := stacks.NewCache()
	var all []*stacks.Stack
	seen := make(map[string]bool)
	for _, dir := range stackDirs(appConfig) {
		loaded, err := cache.Load(ctx, dir)
		if err != nil {
			presenter.Error(err, fmt.Sprintf("Failed to load stacks from %s", dir))
			os.Exit(1)
		}
		for _, stack := range loaded {
			if !seen[stack.Name] {
				seen[stack.Name] = true
				all = append(all, stack)
			}
		}
	}

	if len(all) == 0 {
		presenter.Info("No stack templates found")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tAGENTS\tSKILLS\tDESCRIPTION")
	for _, stack := range all {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n",
			stack.Name, strings.Join(stack.Agents, ","), len(stack.SelectedSkills()), stack.Description)
	}
	w.Flush()
}
