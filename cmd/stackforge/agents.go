package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/stackforge/stackforge/pkg/agents"
	"github.com/stackforge/stackforge/pkg/presenter"
)

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "Inspect agent definitions",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Help()
	},
}

var agentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all agent definitions",
	Run: func(cmd *cobra.Command, _ []string) {
		runAgentsList(cmd.Context())
	},
}

func init() {
	agentsCmd.AddCommand(agentsListCmd)
}

func runAgentsList(ctx context.Context) {
	processor, err := agents.NewProcessor()
	if err != nil {
		presenter.Error(err, "Failed to create agent processor")
		os.Exit(1)
	}

	definitions, err := processor.LoadAll(ctx)
	if err != nil {
		presenter.Error(err, "Failed to load agents")
		os.Exit(1)
	}
	if len(definitions) == 0 {
		presenter.Info("No agent definitions found")
		return
	}

	ids := make([]string, 0, len(definitions))
	for id := range definitions {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tDESCRIPTION")
	for _, id := range ids {
		agent := definitions[id]
		fmt.Fprintf(w, "%s\t%s\t%s\n", agent.ID, agent.Name, agent.Description)
	}
	w.Flush()
}
