package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/stackforge/stackforge/pkg/presenter"
	"github.com/stackforge/stackforge/pkg/sources"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Inspect configured skill sources",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Help()
	},
}

var sourcesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all configured sources",
	Run: func(cmd *cobra.Command, _ []string) {
		runSourcesList(cmd.Context())
	},
}

func init() {
	sourcesCmd.AddCommand(sourcesListCmd)
}

func runSourcesList(ctx context.Context) {
	appConfig, err := loadAppConfig()
	if err != nil {
		presenter.Error(err, "Failed to load configuration")
		os.Exit(1)
	}

	var opts []sources.Option
	if len(appConfig.SourceDirs) > 0 {
		opts = append(opts, sources.WithSourceDirs(appConfig.SourceDirs...))
	}
	loader, err := sources.NewLoader(opts...)
	if err != nil {
		presenter.Error(err, "Failed to create source loader")
		os.Exit(1)
	}

	raw, err := loader.LoadAll(ctx)
	if err != nil {
		presenter.Error(err, "Failed to load sources")
		os.Exit(1)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tKIND\tINSTALLED\tSKILLS\tURL")
	for _, src := range raw {
		fmt.Fprintf(w, "%s\t%s\t%t\t%d\t%s\n",
			src.Source.Name, src.Source.Kind, src.Source.Installed, len(src.Skills), src.Source.URL)
	}
	w.Flush()
}
