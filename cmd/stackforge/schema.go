package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"

	"github.com/stackforge/stackforge/pkg/presenter"
	"github.com/stackforge/stackforge/pkg/sources"
	"github.com/stackforge/stackforge/pkg/stacks"
)

var schemaCmd = &cobra.Command{
	Use:   "schema <source|stack>",
	Short: "Print the JSON schema of a configuration document",
	Long: `Print the JSON schema of the source.yaml index document or the stack
template document, for editor integration and CI validation.`,
	Args: cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		runSchema(args[0])
	},
}

func runSchema(kind string) {
	reflector := &jsonschema.Reflector{
		DoNotReference: true,
	}

	var schema *jsonschema.Schema
	switch kind {
	case "source":
		schema = reflector.Reflect(&sources.Definition{})
	case "stack":
		schema = reflector.Reflect(&stacks.Stack{})
	default:
		presenter.Error(fmt.Errorf("unknown document kind %q", kind), "Expected 'source' or 'stack'")
		os.Exit(1)
	}

	output, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		presenter.Error(err, "Failed to marshal schema")
		os.Exit(1)
	}
	fmt.Println(string(output))
}
