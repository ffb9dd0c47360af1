package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/stackforge/stackforge/pkg/agents"
	"github.com/stackforge/stackforge/pkg/compile"
	"github.com/stackforge/stackforge/pkg/constraints"
	"github.com/stackforge/stackforge/pkg/pkgversion"
	"github.com/stackforge/stackforge/pkg/presenter"
	"github.com/stackforge/stackforge/pkg/stacks"
)

type CompileConfig struct {
	Name        string
	Description string
	Skills      []string
	Agents      []string
	Stack       string
	Output      string
}

func NewCompileConfig() *CompileConfig {
	return &CompileConfig{}
}

var compileCmd = &cobra.Command{
	Use:   "compile",
	Short: "Compile a skill selection into a versioned package",
	Long: `Compile validates the selected skills, assigns every selected skill to
every listed agent under its category, and writes a versioned package
manifest plus a content-hash file used for the next version comparison.

Skills may be given by id or display name. A stack template can seed the
selection and the agent list; --skill entries are added on top.

Examples:
  stackforge compile --name my-stack --skill react --skill postgres --agent planner --agent coder
  stackforge compile --name my-stack --stack fullstack-go
  stackforge compile --name my-stack --stack fullstack-go --skill redis -o ./out`,
	Run: func(cmd *cobra.Command, _ []string) {
		config := getCompileConfigFromFlags(cmd)
		runCompile(cmd.Context(), config)
	},
}

func init() {
	defaults := NewCompileConfig()
	compileCmd.Flags().StringP("name", "n", defaults.Name, "Package name (required)")
	compileCmd.Flags().String("description", defaults.Description, "Package description")
	compileCmd.Flags().StringSliceP("skill", "s", defaults.Skills, "Skill id or display name (repeatable)")
	compileCmd.Flags().StringSliceP("agent", "a", defaults.Agents, "Agent id receiving the skills (repeatable)")
	compileCmd.Flags().String("stack", defaults.Stack, "Stack template seeding the selection")
	compileCmd.Flags().StringP("output", "o", defaults.Output, "Output directory (defaults to config output_dir)")
	compileCmd.MarkFlagRequired("name")
}

func getCompileConfigFromFlags(cmd *cobra.Command) *CompileConfig {
	config := NewCompileConfig()
	if name, err := cmd.Flags().GetString("name"); err == nil {
		config.Name = name
	}
	if description, err := cmd.Flags().GetString("description"); err == nil {
		config.Description = description
	}
	if skills, err := cmd.Flags().GetStringSlice("skill"); err == nil {
		config.Skills = skills
	}
	if agents, err := cmd.Flags().GetStringSlice("agent"); err == nil {
		config.Agents = agents
	}
	if stack, err := cmd.Flags().GetString("stack"); err == nil {
		config.Stack = stack
	}
	if output, err := cmd.Flags().GetString("output"); err == nil {
		config.Output = output
	}
	return config
}

func runCompile(ctx context.Context, config *CompileConfig) {
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

	selection := config.Skills
	agentIDs := config.Agents
	var prebuilt compile.Config
	if config.Stack != "" {
		stack, err := findStack(ctx, appConfig, config.Stack)
		if err != nil {
			presenter.Error(err, "Failed to load stack template")
			os.Exit(1)
		}
		selection = append(stack.SelectedSkills(), selection...)
		if len(agentIDs) == 0 {
			agentIDs = stack.Agents
		}
		for _, id := range config.Skills {
			if !stack.Allows(m.Resolve(id)) {
				presenter.Error(fmt.Errorf("skill %q is not allowed by stack %q", id, stack.Name), "Invalid selection")
				os.Exit(1)
			}
		}
		// Resolve through the preload policy so template preload flags and
		// key-category preloads reach the manifest; extra skills ride along
		// on demand.
		prebuilt = compile.ResolveAgentSkillsFromStack(ctx, stack.ConfigFor(agentIDs), m)
		prebuilt = compile.MergeSelection(ctx, prebuilt, config.Skills, m, agentIDs)
	}

	if err := checkAgentDefinitions(ctx, agentIDs); err != nil {
		presenter.Error(err, "Unknown agent")
		os.Exit(1)
	}

	output := config.Output
	if output == "" {
		output = appConfig.OutputDir
	}

	engine := constraints.New(m, constraints.WithExpertMode(appConfig.ExpertMode))
	compiler := compile.NewCompiler(m, engine, pkgversion.NewFileStore(output))

	result, err := compiler.Compile(ctx, compile.Request{
		Name:        config.Name,
		Description: config.Description,
		Skills:      selection,
		Agents:      agentIDs,
		Config:      prebuilt,
	})
	if err != nil {
		presenter.Error(err, "Compilation failed")
		os.Exit(1)
	}

	for _, warning := range result.Validation.Warnings {
		presenter.Warning(warning.Message)
	}
	presenter.Success(fmt.Sprintf("Compiled package %s version %s (%d skills, %d agents)",
		result.Manifest.Name, result.State.Version, len(result.Manifest.Skills), len(result.Manifest.Agents)))
}

// checkAgentDefinitions rejects agent ids with no definition file. Running
// without any definition files at all is fine; the agent list is then taken
// at face value.
func checkAgentDefinitions(ctx context.Context, agentIDs []string) error {
	processor, err := agents.NewProcessor()
	if err != nil {
		return err
	}
	definitions, err := processor.LoadAll(ctx)
	if err != nil || len(definitions) == 0 {
		return err
	}

	config := make(compile.Config, len(agentIDs))
	for _, id := range agentIDs {
		config[id] = nil
	}
	return compile.ResolveAgents(config, definitions)
}

// findStack searches every configured stack directory, aggregating the
// available names across all of them for the not-found error.
func findStack(ctx context.Context, appConfig *AppConfig, name string) (*stacks.Stack, error) {
	cache := stacks.NewCache()
	var available []string
	seen := make(map[string]bool)
	for _, dir := range stackDirs(appConfig) {
		loaded, err := cache.Load(ctx, dir)
		if err != nil {
			return nil, err
		}
		for _, stack := range loaded {
			if stack.Name == name {
				return stack, nil
			}
			if !seen[stack.Name] {
				seen[stack.Name] = true
				available = append(available, stack.Name)
			}
		}
	}
	sort.Strings(available)
	return nil, errors.Errorf("stack %q not found (available stacks: %s)", name, strings.Join(available, ", "))
}
