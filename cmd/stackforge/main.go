package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stackforge/stackforge/pkg/logger"
	"github.com/stackforge/stackforge/pkg/matrix"
	"github.com/stackforge/stackforge/pkg/presenter"
	"github.com/stackforge/stackforge/pkg/sources"
)

// AppConfig is the viper-backed application configuration.
type AppConfig struct {
	SourceDirs       []string          `mapstructure:"source_dirs"`
	StackDirs        []string          `mapstructure:"stack_dirs"`
	OutputDir        string            `mapstructure:"output_dir"`
	SourceSelections map[string]string `mapstructure:"source_selections"`
	ExpertMode       bool              `mapstructure:"expert_mode"`
	LogLevel         string            `mapstructure:"log_level"`
	LogFormat        string            `mapstructure:"log_format"`
}

func init() {
	viper.SetEnvPrefix("STACKFORGE")
	viper.AutomaticEnv()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME/.stackforge")
	viper.AddConfigPath(".")

	viper.SetDefault("log_level", "warn")
	viper.SetDefault("log_format", "fmt")
	viper.SetDefault("output_dir", "./dist")

	// Load config file if it exists (ignore errors if it doesn't)
	_ = viper.ReadInConfig()
}

func loadAppConfig() (*AppConfig, error) {
	var config AppConfig
	decodeHook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := viper.Unmarshal(&config, decodeHook); err != nil {
		return nil, errors.Wrap(err, "failed to decode configuration")
	}
	return &config, nil
}

// loadMatrix runs the source load and multi-source merge, yielding the
// immutable matrix every command operates on.
func loadMatrix(ctx context.Context, config *AppConfig) (*matrix.Matrix, error) {
	var opts []sources.Option
	if len(config.SourceDirs) > 0 {
		opts = append(opts, sources.WithSourceDirs(config.SourceDirs...))
	}

	loader, err := sources.NewLoader(opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create source loader")
	}

	raw, err := loader.LoadAll(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load sources")
	}

	m, err := matrix.Merge(raw, config.SourceSelections)
	if err != nil {
		return nil, errors.Wrap(err, "failed to merge sources")
	}
	return m, nil
}

// stackDirs returns the configured stack directories, defaulting to the
// repo-local and user-global locations.
func stackDirs(config *AppConfig) []string {
	if len(config.StackDirs) > 0 {
		return config.StackDirs
	}
	dirs := []string{"./.stackforge/stacks"}
	if homeDir, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(homeDir, ".stackforge", "stacks"))
	}
	return dirs
}

var rootCmd = &cobra.Command{
	Use:   "stackforge",
	Short: "Assemble, validate, and package skill stacks for agents",
	Long: `Stackforge assembles a custom set of skills and agents from one or more
content sources, validates that the combination is internally consistent,
and compiles it into a versioned, distributable package.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if err := logger.SetLogLevel(viper.GetString("log_level")); err != nil {
			presenter.Warning(fmt.Sprintf("Invalid log level %q, using default", viper.GetString("log_level")))
		}
		logger.SetLogFormat(viper.GetString("log_format"))
		presenter.SetQuiet(viper.GetBool("quiet"))
	},
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Help()
	},
}

func main() {
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "fmt", "Log format (json, text, fmt)")
	rootCmd.PersistentFlags().Bool("quiet", false, "Suppress non-essential output")
	rootCmd.PersistentFlags().Bool("expert", false, "Expert mode: hard constraints become advisory")
	rootCmd.PersistentFlags().StringSlice("source-dir", nil, "Source root directories (overrides config)")

	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))
	viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	viper.BindPFlag("expert_mode", rootCmd.PersistentFlags().Lookup("expert"))
	viper.BindPFlag("source_dirs", rootCmd.PersistentFlags().Lookup("source-dir"))

	rootCmd.AddCommand(compileCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(skillsCmd)
	rootCmd.AddCommand(sourcesCmd)
	rootCmd.AddCommand(stacksCmd)
	rootCmd.AddCommand(agentsCmd)
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
