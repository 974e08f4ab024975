// Command railroad runs, inspects and stores railroad layouts.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"nyiyui.ca/hato/railroad/config"
)

type globals struct {
	configPath string
	logLevel   string
	config     config.Config
}

func main() {
	var g globals
	rootCmd := &cobra.Command{
		Use:           "railroad",
		Short:         "Rail layout and motion engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return g.setup()
		},
	}
	rootCmd.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "override the configured log level")

	rootCmd.AddCommand(runCmd(&g))
	rootCmd.AddCommand(stepCmd(&g))
	rootCmd.AddCommand(replayCmd(&g))
	rootCmd.AddCommand(validateCmd(&g))
	rootCmd.AddCommand(schemaCmd())
	rootCmd.AddCommand(projectCmd(&g))
	rootCmd.AddCommand(routeCmd(&g))
	rootCmd.AddCommand(presetsCmd())
	rootCmd.AddCommand(dbCmd(&g))

	err := rootCmd.Execute()
	zap.S().Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "railroad: %s\n", err)
		os.Exit(1)
	}
}

func (g *globals) setup() error {
	g.config = config.Default()
	if g.configPath != "" {
		var err error
		g.config, err = config.Load(g.configPath)
		if err != nil {
			return err
		}
	}
	if g.logLevel != "" {
		var level zapcore.Level
		if err := level.UnmarshalText([]byte(g.logLevel)); err != nil {
			return fmt.Errorf("log-level: %w", err)
		}
		g.config.LogLevel = level
	}
	return g.logTo("stderr")
}

// logTo replaces the global logger with one writing to paths.
func (g *globals) logTo(paths ...string) error {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(g.config.LogLevel)
	cfg.OutputPaths = paths
	logger, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	zap.ReplaceGlobals(logger)
	return nil
}
