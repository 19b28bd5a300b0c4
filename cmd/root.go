package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/macrolang/macroc/macro"
)

const defaultTimeout = 5 * time.Minute

var (
	cfgFile     string
	timeout     time.Duration
	ignorePaths string
	verbose     bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:              "macroc [paths...]",
	Short:            "macroc - a compile-time macro expander for Go sources",
	TraverseChildren: true, // Prioritize subcommands
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogger()
	},
	Run: func(cmd *cobra.Command, args []string) {
		// no subcommand
		if len(args) == 0 {
			// display help when only 'macroc' is entered
			_ = cmd.Help()
			return
		}
		// Format: macroc [path1 path2 ...] => behaves like the expand subcommand
		expandCmd.Run(expandCmd, args)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func setupLogger() error {
	var err error
	if verbose {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// newEngine builds the macro engine every generating subcommand shares,
// from the configuration file plus the command line ignore patterns.
func newEngine() *macro.Engine {
	engine, err := macro.New(cfgFile)
	if err != nil {
		logger.Fatal("Failed to initialize macro engine", zap.Error(err))
	}

	if ignorePaths != "" {
		paths := strings.Split(ignorePaths, ",")
		for _, path := range paths {
			engine.IgnorePath(strings.TrimSpace(path))
		}
	}
	return engine
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Path to the configuration file (default \".macroc.yaml\" when present)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", defaultTimeout, "Timeout for the whole run")
	rootCmd.PersistentFlags().StringVar(&ignorePaths, "ignore-paths", "", "Comma-separated list of glob patterns to skip")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(expandCmd)
	rootCmd.AddCommand(deriveCmd)
	rootCmd.AddCommand(wrapCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(listCmd)
}
