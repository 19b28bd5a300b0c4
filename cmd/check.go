package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	tt "github.com/macrolang/macroc/internal/types"
	"github.com/macrolang/macroc/macro"
)

var (
	checkJson    bool
	checkOutPath string
)

var checkCmd = &cobra.Command{
	Use:   "check [paths...]",
	Short: "Report macro problems without generating code",
	Long: `Dry-runs the expansion of .gom files and validates the //macro:
directives of .go files. Nothing is written; problems are reported the
same way the generating commands report them.`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			fmt.Println("error: Please provide file or directory paths")
			os.Exit(1)
		}

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		engine := newEngine()
		runCheck(ctx, logger, engine, args, checkJson, checkOutPath)
	},
}

func init() {
	checkCmd.Flags().BoolVar(&checkJson, "json", false, "Output issues in JSON format")
	checkCmd.Flags().StringVarP(&checkOutPath, "output", "o", "", "Output path (when using JSON)")
}

func runCheck(ctx context.Context, logger *zap.Logger, engine *macro.Engine, paths []string, isJson bool, jsonOutput string) {
	results, err := macro.ProcessFiles(ctx, logger, engine, paths, macro.CheckExtensions, macro.CheckProcessor)
	if err != nil {
		logger.Error("Error processing files", zap.Error(err))
		os.Exit(1)
	}

	var issues []tt.Issue
	for _, result := range results {
		issues = append(issues, result.Issues...)
	}
	printIssues(logger, issues, isJson, jsonOutput)

	if len(issues) > 0 {
		os.Exit(1)
	}
}
