package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/macrolang/macroc/formatter"
	tt "github.com/macrolang/macroc/internal/types"
	"github.com/macrolang/macroc/macro"
)

var (
	expandWrite   bool
	expandDiff    bool
	expandJson    bool
	expandOutPath string
)

var expandCmd = &cobra.Command{
	Use:   "expand [paths...]",
	Short: "Expand macro source files into generated Go files",
	Long: `Expands every macro invocation in the given .gom files and prints the
generated Go source to stdout. With --write the output lands next to each
source file under the configured suffix instead.`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			fmt.Println("error: Please provide file or directory paths")
			os.Exit(1)
		}

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		engine := newEngine()
		job := generateJob{
			exts: macro.MacroExtensions,
			proc: macro.ExpandProcessor,
			dest: engine.OutputPath,
		}
		runGenerate(ctx, logger, engine, args, job, expandWrite, expandDiff, expandJson, expandOutPath)
	},
}

func init() {
	expandCmd.Flags().BoolVarP(&expandWrite, "write", "w", false, "Write generated files next to their sources instead of stdout")
	expandCmd.Flags().BoolVar(&expandDiff, "diff", false, "Show a diff against the current generated files instead of writing")
	expandCmd.Flags().BoolVar(&expandJson, "json", false, "Output issues in JSON format")
	expandCmd.Flags().StringVarP(&expandOutPath, "output", "o", "", "Output path (when using JSON)")
}

// generateJob is what one generating subcommand does with a file: which
// files it consumes, the transformation, and where the output lands.
type generateJob struct {
	exts []string
	proc macro.Processor
	dest func(path string) string
}

func runGenerate(ctx context.Context, logger *zap.Logger, engine *macro.Engine, paths []string, job generateJob, write, showDiff, isJson bool, jsonOutput string) {
	results, err := macro.ProcessFiles(ctx, logger, engine, paths, job.exts, job.proc)
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

	for _, result := range results {
		if result.Output == nil {
			// nothing to generate for this file
			continue
		}
		dest := job.dest(result.Path)
		switch {
		case showDiff:
			before, err := os.ReadFile(dest)
			if err != nil && !os.IsNotExist(err) {
				logger.Error("Error reading generated file", zap.String("file", dest), zap.Error(err))
				os.Exit(1)
			}
			diff, err := macro.Unified(dest, before, result.Output)
			if err != nil {
				logger.Error("Error diffing generated file", zap.String("file", dest), zap.Error(err))
				os.Exit(1)
			}
			if diff != "" {
				fmt.Print(diff)
			}
		case write:
			if err := os.WriteFile(dest, result.Output, 0o644); err != nil {
				logger.Error("Error writing generated file", zap.String("file", dest), zap.Error(err))
				os.Exit(1)
			}
			fmt.Printf("generated %s\n", dest)
		default:
			fmt.Print(string(result.Output))
		}
	}
}

func printIssues(logger *zap.Logger, issues []tt.Issue, isJson bool, jsonOutput string) {
	issuesByFile := make(map[string][]tt.Issue)
	for _, issue := range issues {
		issuesByFile[issue.Filename] = append(issuesByFile[issue.Filename], issue)
	}

	sortedFiles := make([]string, 0, len(issuesByFile))
	for filename := range issuesByFile {
		sortedFiles = append(sortedFiles, filename)
	}
	sort.Strings(sortedFiles)

	if !isJson {
		// text output
		for _, filename := range sortedFiles {
			fileIssues := issuesByFile[filename]
			sourceCode, err := tt.ReadSourceCode(filename)
			if err != nil {
				logger.Error("Error reading source file", zap.String("file", filename), zap.Error(err))
				continue
			}
			output := formatter.GenerateFormattedIssue(fileIssues, sourceCode)
			fmt.Println(output)
		}
	} else {
		// JSON output
		d, err := json.Marshal(issuesByFile)
		if err != nil {
			logger.Error("Error marshalling issues to JSON", zap.Error(err))
			return
		}
		if jsonOutput == "" {
			fmt.Println(string(d))
		} else {
			f, err := os.Create(jsonOutput)
			if err != nil {
				logger.Error("Error creating JSON output file", zap.Error(err))
				return
			}
			defer f.Close()
			_, err = f.Write(d)
			if err != nil {
				logger.Error("Error writing JSON output file", zap.Error(err))
				return
			}
		}
	}
}
