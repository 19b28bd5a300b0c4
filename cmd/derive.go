package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/macrolang/macroc/macro"
)

var (
	deriveWrite   bool
	deriveDiff    bool
	deriveJson    bool
	deriveOutPath string
)

var deriveCmd = &cobra.Command{
	Use:   "derive [paths...]",
	Short: "Generate derived implementations for annotated types",
	Long: `Reads //macro:derive directives in plain Go files and generates the
named implementations into a companion file per source file. Files
without directives are left alone.`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			fmt.Println("error: Please provide file or directory paths")
			os.Exit(1)
		}

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		engine := newEngine()
		job := generateJob{
			exts: macro.GoExtensions,
			proc: macro.DeriveProcessor,
			dest: engine.OutputPath,
		}
		runGenerate(ctx, logger, engine, args, job, deriveWrite, deriveDiff, deriveJson, deriveOutPath)
	},
}

func init() {
	deriveCmd.Flags().BoolVarP(&deriveWrite, "write", "w", false, "Write companion files next to their sources instead of stdout")
	deriveCmd.Flags().BoolVar(&deriveDiff, "diff", false, "Show a diff against the current companion files instead of writing")
	deriveCmd.Flags().BoolVar(&deriveJson, "json", false, "Output issues in JSON format")
	deriveCmd.Flags().StringVarP(&deriveOutPath, "output", "o", "", "Output path (when using JSON)")
}
