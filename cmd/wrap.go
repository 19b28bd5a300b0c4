package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/macrolang/macroc/macro"
)

var (
	wrapWrite   bool
	wrapDiff    bool
	wrapJson    bool
	wrapOutPath string
)

var wrapCmd = &cobra.Command{
	Use:   "wrap [paths...]",
	Short: "Rewrite annotated functions into their wrapped form",
	Long: `Rewrites every function a //macro:wrap directive names and prints the
whole transformed file. With --write the source file is overwritten in
place. The directive survives the rewrite, so wrapping is not
idempotent: run it once per build, on pristine sources.`,
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
			proc: macro.WrapProcessor,
			dest: func(path string) string { return path },
		}
		runGenerate(ctx, logger, engine, args, job, wrapWrite, wrapDiff, wrapJson, wrapOutPath)
	},
}

func init() {
	wrapCmd.Flags().BoolVarP(&wrapWrite, "write", "w", false, "Overwrite source files with their wrapped form")
	wrapCmd.Flags().BoolVar(&wrapDiff, "diff", false, "Show the rewrite as a diff instead of writing")
	wrapCmd.Flags().BoolVar(&wrapJson, "json", false, "Output issues in JSON format")
	wrapCmd.Flags().StringVarP(&wrapOutPath, "output", "o", "", "Output path (when using JSON)")
}
