package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/macrolang/macroc/internal/derive"
	"github.com/macrolang/macroc/internal/wrap"
)

// listCmd: macroc list
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List every macro the engine knows about",
	Long: `Lists the pattern macros loaded from the configured include files, the
procedural macros (builtin and Starlark), and the derive generators and
wrappers the directives can name.`,
	Run: func(cmd *cobra.Command, args []string) {
		engine := newEngine()

		if names := engine.DefinedMacros(); len(names) > 0 {
			fmt.Println("pattern macros:")
			for _, name := range names {
				fmt.Printf("  %s!\n", name)
			}
		}

		registry := engine.Registry()
		fmt.Println("procedural macros:")
		for _, name := range registry.Names() {
			fmt.Printf("  %-15s %s\n", name+"!", registry.Doc(name))
		}

		fmt.Println("derive generators:")
		for _, name := range derive.Generators() {
			fmt.Printf("  %s\n", name)
		}

		fmt.Println("wrappers:")
		for _, name := range wrap.Wrappers() {
			fmt.Printf("  %s\n", name)
		}
	},
}
