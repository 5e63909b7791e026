package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/weftworks/loom/internal/cli"
	"github.com/weftworks/loom/pkg/flowfile"
)

// inspectCmd prints the structure of a flow file without executing it.
var inspectCmd = &cobra.Command{
	Use:   "inspect <flow.yaml>",
	Short: "Show the structure of a flow file",
	Run: func(cmd *cobra.Command, args []string) {
		flow, err := cli.LoadFlow(args[0])
		if err == nil {
			_, err = flow.Compile()
		}
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		if flow.Name != "" {
			fmt.Printf("flow: %s\n", flow.Name)
		}
		if len(flow.Vars) > 0 {
			keys := make([]string, 0, len(flow.Vars))
			for k := range flow.Vars {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Println("vars:")
			for _, k := range keys {
				fmt.Printf("  %s: %v\n", k, flow.Vars[k])
			}
		}
		fmt.Println("steps:")
		printSteps(flow.Steps, "  ")
	},
	Args: cobra.ExactArgs(1),
}

func printSteps(steps []flowfile.Step, indent string) {
	for _, step := range steps {
		for kind, raw := range step {
			fmt.Printf("%s- %s\n", indent, kind)
			cfg, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			for _, key := range []string{"body", "then", "else", "steps"} {
				if nested, ok := cfg[key].([]any); ok {
					fmt.Printf("%s  %s:\n", indent, key)
					printSteps(toSteps(nested), indent+"    ")
				}
			}
		}
	}
}

func toSteps(raw []any) []flowfile.Step {
	steps := make([]flowfile.Step, 0, len(raw))
	for _, item := range raw {
		if m, ok := item.(map[string]any); ok {
			steps = append(steps, flowfile.Step(m))
		}
	}
	return steps
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}
