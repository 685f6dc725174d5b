package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	var cfgPath string

	root := &cobra.Command{
		Use:          "quiz-solver",
		Short:        "Solve chains of LLM analysis quizzes",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "optional config file (yaml or json)")

	root.AddCommand(serveCMD(&cfgPath), solveCMD(&cfgPath))
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
