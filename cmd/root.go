// Package cmd provides the command-line interface for the triage CLI tool.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "triage",
	Short: "Triage analyzes issue trackers and explains every decision",
	Long: `Triage fetches issues, pull requests and commits from GitHub (or Jira,
or a local snapshot file), runs a deterministic rule-based analysis
pipeline over them, and writes explainable markdown and JSON artifacts:
quality scores, triage and lifecycle classifications, maintainer-cost
estimates, duplicate groups and a cross-reference dependency graph.

Every decision is traceable to the rule that produced it.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Add persistent flags that will be available to all commands
	rootCmd.PersistentFlags().StringP("repository", "r", "", "repository to analyze (e.g., 'owner/repo')")
}
