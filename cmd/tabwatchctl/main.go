package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	apiFlag string
	rootCmd = &cobra.Command{
		Use:   "tabwatchctl",
		Short: "CLI client for the tabwatch REST API",
	}
)

func main() {
	rootCmd.PersistentFlags().StringVarP(&apiFlag, "api", "a", "http://localhost:8377", "Tabwatch service base URL")

	timingCmd := &cobra.Command{
		Use:   "timing",
		Short: "Show live timing for every tracked tab",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTiming(apiFlag, os.Stdout)
		},
	}
	rootCmd.AddCommand(timingCmd)

	closedCmd := &cobra.Command{
		Use:   "closed",
		Short: "List today's closed tabs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClosed(apiFlag, os.Stdout)
		},
	}
	rootCmd.AddCommand(closedCmd)

	reopenCmd := &cobra.Command{
		Use:   "reopen",
		Short: "Ask the browser to reopen a closed tab",
		RunE: func(cmd *cobra.Command, args []string) error {
			url, _ := cmd.Flags().GetString("url")
			title, _ := cmd.Flags().GetString("title")
			if url == "" {
				return fmt.Errorf("--url required")
			}
			return runReopen(apiFlag, url, title, os.Stdout)
		},
	}
	reopenCmd.Flags().StringP("url", "u", "", "Address to reopen (required)")
	reopenCmd.Flags().StringP("title", "t", "", "Title hint")
	_ = reopenCmd.MarkFlagRequired("url")
	rootCmd.AddCommand(reopenCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
