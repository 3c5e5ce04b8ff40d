package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wardenlabs/warden/internal/version"
)

var (
	// Version information (set via ldflags during build)
	Version = version.Version
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "warden",
		Short: "warden - JavaScript/TypeScript code quality guardian",
		Long: `warden analyzes JavaScript and TypeScript code for complexity, security
issues, code smells, and best practice violations, validates findings to
suppress false positives, and links findings to later production alerts.`,
		Version: Version,
	}

	rootCmd.AddCommand(scanCmd())
	rootCmd.AddCommand(checkCmd())
	rootCmd.AddCommand(correlateCmd())
	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		// Handle custom exit codes from check command
		if exitErr, ok := err.(*CheckExitError); ok {
			if exitErr.Message != "" {
				fmt.Fprintf(os.Stderr, "Error: %s\n", exitErr.Message)
			}
			os.Exit(exitErr.Code)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			verbose, _ := cmd.Flags().GetBool("verbose")
			if verbose {
				fmt.Println(version.GetFullVersion())
			} else {
				fmt.Printf("warden version %s\n", version.GetVersion())
			}
		},
	}

	cmd.Flags().BoolP("verbose", "v", false, "Show detailed version information")
	return cmd
}
