package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	host    string
	port    int
	version = "dev" // Set by build
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "inboxpilot",
	Short: "InboxPilot - AI email assistant gateway",
	Long: `InboxPilot authenticates users against Google once, keeps their
credentials in bounded in-memory sessions, and serves a chat interface
for reading, replying to, deleting, searching and organizing mail with
AI-generated summaries and drafts.`,
	Version: version,
	// Default to serve command when no subcommand is specified
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveCmd.RunE(cmd, args)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "inboxpilot.yaml", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&host, "host", "", "Server host address (overrides config)")
	rootCmd.PersistentFlags().IntVarP(&port, "port", "p", 0, "Server port number (overrides config)")
}
