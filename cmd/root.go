package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the meetfinder application
var rootCmd = &cobra.Command{
	Use:   "meetfinder",
	Short: "Finds meeting slots and books them on Google Calendar",
	Long: `meetfinder computes overlapping free time across participants' Google
Calendars within working hours and books meetings into the first suitable slot.

It can run as:
  - An HTTP API server for the scheduling frontend (serve)
  - An MCP (Model Context Protocol) server for AI assistants (mcp)
  - A one-shot CLI availability query (find)`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "meetfinder version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newMcpCmd())
	rootCmd.AddCommand(newFindCmd())
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
	rootCmd.AddCommand(newVersionCmd())
}
