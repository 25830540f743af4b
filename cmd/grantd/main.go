// grantd is the reference deployment of the grantkit entitlement engine:
// the HTTP surface, the sweep schedule, and the notification worker in one
// process.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "grantd",
	Short: "Entitlement lifecycle engine for the marketplace",
	Long: `grantd grants time-bounded promotions and verification entitlements,
projects them into denormalized flags for fast reads, and expires them
through periodic reconciliation sweeps.`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the grantd version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("grantd", Version)
	},
}

func main() {
	rootCmd.AddCommand(versionCmd, serveCmd, sweepCmd, migrateCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
