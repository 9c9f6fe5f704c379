// Package cli implements the venued command line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configFile string
	quiet      bool
)

var rootCmd = &cobra.Command{
	Use:   "venued",
	Short: "venued - on-ledger trading venue daemon",
	Long: `venued runs three trading venues over a shared exact-integer ledger:
a constant-product AMM, a virtual-reserve bonding-curve market, and an
escrow-backed order book. It serves a JSON-RPC API and a websocket
event feed.`,
	Version: "0.1.0",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "conf", "", "configuration file path")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress output to console after startup")
}
