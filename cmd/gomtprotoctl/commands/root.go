// Package commands implements the gomtprotoctl subcommands.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// dcID selects which published datacenter a command connects to.
	dcID int32

	// testDC routes the connection to the test network instead of
	// production when set.
	testDC bool
)

// rootCmd is the top-level cobra command for gomtprotoctl.
var rootCmd = &cobra.Command{
	Use:           "gomtprotoctl",
	Short:         "Low-level probe for the gomtproto transport, handshake and sender layers",
	Long:          "gomtprotoctl dials a Telegram datacenter directly to exercise the framed transport, the authorization-key handshake, and a single sender, without any application schema.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().Int32Var(&dcID, "dc", 2, "datacenter id to connect to")
	rootCmd.PersistentFlags().BoolVar(&testDC, "test", false, "connect to the test network instead of production")

	rootCmd.AddCommand(handshakeCmd())
	rootCmd.AddCommand(pingCmd())
	rootCmd.AddCommand(invokeCmd())
	rootCmd.AddCommand(factorizeCmd())
	rootCmd.AddCommand(dcCmd())
	rootCmd.AddCommand(versionCmd())
}

// Execute runs the root command and exits with code 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
