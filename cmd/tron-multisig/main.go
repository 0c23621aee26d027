package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var rootCmd = &cobra.Command{
		Use:           "tron-multisig",
		Short:         "TRON multi-signature permission setter",
		Long:          "Reconfigure the owner/active permissions of a TRON account into a multi-signature scheme",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to configuration file")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")

	rootCmd.AddCommand(NewSubmitCmd())
	rootCmd.AddCommand(NewKeystoreCmd())
	rootCmd.AddCommand(NewVersionCmd())
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
