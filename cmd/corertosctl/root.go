package main

import (
	"github.com/spf13/cobra"
)

var (
	configPath string

	rootCmd = &cobra.Command{
		Use:   "corertosctl",
		Short: "Drive and inspect corertos host simulations",
		Long:  "corertosctl runs corertos's scheduler against a host simulation instead of real hardware, for exercising and benchmarking scheduling policy without a target board.",
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a kernel config YAML file (default: built-in baseline)")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(benchCmd)
}
