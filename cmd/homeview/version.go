package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/homeview"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of homeview",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "homeview version %s\n", strings.TrimSpace(homeview.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
