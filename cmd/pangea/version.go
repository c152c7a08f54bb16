package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/pangea"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of pangea",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "pangea version %s\n", strings.TrimSpace(pangea.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
