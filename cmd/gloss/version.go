package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/gloss"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of gloss",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "gloss version %s\n", strings.TrimSpace(gloss.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
