package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var blocksJSON bool

var blocksCmd = &cobra.Command{
	Use:   "blocks <article>",
	Short: "List the blocks of an article",
	Long:  `Print the block ids of an article, the handles annotations attach to.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadArticle(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if blocksJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(a.Blocks)
		}

		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		for _, b := range a.Blocks {
			kind := string(b.Kind)
			if b.Level > 0 {
				kind = fmt.Sprintf("h%d", b.Level)
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\n", b.ID, kind, preview(b.RawText, 60))
		}
		return tw.Flush()
	},
}

func preview(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}

func init() {
	blocksCmd.Flags().BoolVar(&blocksJSON, "json", false, "Output blocks as JSON")
	rootCmd.AddCommand(blocksCmd)
}
