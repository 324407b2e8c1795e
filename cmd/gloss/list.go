package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var listJSON bool

type listedAnnotation struct {
	ID            string `json:"id"`
	BlockID       string `json:"blockId"`
	Note          string `json:"note"`
	QuotedExcerpt string `json:"quotedExcerpt"`
	StartOffset   int    `json:"startOffset"`
	EndOffset     int    `json:"endOffset"`
	CreatedAt     string `json:"createdAt,omitempty"`
}

var listCmd = &cobra.Command{
	Use:   "list <article>",
	Short: "List the annotations of an article",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		eng, err := openEngine(ctx)
		if err != nil {
			return err
		}
		defer eng.Close()

		var items []listedAnnotation
		for _, a := range eng.Store.Load(ctx, args[0]).Sorted() {
			item := listedAnnotation{
				ID:            a.ID,
				BlockID:       a.BlockID(),
				Note:          a.Note,
				QuotedExcerpt: a.QuotedExcerpt,
				StartOffset:   a.StartOffset,
				EndOffset:     a.EndOffset,
			}
			if at := a.CreatedAt(); !at.IsZero() {
				item.CreatedAt = at.UTC().Format("2006-01-02T15:04:05Z")
			}
			items = append(items, item)
		}

		out := cmd.OutOrStdout()
		if listJSON {
			if items == nil {
				items = []listedAnnotation{}
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(items)
		}

		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		for _, it := range items {
			fmt.Fprintf(tw, "%s\t%s\t%q\t%s\n", it.ID, it.BlockID, preview(it.QuotedExcerpt, 40), preview(it.Note, 60))
		}
		return tw.Flush()
	},
}

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output annotations as JSON")
	rootCmd.AddCommand(listCmd)
}
