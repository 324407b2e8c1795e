package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	lcadapter "github.com/aretw0/gloss/pkg/adapters/lifecycle"
	"github.com/aretw0/gloss/pkg/annotation"
	"github.com/aretw0/gloss/pkg/core"
)

var watchCmd = &cobra.Command{
	Use:   "watch [pattern]",
	Short: "Print changes to stored annotation records",
	Long: `Watch the annotation store and print a line for every record that changes.
The optional pattern is a glob over store keys (default "annotations_*").
Only the fs adapter can be watched.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		eng, err := openEngine(ctx)
		if err != nil {
			return err
		}
		defer eng.Close()

		w, ok := eng.KeyValue().(core.Watchable)
		if !ok {
			return fmt.Errorf("adapter %q cannot be watched", cfg.Store.Adapter)
		}

		pattern := annotation.KeyPrefix + "*"
		if len(args) == 1 {
			pattern = args[0]
		}
		events, err := w.Watch(ctx, pattern)
		if err != nil {
			return err
		}

		src := lcadapter.NewSource(events)
		if err := src.Start(ctx); err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for e := range src.Events() {
			fmt.Fprintln(out, e.String())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
