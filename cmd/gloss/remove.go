package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var removeCmd = &cobra.Command{
	Use:   "remove <article> <id>",
	Short: "Remove an annotation",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		eng, err := openEngine(ctx)
		if err != nil {
			return err
		}
		defer eng.Close()

		articleID, id := args[0], args[1]
		if _, ok := eng.Store.Load(ctx, articleID)[id]; !ok {
			return fmt.Errorf("annotation %s not found in %s", id, articleID)
		}
		if err := eng.Store.Remove(ctx, articleID, id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Annotation '%s' removed.\n", id)
		return nil
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear <article>",
	Short: "Remove every annotation of an article",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		eng, err := openEngine(ctx)
		if err != nil {
			return err
		}
		defer eng.Close()

		n := len(eng.Store.Load(ctx, args[0]))
		if err := eng.Store.Clear(ctx, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d annotation(s) removed from '%s'.\n", n, args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(clearCmd)
}
