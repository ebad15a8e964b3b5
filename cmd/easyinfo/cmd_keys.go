package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"easyinfo/internal/persist"
)

var keysCmd = &cobra.Command{
	Use:   "keys [store.db]",
	Short: "List the entries of a .db store",
	Args:  cobra.ExactArgs(1),
	RunE:  runKeys,
}

func runKeys(cmd *cobra.Command, args []string) error {
	entries, err := persist.Entries(args[0])
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSAVED\tBYTES")
	for _, e := range entries {
		saved := "-"
		if !e.SavedAt.IsZero() {
			saved = e.SavedAt.Local().Format(time.DateTime)
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\n", e.Name, saved, e.Size)
	}
	return tw.Flush()
}
