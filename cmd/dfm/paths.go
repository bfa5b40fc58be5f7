package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fruitsalade/dfm/pkg/models"
	"github.com/fruitsalade/dfm/pkg/tree"
)

var flagLimit int

var pathsCmd = &cobra.Command{
	Use:   "paths [filter]",
	Short: "List absolute paths, optionally filtered as for autocomplete",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, doc, err := loadDocument(cmd.Context())
		if err != nil {
			return err
		}

		records := tree.EnumerateAll(doc.Root)
		if len(args) == 1 {
			records = tree.FilterPaths(records, args[0], flagLimit)
		}

		out := cmd.OutOrStdout()
		for _, rec := range records {
			if rec.Kind == models.KindFolder {
				fmt.Fprintln(out, folder(rec.FullPath))
			} else {
				fmt.Fprintln(out, value(rec.FullPath))
			}
		}
		return nil
	},
}

func init() {
	pathsCmd.Flags().IntVar(&flagLimit, "limit", tree.DefaultPathLimit, "maximum filtered results, 0 for no limit")
	rootCmd.AddCommand(pathsCmd)
}
