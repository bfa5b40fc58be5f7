package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fruitsalade/dfm/internal/navigation"
	"github.com/fruitsalade/dfm/pkg/models"
)

var searchCmd = &cobra.Command{
	Use:   "search <term>",
	Short: "Search folder and file names across the whole tree",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, doc, err := loadDocument(cmd.Context())
		if err != nil {
			return err
		}

		nav := navigation.New("cli", nil)
		nav.Reload(doc.Root)
		term := strings.Join(args, " ")
		results := nav.Search(term)

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s %s\n\n", label("🔎 Searching for:"), value(term))
		for _, rec := range results {
			name := value(rec.Name)
			if rec.Kind == models.KindFolder {
				name = folder(rec.Name + "/")
			}
			fmt.Fprintf(out, "  %s  %s\n", name, dim(rec.DisplayPath))
		}
		fmt.Fprintf(out, "\n%s %d\n", label("Matches:"), len(results))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
}
