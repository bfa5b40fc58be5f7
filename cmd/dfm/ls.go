package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fruitsalade/dfm/internal/config"
	"github.com/fruitsalade/dfm/internal/navigation"
	"github.com/fruitsalade/dfm/pkg/tree"
)

var flagSort string

var lsCmd = &cobra.Command{
	Use:   "ls [path]",
	Short: "List the visible entries of a folder",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, doc, err := loadDocument(cmd.Context())
		if err != nil {
			return err
		}

		nav := navigation.New("cli", nil)
		nav.Reload(doc.Root)
		requested := "/"
		if len(args) == 1 {
			requested = args[0]
			nav.NavigateText(requested)
		}

		children := nav.Children()
		switch flagSort {
		case "", "document":
		case "updated":
			tree.SortByUpdated(children)
		default:
			return fmt.Errorf("unknown sort order %q", flagSort)
		}

		out := cmd.OutOrStdout()
		current := nav.Current()
		fmt.Fprintf(out, "%s %s\n", label("📂"), value(current.String()))
		if !current.Equal(tree.ParseTypedPath(requested)) {
			fmt.Fprintf(out, "%s\n", dim(fmt.Sprintf("(%s not found, showing nearest folder)", requested)))
		}
		fmt.Fprintln(out)

		l := newListing(out, config.ParseDisplayOptions(cfg.Display))
		l.header()
		for _, n := range children {
			l.row(n)
		}
		return l.flush()
	},
}

func init() {
	lsCmd.Flags().StringVar(&flagSort, "sort", "document", "entry order: document or updated")
	rootCmd.AddCommand(lsCmd)
}
