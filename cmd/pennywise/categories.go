package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pennywise-app/pennywise/internal/cli"
)

func categoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List known categories",
		Long:  `Display every spending category with its labeled-transaction count.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := initStorage(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			categories, err := store.GetCategories(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to get categories: %w", err)
			}

			if len(categories) == 0 {
				fmt.Println(cli.InfoStyle.Render("No categories found. Use 'pennywise import' to load transactions."))
				return nil
			}

			fmt.Println(cli.FormatTitle("Categories"))

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			fmt.Fprintf(w, "%s\t%s\n",
				cli.BoldStyle.Render("Name"),
				cli.BoldStyle.Render("Transactions"))
			fmt.Fprintf(w, "%s\t%s\n",
				strings.Repeat("-", 20),
				strings.Repeat("-", 12))
			for _, c := range categories {
				fmt.Fprintf(w, "%s\t%d\n", c.Name, c.Count)
			}
			return nil
		},
	}
}
