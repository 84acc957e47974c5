package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"newscast/internal/feeds"
)

func newCategoriesCommand(ctx *commandContext) *cobra.Command {
	var showSources bool

	cmd := &cobra.Command{
		Use:   "categories",
		Short: "List the categories and sources of the feed catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			cat, err := feeds.LoadCatalog(cfg.Collector)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			rows := make([][]string, 0, len(cat.Categories))
			for _, category := range cat.Categories {
				rows = append(rows, []string{category.Name, strconv.Itoa(len(category.Keywords))})
			}
			fmt.Fprintln(out, renderTable([]column{col("Category"), numCol("Keywords")}, rows))

			if !showSources {
				return nil
			}
			rows = rows[:0]
			for _, src := range cat.Sources {
				category := src.Category
				if category == "" {
					category = "-"
				}
				rows = append(rows, []string{src.Name, src.Kind, category, src.URL})
			}
			fmt.Fprintln(out, renderTable([]column{col("Source"), col("Kind"), col("Category"), col("URL")}, rows))
			return nil
		},
	}
	cmd.Flags().BoolVar(&showSources, "sources", false, "Also list the upstream sources")
	return cmd
}
