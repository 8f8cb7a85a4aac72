package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/rendis/locallink/internal/engine/catalog"
)

func (c *cli) exportCmd() *cobra.Command {
	var (
		outputPath    string
		bookmarksOnly bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the catalog to CSV",
		Example: `  locallink export
  locallink export --output results.csv
  locallink export --bookmarks --output -`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := c.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			businesses, err := store.LoadCatalog()
			if err != nil {
				return fmt.Errorf("loading catalog: %w", err)
			}
			if bookmarksOnly {
				businesses = catalog.Bookmarked(businesses)
			}
			if len(businesses) == 0 {
				return fmt.Errorf("no businesses to export")
			}

			var w io.Writer = cmd.OutOrStdout()
			if outputPath != "-" {
				f, err := os.Create(outputPath)
				if err != nil {
					return fmt.Errorf("creating output: %w", err)
				}
				defer f.Close()
				w = f
			}

			if err := catalog.WriteCSV(w, businesses); err != nil {
				return fmt.Errorf("writing csv: %w", err)
			}

			if outputPath != "-" {
				fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d businesses to %s\n", len(businesses), outputPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "locallink.csv", "output file path, - for stdout")
	cmd.Flags().BoolVar(&bookmarksOnly, "bookmarks", false, "export bookmarked businesses only")
	return cmd
}
