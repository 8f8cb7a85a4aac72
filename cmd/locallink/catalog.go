package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/rendis/locallink/internal/engine/catalog"
	"github.com/rendis/locallink/internal/engine/storage"
	"github.com/rendis/locallink/internal/model"
)

func (c *cli) importCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "import <listings.json>",
		Short:   "Import business listings from a JSON file",
		Example: "  locallink import ./listings.json",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			businesses, issues, err := catalog.LoadFile(args[0])
			if err != nil {
				return err
			}
			for _, is := range issues {
				c.log.Warn().Int("entry", is.Index).Str("business_id", is.ID).Str("field", is.Field).
					Err(is.Err).Msg("malformed listing")
			}

			store, err := c.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			n, err := store.InsertBatch(businesses)
			if err != nil {
				return err
			}
			total, err := store.Count()
			if err != nil {
				return fmt.Errorf("counting businesses: %w", err)
			}
			c.log.Info().Int("imported", n).Int("total", total).Str("file", args[0]).Msg("listings imported")
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d businesses (%d in catalog)\n", n, total)
			if len(issues) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "%d malformed entries or fields were skipped, see the log\n", len(issues))
			}
			return nil
		},
	}
}

func (c *cli) searchCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "search <query>",
		Short:   "Search businesses by name, category, description or tag",
		Example: "  locallink search coffee\n  locallink search \"eco friendly\"",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			businesses, err := store.LoadCatalog()
			if err != nil {
				return fmt.Errorf("loading catalog: %w", err)
			}

			found := catalog.Search(businesses, strings.Join(args, " "))
			if len(found) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No businesses found.")
				return nil
			}
			return writeBusinessTable(cmd.OutOrStdout(), found)
		},
	}
}

func (c *cli) viewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "view <id>",
		Short: "Show a business and count it as viewed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.RecordView(args[0]); err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					return fmt.Errorf("no business with id %q", args[0])
				}
				return err
			}

			businesses, err := store.LoadCatalog()
			if err != nil {
				return fmt.Errorf("loading catalog: %w", err)
			}
			b, _ := catalog.Find(businesses, args[0])
			views, err := store.ViewCount(b.ID)
			if err != nil {
				return err
			}
			writeBusinessCard(cmd.OutOrStdout(), b, views)
			return nil
		},
	}
}

func writeBusinessTable(out io.Writer, businesses []model.Business) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tRATING\tPRICE\tBOOKMARKED")
	for _, b := range businesses {
		mark := ""
		if b.Bookmarked {
			mark = "★"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			b.ID, b.Name, b.Category, b.RatingLabel(), strings.Repeat("$", b.PriceRange), mark)
	}
	return w.Flush()
}

func writeBusinessCard(out io.Writer, b model.Business, views int) {
	fmt.Fprintf(out, "%s (%s)\n", b.Name, b.ID)
	fmt.Fprintf(out, "  %s★ · %s reviews · %s\n", b.RatingLabel(), humanize.Comma(int64(b.ReviewCount)), b.Category)

	row := func(label, value string) {
		if value != "" {
			fmt.Fprintf(out, "  %-9s %s\n", label, value)
		}
	}
	row("Address:", b.Address)
	row("Phone:", b.Phone)
	row("Website:", b.Website)
	row("Price:", strings.Repeat("$", b.PriceRange))
	row("Tags:", strings.Join(b.Tags, ", "))
	if b.Deal != nil {
		row("Deal:", b.Deal.Description)
	}
	if b.Bookmarked {
		row("Saved:", "bookmarked")
	}
	row("Views:", humanize.Comma(int64(views)))
	if b.Description != "" {
		fmt.Fprintf(out, "\n  %s\n", b.Description)
	}
}
