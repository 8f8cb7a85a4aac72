package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rendis/locallink/internal/engine/catalog"
	"github.com/rendis/locallink/internal/engine/storage"
)

func (c *cli) bookmarkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bookmark",
		Short: "Manage bookmarked businesses",
	}
	cmd.AddCommand(
		c.setBookmarkCmd("add", "Bookmark a business", true),
		c.setBookmarkCmd("remove", "Remove a bookmark", false),
		c.listBookmarksCmd(),
	)
	return cmd
}

func (c *cli) setBookmarkCmd(use, short string, on bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>...",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			for _, id := range args {
				if err := store.SetBookmark(id, on); err != nil {
					if errors.Is(err, storage.ErrNotFound) {
						return fmt.Errorf("no business with id %q", id)
					}
					return err
				}
				c.log.Debug().Str("business_id", id).Bool("on", on).Msg("bookmark updated")
			}

			verb := "Bookmarked"
			if !on {
				verb = "Removed bookmark from"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d business(es)\n", verb, len(args))
			return nil
		},
	}
}

func (c *cli) listBookmarksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List bookmarked businesses",
		Args:  cobra.NoArgs,
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
			saved := catalog.Bookmarked(businesses)
			if len(saved) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No bookmarks yet.")
				return nil
			}
			return writeBusinessTable(cmd.OutOrStdout(), saved)
		},
	}
}
