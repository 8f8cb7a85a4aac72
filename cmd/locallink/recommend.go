package main

import (
	"fmt"
	"io"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/rendis/locallink/internal/config"
	"github.com/rendis/locallink/internal/engine/recommend"
	"github.com/rendis/locallink/internal/model"
)

func (c *cli) recommendCmd() *cobra.Command {
	var (
		asJSON bool
		open   int
	)

	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Recommend businesses from reviews or your preferences",
		Example: `  locallink recommend
  locallink recommend --strategy preferences
  locallink recommend --json
  locallink recommend --open 1`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			strategy, err := recommend.ParseStrategy(c.cfg.Strategy)
			if err != nil {
				return err
			}

			store, err := c.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			businesses, err := store.LoadCatalog()
			if err != nil {
				return fmt.Errorf("loading catalog: %w", err)
			}

			reader := store.Signals()
			scorer := c.newScorer(reader)
			list := scorer.Recommend(strategy, businesses, reader)

			if open > 0 {
				if open > len(list.Items) {
					return fmt.Errorf("--open %d: only %d recommendations", open, len(list.Items))
				}
				scorer.RecordInteraction(list.Items[open-1].Business.ID, model.KindRecommendationView)
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(list)
			}
			writeRecommendations(cmd.OutOrStdout(), list)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.String("strategy", "reviews", "ranking strategy (reviews, preferences)")
	flags.Bool("exclude-bookmarked", false, "leave bookmarked businesses out of review-based results")
	flags.BoolVar(&asJSON, "json", false, "print the ranked list as JSON")
	flags.IntVar(&open, "open", 0, "record that you opened the n-th recommendation")
	_ = c.v.BindPFlag(config.KeyStrategy, flags.Lookup("strategy"))
	_ = c.v.BindPFlag(config.KeyExcludeBookmarked, flags.Lookup("exclude-bookmarked"))
	return cmd
}

var basisNotes = map[recommend.Basis]string{
	recommend.BasisNoData:      "The catalog is empty.",
	recommend.BasisTopRated:    "No reviews yet, showing top-rated businesses.",
	recommend.BasisReviews:     "Ranked by review quality and recency.",
	recommend.BasisColdStart:   "Bookmark or view a few businesses to personalize these picks.",
	recommend.BasisPreferences: "Based on your bookmarks and views.",
}

func writeRecommendations(out io.Writer, list recommend.RankedList) {
	fmt.Fprintf(out, "%s (%s)\n", basisNotes[list.Basis], list.Strategy)
	if len(list.Items) == 0 {
		fmt.Fprintln(out, "Nothing scores high enough yet.")
		return
	}
	for i, rec := range list.Items {
		fmt.Fprintf(out, "\n%d. %s [%d]\n", i+1, rec.Business.Name, rec.Score)
		fmt.Fprintf(out, "   %s\n", rec.Reason)
		if rec.Snippet != "" {
			fmt.Fprintf(out, "   %q\n", rec.Snippet)
		}
		if rec.Business.Deal != nil {
			fmt.Fprintf(out, "   Deal: %s\n", rec.Business.Deal.Description)
		}
	}
}
