package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/selivandex/newsdesk/internal/adapters/price"
	"github.com/selivandex/newsdesk/internal/feed"
	"github.com/selivandex/newsdesk/pkg/models"
)

var feedCmd = &cobra.Command{
	Use:   "feed [company]",
	Short: "Print the enriched news feed for a company",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		company := strings.Join(args, " ")
		category, _ := cmd.Flags().GetString("category")

		filter, err := feed.ParseFilter(category)
		if err != nil {
			return err
		}

		p, err := buildPipeline(cfg)
		if err != nil {
			return err
		}
		defer p.Close()

		raw, err := p.articles.Fetch(cmd.Context(), company)
		if err != nil {
			return fmt.Errorf("error fetching news for %s: %w", company, err)
		}

		printFeed(cmd.OutOrStdout(), company, p.processor.Process(cmd.Context(), raw, filter))
		return nil
	},
}

var quoteCmd = &cobra.Command{
	Use:   "quote [company]",
	Short: "Print the stock snapshot for a company",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		company := strings.Join(args, " ")

		p, err := buildPipeline(cfg)
		if err != nil {
			return err
		}
		defer p.Close()

		if p.quotes == nil {
			return fmt.Errorf("quotes are disabled")
		}

		ticker := price.TickerFor(company)
		q, err := p.quotes.GetQuote(cmd.Context(), ticker)
		if err != nil {
			return err
		}
		if q == nil {
			fmt.Fprintf(cmd.OutOrStdout(), "Stock data not found for %s (%s)\n", company, ticker)
			return nil
		}

		printQuote(cmd.OutOrStdout(), q)
		return nil
	},
}

func init() {
	feedCmd.Flags().String("category", string(feed.FilterAll), "category filter (All, Technology, Market, Press Releases)")
}

func printFeed(w io.Writer, company string, result feed.Result) {
	if msg := result.Message(company); msg != "" {
		fmt.Fprintln(w, msg)
		return
	}

	for i, a := range result.Articles {
		fmt.Fprintf(w, "%d. %s\n", i+1, a.Title)
		fmt.Fprintf(w, "   %s | %s | %s | %s (%.0f%%)\n",
			a.SourceName, a.DisplayTime(), a.Category, a.Sentiment.Stars(), a.Sentiment.Confidence*100)
		fmt.Fprintf(w, "   %s\n", a.Summary)
		if a.URL != "" {
			fmt.Fprintf(w, "   %s\n", a.URL)
		}
		fmt.Fprintln(w)
	}
}

func printQuote(w io.Writer, q *models.Quote) {
	fmt.Fprintf(w, "%s  %s  %s (%s%%)\n", q.Symbol, q.Price.StringFixed(2), q.Change.StringFixed(2), q.ChangePercent.StringFixed(2))
	fmt.Fprintf(w, "Volume: %d  Market cap: %s\n", q.Volume, q.MarketCap.StringFixed(0))
	if q.SMA20 != nil {
		fmt.Fprintf(w, "SMA20: %s\n", q.SMA20.StringFixed(2))
	}
	if q.RSI14 != nil {
		fmt.Fprintf(w, "RSI14: %s\n", q.RSI14.StringFixed(2))
	}
	if q.Trend != "" {
		fmt.Fprintf(w, "Trend: %s\n", q.Trend)
	}
	fmt.Fprintf(w, "History: %d daily closes\n", len(q.History))
}
