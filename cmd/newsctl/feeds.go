package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"newsreader/internal/infra/scraper"
	"newsreader/internal/resilience/retry"
)

// Feed check outcomes.
const (
	feedOK      = "OK"
	feedEmpty   = "EMPTY"
	feedHTTP    = "HTTP_ERROR"
	feedTimeout = "TIMEOUT"
	feedError   = "ERROR"
)

// feedDiagnostic is the result of fetching one configured feed once.
type feedDiagnostic struct {
	Category     string    `json:"category"`
	URL          string    `json:"url"`
	Status       string    `json:"status"`
	HTTPCode     int       `json:"httpCode,omitempty"`
	Items        int       `json:"items"`
	Latest       time.Time `json:"latest,omitzero"`
	ResponseTime int64     `json:"responseTimeMs"`
	Error        string    `json:"error,omitempty"`
}

func (c *cli) feedsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feeds",
		Short: "Inspect the configured RSS feeds",
	}
	var concurrency int
	check := &cobra.Command{
		Use:   "check",
		Short: "Fetch every feed of the configured categories once and report its health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			type target struct{ category, url string }
			var targets []target
			feeds := cfg.FeedsByCategory()
			for _, cat := range cfg.Categories() {
				for _, u := range feeds[cat] {
					targets = append(targets, target{string(cat), u})
				}
			}

			// One attempt per feed: the point is to see failures, not to hide them.
			fetcher := scraper.NewRSSFetcher(&http.Client{Timeout: cfg.RSS.Timeout}).
				WithRetryConfig(retry.Config{MaxAttempts: 1})

			results := make([]feedDiagnostic, len(targets))
			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(max(concurrency, 1))
			for i, t := range targets {
				g.Go(func() error {
					results[i] = diagnoseFeed(ctx, fetcher, t.category, t.url)
					return nil
				})
			}
			_ = g.Wait()

			if c.asJSON {
				return c.printJSON(cmd.OutOrStdout(), results)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "CATEGORY\tSTATUS\tITEMS\tLATEST\tTIME\tURL")
			failed := 0
			for _, r := range results {
				latest := "-"
				if !r.Latest.IsZero() {
					latest = r.Latest.Format("2006-01-02 15:04")
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%dms\t%s\n", r.Category, r.Status, r.Items, latest, r.ResponseTime, r.URL)
				if r.Status != feedOK {
					failed++
				}
			}
			_ = tw.Flush()
			fmt.Fprintf(cmd.OutOrStdout(), "\n%d feeds, %d healthy, %d failing\n", len(results), len(results)-failed, failed)
			return nil
		},
	}
	check.Flags().IntVar(&concurrency, "concurrency", 4, "feeds fetched at once")
	cmd.AddCommand(check)
	return cmd
}

func diagnoseFeed(ctx context.Context, f *scraper.RSSFetcher, category, url string) feedDiagnostic {
	d := feedDiagnostic{Category: category, URL: url}
	start := time.Now()
	articles, err := f.Fetch(ctx, url)
	d.ResponseTime = time.Since(start).Milliseconds()

	var httpErr *retry.HTTPError
	var netErr net.Error
	switch {
	case errors.As(err, &httpErr):
		d.Status = feedHTTP
		d.HTTPCode = httpErr.StatusCode
		d.Error = err.Error()
	case errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()):
		d.Status = feedTimeout
		d.Error = err.Error()
	case err != nil:
		d.Status = feedError
		d.Error = err.Error()
	case len(articles) == 0:
		d.Status = feedEmpty
	default:
		d.Status = feedOK
	}

	d.Items = len(articles)
	for _, a := range articles {
		if a.PublishedAt.After(d.Latest) {
			d.Latest = a.PublishedAt
		}
	}
	return d
}
