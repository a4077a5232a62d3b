package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"newsreader/internal/app"
	"newsreader/internal/domain/entity"
	"newsreader/internal/usecase/news"
)

var errNotFound = errors.New("article not found")

func (c *cli) refreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Fetch every configured category and save a snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				res := load(ctx, cmd, a).News
				if c.asJSON {
					return c.printJSON(cmd.OutOrStdout(), res)
				}
				printRefresh(cmd.OutOrStdout(), res)
				return nil
			})
		},
	}
}

func printRefresh(w io.Writer, res news.RefreshResult) {
	fmt.Fprintf(w, "%s: %d articles from %s (%s, %s)\n",
		res.Status, res.Articles, res.Origin, res.Connectivity, res.Duration.Round(time.Millisecond))
	for _, err := range []error{res.FetchErr, res.CacheErr, res.PersistErr} {
		if err != nil {
			fmt.Fprintf(w, "  warning: %v\n", err)
		}
	}
}

type listOptions struct {
	search    string
	category  string
	allImages bool
}

func (o listOptions) filter() (news.Filter, error) {
	f := news.Filter{Search: o.search, RequireImage: !o.allImages}
	if o.category != "" && !strings.EqualFold(o.category, string(entity.CategoryAll)) {
		cat, err := entity.ParseCategory(o.category)
		if err != nil {
			return news.Filter{}, err
		}
		f.Category = cat
	}
	return f, nil
}

// listItem is the JSON shape of one listed article.
type listItem struct {
	entity.Article
	Favorited bool `json:"favorited"`
}

func (c *cli) listCmd() *cobra.Command {
	var opts listOptions
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cached headlines, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := opts.filter()
			if err != nil {
				return err
			}
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				res := load(ctx, cmd, a).News
				articles := a.News.Query(f)

				if c.asJSON {
					items := make([]listItem, 0, len(articles))
					for _, art := range articles {
						items = append(items, listItem{Article: art, Favorited: a.Favorites.IsFavorited(art.URL)})
					}
					return c.printJSON(cmd.OutOrStdout(), items)
				}
				if len(articles) == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "no articles (%s, %s)\n", res.Status, res.Connectivity)
					return nil
				}
				printArticles(cmd.OutOrStdout(), articles, a.Favorites.IsFavorited)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&opts.search, "search", "s", "", "case-insensitive title filter")
	cmd.Flags().StringVarP(&opts.category, "category", "c", "", "only this category (or \"all\")")
	cmd.Flags().BoolVar(&opts.allImages, "all-images", false, "include articles without a preview image")
	return cmd
}

func printArticles(w io.Writer, articles []entity.Article, favorited func(string) bool) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "\tPUBLISHED\tCATEGORY\tSOURCE\tTITLE\tURL")
	for _, a := range articles {
		mark := " "
		if favorited(a.URL) {
			mark = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			mark, a.PublishedAt.Format("2006-01-02 15:04"), a.Category, a.Source, a.Title, a.URL)
	}
	_ = tw.Flush()
}

func (c *cli) showCmd() *cobra.Command {
	var full bool
	cmd := &cobra.Command{
		Use:   "show <url>",
		Short: "Show one article from the cache or from favorites",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			url := args[0]
			if err := entity.ValidateURL(url); err != nil {
				return err
			}
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				load(ctx, cmd, a)
				art, ok := a.News.Get(url)
				if !ok {
					if art, ok = a.Favorites.Get(url); !ok {
						return fmt.Errorf("%w: %s", errNotFound, url)
					}
				}
				if full {
					art = a.News.Expand(ctx, art)
				}
				if c.asJSON {
					return c.printJSON(cmd.OutOrStdout(), listItem{Article: art, Favorited: a.Favorites.IsFavorited(art.URL)})
				}
				printArticle(cmd.OutOrStdout(), art, a.Favorites.IsFavorited(art.URL))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&full, "full", false, "fetch the full text when the stored content is short")
	return cmd
}

func printArticle(w io.Writer, a entity.Article, favorited bool) {
	fmt.Fprintln(w, a.Title)
	fmt.Fprintf(w, "%s | %s | %s\n", a.Source, a.Category, a.PublishedAt.Format(time.RFC1123))
	fmt.Fprintln(w, a.URL)
	if favorited {
		fmt.Fprintln(w, "★ favorite")
	}
	if a.Content != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, a.Content)
	}
}
