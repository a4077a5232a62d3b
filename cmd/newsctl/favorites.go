package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"newsreader/internal/app"
	"newsreader/internal/domain/entity"
	"newsreader/internal/usecase/favorite"
)

// readFailure drops the load error of a malformed snapshot, which leaves a usable
// empty set. Anything else means the stored set could not be read.
func readFailure(err error) error {
	if errors.Is(err, favorite.ErrMalformedSnapshot) {
		return nil
	}
	return err
}

func (c *cli) favoritesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "favorites",
		Aliases: []string{"fav"},
		Short:   "Manage saved articles",
	}
	cmd.AddCommand(c.favoritesListCmd(), c.favoritesToggleCmd(), c.favoritesCheckCmd())
	return cmd
}

func (c *cli) favoritesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List favorites, most recently added last",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				if err := readFailure(a.Favorites.Load(ctx)); err != nil {
					return err
				}
				favs := a.Favorites.List()
				if c.asJSON {
					return c.printJSON(cmd.OutOrStdout(), favs)
				}
				if len(favs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "no favorites")
					return nil
				}
				printArticles(cmd.OutOrStdout(), favs, func(string) bool { return true })
				return nil
			})
		},
	}
}

// favoritesToggleCmd looks the URL up in the news cache so the saved copy carries
// the full article. Loading the cache may hit the network unless --offline is set.
func (c *cli) favoritesToggleCmd() *cobra.Command {
	var title string
	cmd := &cobra.Command{
		Use:   "toggle <url>",
		Short: "Add the article to favorites, or remove it if already saved",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			url := args[0]
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				started := load(ctx, cmd, a)
				if err := readFailure(started.FavoritesErr); err != nil {
					return err
				}

				art, ok := a.Favorites.Get(url)
				if !ok {
					if art, ok = a.News.Get(url); !ok {
						art = entity.Article{URL: url, Title: title}
					}
				}
				res, err := a.Favorites.Toggle(ctx, art)
				if err != nil {
					return err
				}
				if c.asJSON {
					return c.printJSON(cmd.OutOrStdout(), res)
				}
				verb := "removed from"
				if res.Favorited {
					verb = "added to"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s favorites (%d saved)\n", url, verb, res.Count)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "title to save when the article is not in the news cache")
	return cmd
}

func (c *cli) favoritesCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <url>",
		Short: "Report whether the article is a favorite",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				if err := readFailure(a.Favorites.Load(ctx)); err != nil {
					return err
				}
				fav := a.Favorites.IsFavorited(args[0])
				if c.asJSON {
					return c.printJSON(cmd.OutOrStdout(), map[string]any{"url": args[0], "favorited": fav})
				}
				fmt.Fprintln(cmd.OutOrStdout(), fav)
				return nil
			})
		},
	}
}
