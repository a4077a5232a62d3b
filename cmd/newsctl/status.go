package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"newsreader/internal/app"
)

type statusView struct {
	Connectivity string    `json:"connectivity"`
	CheckedAt    time.Time `json:"checkedAt"`
}

func (c *cli) statusCmd() *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Report whether the news source is reachable",
		Long: "status probes the news source once. With --watch it keeps probing at the configured\n" +
			"interval and prints every change until interrupted.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				emit := func(v statusView) error {
					if c.asJSON {
						return c.printJSON(cmd.OutOrStdout(), v)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", v.CheckedAt.Format(time.TimeOnly), v.Connectivity)
					return nil
				}

				m := a.Monitor()
				if !watch || m == nil {
					status := a.Oracle().CurrentStatus(ctx)
					return emit(statusView{Connectivity: string(status), CheckedAt: time.Now()})
				}

				updates, cancel := m.Subscribe()
				defer cancel()
				a.StartBackground(ctx)
				for {
					select {
					case <-ctx.Done():
						return nil
					case s, ok := <-updates:
						if !ok {
							return nil
						}
						if err := emit(statusView{Connectivity: string(s), CheckedAt: time.Now()}); err != nil {
							return err
						}
					}
				}
			})
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "keep probing and print changes (connectivity.mode=auto only)")
	return cmd
}

func (c *cli) cacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the saved news snapshot",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete the saved news snapshot; favorites are kept",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				if err := a.News.ClearCache(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "news cache cleared")
				return nil
			})
		},
	})
	return cmd
}
