// Command newsctl is a terminal front end for the news reader: it refreshes and filters
// headlines, manages favorites and reports connectivity.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"newsreader/internal/app"
	"newsreader/internal/config"
	"newsreader/internal/observability/logging"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// cli carries the persistent flags and the options every command builds its App with.
type cli struct {
	configPath string
	offline    bool
	asJSON     bool
	verbose    bool

	// appOpts are appended after the options derived from flags.
	appOpts []app.Option
}

func newRootCmd(opts ...app.Option) *cobra.Command {
	c := &cli{appOpts: opts}

	root := &cobra.Command{
		Use:           "newsctl",
		Short:         "Read the news from the terminal",
		Long:          "newsctl refreshes, filters and bookmarks headlines using the same core as the newsreader API.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "path to config file (default $"+config.PathEnv+")")
	root.PersistentFlags().BoolVar(&c.offline, "offline", false, "never contact the news source; serve the saved snapshot")
	root.PersistentFlags().BoolVar(&c.asJSON, "json", false, "print JSON instead of text")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "log at debug level to stderr")

	root.AddCommand(
		c.refreshCmd(),
		c.listCmd(),
		c.showCmd(),
		c.favoritesCmd(),
		c.statusCmd(),
		c.cacheCmd(),
		c.feedsCmd(),
		versionCmd(),
	)
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "newsctl %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}

// loadConfig resolves the config file and applies the command-line overrides.
func (c *cli) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(config.ResolvePath(c.configPath))
	if err != nil {
		return nil, err
	}
	if c.offline {
		cfg.Connectivity.Mode = config.ConnectivityOffline
	}
	return cfg, nil
}

func (c *cli) logger(cmd *cobra.Command) *slog.Logger {
	level := "warn"
	if c.verbose {
		level = "debug"
	}
	return logging.New(logging.Options{Level: level, Format: "text", Writer: cmd.ErrOrStderr()})
}

// withApp builds an App for one command and closes it afterwards.
func (c *cli) withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	opts := append([]app.Option{app.WithLogger(c.logger(cmd))}, c.appOpts...)
	a, err := app.New(ctx, cfg, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil {
			slog.Warn("close failed", slog.Any("error", cerr))
		}
	}()
	return fn(ctx, a)
}

// load runs the startup sequence and reports favorites load failures on stderr.
func load(ctx context.Context, cmd *cobra.Command, a *app.App) app.InitResult {
	res := <-a.Initialize(ctx)
	if res.FavoritesErr != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: favorites unavailable: %v\n", res.FavoritesErr)
	}
	return res
}

func (c *cli) printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}
