package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/chartflow/internal/server"
	"github.com/matzehuels/chartflow/pkg/cache"
	"github.com/matzehuels/chartflow/pkg/observability"
	"github.com/matzehuels/chartflow/pkg/pipeline"
)

type serveOpts struct {
	addr      string
	redisURL  string
	cacheSize int
	prefix    string
	timeout   time.Duration
}

// serveCommand creates the serve command for the HTTP adapter.
func (c *CLI) serveCommand() *cobra.Command {
	opts := serveOpts{addr: ":8080", cacheSize: cache.DefaultMemoryEntries, timeout: 30 * time.Second}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the chart pipeline over HTTP",
		Long: `Serve POST /v1/xy, POST /v1/partition and GET /healthz.

Snapshots are cached in memory, or in Redis when --redis is given so that
several instances share one cache.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var snapshots cache.Cache
			var err error
			if opts.redisURL != "" {
				snapshots, err = cache.NewRedisCache(ctx, opts.redisURL)
			} else {
				snapshots, err = cache.NewMemoryCache(opts.cacheSize)
			}
			if err != nil {
				return err
			}
			c.Logger.Debug("snapshot cache ready", "redis", opts.redisURL != "")

			var keyer cache.Keyer
			if opts.prefix != "" {
				keyer = cache.NewScopedKeyer(nil, opts.prefix)
			}
			rec := observability.NewRecorder()
			runner := pipeline.NewRunner(snapshots, keyer, c.Logger, rec.Hooks())
			defer runner.Close()

			srv := server.New(server.Config{
				Runner:   runner,
				Logger:   c.Logger,
				Hooks:    rec,
				Recorder: rec,
				Timeout:  opts.timeout,
			})
			printInfo("Serving on %s", StyleHighlight.Render(opts.addr))
			return srv.ListenAndServe(ctx, opts.addr)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", opts.addr, "listen address")
	cmd.Flags().StringVar(&opts.redisURL, "redis", "", "redis URL for a shared snapshot cache (e.g. redis://localhost:6379/0)")
	cmd.Flags().IntVar(&opts.cacheSize, "cache-size", opts.cacheSize, "in-memory cache entries when redis is not used")
	cmd.Flags().StringVar(&opts.prefix, "key-prefix", "", "prefix for cache keys, to share one redis between deployments")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", opts.timeout, "per-request timeout")

	return cmd
}
