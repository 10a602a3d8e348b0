// ghostsite builds a static site from a Ghost instance's content.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hollowware/ghostsite/internal/build"
	"github.com/hollowware/ghostsite/internal/cache"
	"github.com/hollowware/ghostsite/internal/config"
	"github.com/hollowware/ghostsite/internal/content"
	"github.com/hollowware/ghostsite/internal/ghost"
	"github.com/hollowware/ghostsite/internal/logger"
	"github.com/hollowware/ghostsite/internal/site"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "ghostsite",
	Short: "Static site builder backed by a Ghost CMS",
	Long: `ghostsite pulls posts, pages, tags, authors and settings from a Ghost
Content API, caches every fetch to disk with time-based expiry, and renders
the normalized content through local HTML layouts. When the CMS is
unreachable the last cached content is used so the site still builds.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./ghostsite.yaml)")
}

// env assembles the shared runtime pieces every command needs. The caller
// owns closing the returned store.
type env struct {
	cfg     *config.Config
	log     *logger.Logger
	store   *cache.Store
	builder *build.Builder
}

func setup() (*env, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	log := logger.New(cfg.Log.Level)

	store, err := cache.Open(cfg.Cache.Path)
	if err != nil {
		return nil, err
	}

	client := ghost.NewClient(cfg.Ghost.URL, cfg.Ghost.Key)
	fetcher := cache.NewFetcher(store, log)
	loader := content.NewLoader(client, fetcher, cfg.Ghost.URL)
	assembler := site.NewAssembler(loader, cfg.Site.URL, log)
	builder := build.NewBuilder(cfg, assembler, log)

	return &env{
		cfg:     cfg,
		log:     log,
		store:   store,
		builder: builder,
	}, nil
}
