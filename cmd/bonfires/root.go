package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/zabal/bonfires/internal/config"
	"github.com/zabal/bonfires/internal/util"
	"github.com/zabal/bonfires/pkg/bonfires"
	"github.com/zabal/bonfires/pkg/logger"
	"github.com/zabal/bonfires/pkg/logger/console"

	"github.com/spf13/cobra"
)

var (
	apiURL    string
	showStats bool
	debug     bool

	client *bonfires.Client

	rootCmd = &cobra.Command{
		Use:           "bonfires",
		Short:         "Browse bonfires, graphs and jobs of a Bonfires backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			util.LoadEnv()
			cfg := config.Load()
			if apiURL != "" {
				cfg.APIURL = apiURL
			}

			logger.Init(console.NewConsoleLogger(console.ConsoleLoggerParams{
				Debug:  debug || cfg.Debug,
				Output: os.Stderr,
			}))
			client = bonfires.NewClient(cfg.NewAPIClient(nil))
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if showStats && client != nil {
				printStats(cmd.ErrOrStderr())
			}
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Bonfires API base URL (overrides BONFIRES_API_URL)")
	rootCmd.PersistentFlags().BoolVar(&showStats, "stats", false, "Print cache statistics to stderr when done")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(listCmd, graphCmd, jobCmd, hyperblogCmd)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printStats(w io.Writer) {
	s := client.API().CacheStats()
	fmt.Fprintf(w, "cache: %d hits, %d misses, %.0f%% hit rate, %d entries, %d inflight\n",
		s.Hits, s.Misses, s.HitRate*100, s.Size, s.Inflight)
}
