package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"scamshield/internal/infrastructure/cache"
)

var countsCmd = &cobra.Command{
	Use:   "counts [user-id]",
	Short: "show running scan counters from Redis, globally or for one user",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		redisCache, err := cache.NewRedis(cmd.Context(), cfg.Redis, cliLogger(cfg))
		if err != nil {
			return err
		}
		defer redisCache.Close()

		owner := ""
		if len(args) == 1 {
			owner = args[0]
		}
		counts, err := cache.NewScanCounter(redisCache).Counts(cmd.Context(), owner)
		if err != nil {
			return err
		}

		keys := make([]string, 0, len(counts))
		for k := range counts {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(cmd.OutOrStdout(), "%-8s %d\n", k, counts[k])
		}
		return nil
	},
}
