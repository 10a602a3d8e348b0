package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the on-disk content cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached entry",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup()
		if err != nil {
			return err
		}
		defer e.store.Close()

		if err := e.store.Clear(); err != nil {
			return fmt.Errorf("clear cache: %w", err)
		}
		fmt.Println("cache cleared")
		return nil
	},
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "List cached entries and their ages",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup()
		if err != nil {
			return err
		}
		defer e.store.Close()

		entries, err := e.store.Keys()
		if err != nil {
			return fmt.Errorf("list cache entries: %w", err)
		}

		if len(entries) == 0 {
			fmt.Println("cache is empty")
			return nil
		}

		for _, entry := range entries {
			age := time.Since(entry.FetchedAt).Round(time.Second)
			fmt.Printf("%-60s %s old\n", entry.Key, age)
		}
		fmt.Printf("\n%d entries in %s\n", len(entries), e.cfg.Cache.Path)
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
	rootCmd.AddCommand(cacheCmd)
}
