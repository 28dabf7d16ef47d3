package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fenilsonani/devsweep/internal/config"
	"github.com/fenilsonani/devsweep/internal/reporter"
)

var cacheFmt string

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect the scan cache and its TTLs",
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached categories",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := reporter.ParseFormat(cacheFmt)
		if err != nil {
			return err
		}

		eng, err := openEngine()
		if err != nil {
			return err
		}
		defer closeEngine(eng)

		return reporter.New(os.Stdout, format).ReportCache(eng.CacheEntries(), eng.CacheConfig())
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop all cached scan results",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openEngine()
		if err != nil {
			return err
		}
		defer closeEngine(eng)

		if err := eng.ClearCache(); err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}
		fmt.Println("Scan cache cleared.")
		return nil
	},
}

var ttlCmd = &cobra.Command{
	Use:   "ttl",
	Short: "Manage per-category cache TTLs",
	Long: `Each category's cached result is reused until its TTL expires.
Categories without a TTL never expire; a TTL of 0 forces a rescan every time.`,
}

var ttlListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the TTL table",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := reporter.ParseFormat(cacheFmt)
		if err != nil {
			return err
		}

		eng, err := openEngine()
		if err != nil {
			return err
		}
		defer closeEngine(eng)

		return reporter.New(os.Stdout, format).ReportTTLs(eng.CacheConfig())
	},
}

var ttlSetCmd = &cobra.Command{
	Use:   "set CATEGORY SECONDS",
	Short: "Set a category TTL",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		seconds, err := strconv.ParseUint(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid TTL %q: must be a number of seconds", args[1])
		}

		eng, err := openEngine()
		if err != nil {
			return err
		}
		defer closeEngine(eng)

		if err := eng.SetTTL(args[0], seconds); err != nil {
			return err
		}
		fmt.Printf("%s: %s\n", args[0], config.FormatTTL(seconds))
		return nil
	},
}

var ttlRemoveCmd = &cobra.Command{
	Use:   "remove CATEGORY",
	Short: "Remove a category TTL so its cache never expires",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openEngine()
		if err != nil {
			return err
		}
		defer closeEngine(eng)

		if err := eng.RemoveTTL(args[0]); err != nil {
			return err
		}
		fmt.Printf("%s: never expires\n", args[0])
		return nil
	},
}

var ttlResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore the default TTL table",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openEngine()
		if err != nil {
			return err
		}
		defer closeEngine(eng)

		if err := eng.ResetTTLs(); err != nil {
			return err
		}
		fmt.Println("TTLs reset to defaults.")
		return nil
	},
}

var ttlPresetCmd = &cobra.Command{
	Use:       "preset NAME",
	Short:     "Apply a named TTL preset (" + strings.Join(config.PresetNames(), ", ") + ")",
	Args:      cobra.ExactArgs(1),
	ValidArgs: config.PresetNames(),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openEngine()
		if err != nil {
			return err
		}
		defer closeEngine(eng)

		if err := eng.ApplyTTLPreset(args[0]); err != nil {
			return err
		}
		fmt.Printf("Applied %s preset.\n", args[0])
		return nil
	},
}

func init() {
	cacheCmd.PersistentFlags().StringVar(&cacheFmt, "output", "table", "output format (table, json, yaml)")

	ttlCmd.AddCommand(ttlListCmd)
	ttlCmd.AddCommand(ttlSetCmd)
	ttlCmd.AddCommand(ttlRemoveCmd)
	ttlCmd.AddCommand(ttlResetCmd)
	ttlCmd.AddCommand(ttlPresetCmd)

	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(ttlCmd)

	rootCmd.AddCommand(cacheCmd)
}
