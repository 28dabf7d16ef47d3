package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/fenilsonani/devsweep/internal/history"
	"github.com/fenilsonani/devsweep/internal/reporter"
	"github.com/fenilsonani/devsweep/pkg/utils"
)

var historyFmt string

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past cleanups",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := reporter.ParseFormat(historyFmt)
		if err != nil {
			return err
		}

		eng, err := openEngine()
		if err != nil {
			return err
		}
		defer closeEngine(eng)

		return reporter.New(os.Stdout, format).ReportHistory(eng.History(), eng.HistoryStats())
	},
}

var undoCmd = &cobra.Command{
	Use:   "undo ID",
	Short: "Restore the quarantined items of a cleanup",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openEngine()
		if err != nil {
			return err
		}
		defer closeEngine(eng)

		res, err := eng.Undo(args[0])
		switch {
		case errors.Is(err, history.ErrRecordNotFound):
			return fmt.Errorf("no cleanup with id %s; see \"devsweep history\"", args[0])
		case errors.Is(err, history.ErrNotUndoable):
			return fmt.Errorf("cleanup %s has nothing left to restore", args[0])
		case err != nil:
			return fmt.Errorf("undo failed: %w", err)
		}

		fmt.Printf("↺ Restored %d items from %s\n", res.SuccessCount, res.RecordID)
		for _, msg := range res.Errors {
			fmt.Printf("  ✗ %s\n", msg)
		}
		if res.ErrorCount > 0 {
			return fmt.Errorf("%d items could not be restored", res.ErrorCount)
		}
		return nil
	},
}

var quarantineCmd = &cobra.Command{
	Use:   "quarantine",
	Short: "Inspect and manage the quarantine",
}

var quarantineStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show quarantine usage",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openEngine()
		if err != nil {
			return err
		}
		defer closeEngine(eng)

		stats := eng.HistoryStats()
		fmt.Printf("Cleanups recorded: %d\n", stats.TotalRecords)
		fmt.Printf("Undoable:          %d\n", stats.UndoableRecords)
		fmt.Printf("Items cleaned:     %s\n", utils.FormatCount(stats.TotalItemsCleaned))
		fmt.Printf("Quarantine size:   %s\n", utils.FormatBytes(stats.QuarantineBytes))
		if limit, err := eng.Config().MaxQuarantineBytes(); err == nil && limit > 0 {
			fmt.Printf("Quarantine limit:  %s\n", utils.FormatBytes(limit))
		}
		return nil
	},
}

var quarantineClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Permanently delete everything in quarantine",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openEngine()
		if err != nil {
			return err
		}
		defer closeEngine(eng)

		stats := eng.HistoryStats()
		if stats.TotalRecords == 0 {
			fmt.Println("Quarantine is empty.")
			return nil
		}
		if !force && !confirm(fmt.Sprintf("Delete %s of quarantined files? This cannot be undone.",
			utils.FormatBytes(stats.QuarantineBytes))) {
			fmt.Println("Cancelled.")
			return nil
		}
		if err := eng.ClearQuarantine(); err != nil {
			return fmt.Errorf("failed to clear quarantine: %w", err)
		}
		fmt.Println("Quarantine cleared.")
		return nil
	},
}

var quarantineDeleteCmd = &cobra.Command{
	Use:   "delete ID INDEX",
	Short: "Permanently delete one quarantined item",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		index, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid index %q", args[1])
		}

		eng, err := openEngine()
		if err != nil {
			return err
		}
		defer closeEngine(eng)

		if err := eng.DeleteQuarantinedItem(args[0], index); err != nil {
			return err
		}
		fmt.Printf("Deleted item %d of %s\n", index, args[0])
		return nil
	},
}

func init() {
	historyCmd.Flags().StringVar(&historyFmt, "output", "summary", "output format (summary, json, yaml)")
	quarantineClearCmd.Flags().BoolVar(&force, "force", false, "skip confirmation prompts")

	quarantineCmd.AddCommand(quarantineStatsCmd)
	quarantineCmd.AddCommand(quarantineClearCmd)
	quarantineCmd.AddCommand(quarantineDeleteCmd)

	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(undoCmd)
	rootCmd.AddCommand(quarantineCmd)
}
