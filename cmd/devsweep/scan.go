package main

import (
	"fmt"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/fenilsonani/devsweep/internal/engine"
	"github.com/fenilsonani/devsweep/internal/reporter"
	"github.com/fenilsonani/devsweep/internal/types"
	"github.com/fenilsonani/devsweep/internal/ui"
	"github.com/fenilsonani/devsweep/pkg/utils"
)

var (
	noCache    bool
	outputFmt  string
	outputFile string
	showTree   bool

	categories []string
	permanent  bool
	force      bool
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for reclaimable space",
	Long: `Runs every enabled detector and reports what could be cleaned.
Results younger than their category TTL are served from the scan cache
unless --no-cache is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := reporter.ParseFormat(outputFmt)
		if err != nil {
			return err
		}

		eng, err := openEngine()
		if err != nil {
			return err
		}
		defer closeEngine(eng)

		results, err := scanWithProgress(eng, eng.Config().UseCache && !noCache)
		if err != nil {
			return fmt.Errorf("scan failed: %w", err)
		}

		if outputFile != "" {
			if err := reporter.SaveToFile(results, outputFile, format); err != nil {
				return fmt.Errorf("failed to save report: %w", err)
			}
			fmt.Printf("Report saved to: %s\n", outputFile)
			return nil
		}

		if format == reporter.FormatSummary || format == reporter.FormatTable {
			printDiskHeader(eng)
		}
		if showTree {
			ui.PrintTree(os.Stdout, results, 10)
			return nil
		}
		return reporter.New(os.Stdout, format).Report(results)
	},
}

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Clean reclaimable items",
	Long: `Scans, then cleans every item marked safe to delete. Items are moved
to the quarantine unless --permanent is given. Restrict the cleanup to
specific categories with --category.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openEngine()
		if err != nil {
			return err
		}
		defer closeEngine(eng)

		for _, name := range categories {
			if !slices.Contains(eng.Categories(), name) {
				return fmt.Errorf("unknown category %q", name)
			}
		}

		results, err := scanWithProgress(eng, eng.Config().UseCache && !noCache)
		if err != nil {
			return fmt.Errorf("scan failed: %w", err)
		}

		items := selectItems(results, categories)
		if len(items) == 0 {
			fmt.Println("Nothing to clean.")
			return nil
		}

		var total uint64
		for _, item := range items {
			total += item.SizeBytes
		}

		useQuarantine := eng.Config().UseQuarantine && !permanent
		verb := "Quarantine"
		if !useQuarantine {
			verb = "Permanently delete"
		}
		fmt.Printf("%s %s items (%s)\n", verb, utils.FormatCount(len(items)), utils.FormatBytes(total))

		if !force && !confirm("Proceed with cleanup?") {
			fmt.Println("Cleanup cancelled.")
			return nil
		}

		live := ui.NewLiveProgress(eng.Progress())
		live.Start()
		summary, err := eng.Clean(items, useQuarantine)
		live.Finish()
		if err != nil {
			return fmt.Errorf("cleanup failed: %w", err)
		}
		return reporter.New(os.Stdout, reporter.FormatSummary).ReportCleanup(summary)
	},
}

var uiCmd = &cobra.Command{
	Use:   "ui",
	Short: "Browse and clean interactively",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !isTerminal(os.Stdout) || !isTerminal(os.Stdin) {
			return fmt.Errorf("interactive mode requires a terminal; use \"devsweep scan\" instead")
		}

		eng, err := openEngine()
		if err != nil {
			return err
		}
		defer closeEngine(eng)

		return ui.RunInteractive(eng, ui.Options{
			UseCache:      eng.Config().UseCache && !noCache,
			UseQuarantine: eng.Config().UseQuarantine && !permanent,
		})
	},
}

func init() {
	scanCmd.Flags().BoolVar(&noCache, "no-cache", false, "ignore cached results and rescan everything")
	scanCmd.Flags().StringVar(&outputFmt, "output", "summary", "output format (summary, table, json, yaml)")
	scanCmd.Flags().StringVar(&outputFile, "file", "", "save report to file")
	scanCmd.Flags().BoolVar(&showTree, "tree", false, "print results as a tree")

	cleanCmd.Flags().BoolVar(&noCache, "no-cache", false, "ignore cached results and rescan everything")
	cleanCmd.Flags().StringSliceVar(&categories, "category", nil, "clean only these categories")
	cleanCmd.Flags().BoolVar(&permanent, "permanent", false, "delete instead of quarantining")
	cleanCmd.Flags().BoolVar(&force, "force", false, "skip confirmation prompts")

	uiCmd.Flags().BoolVar(&noCache, "no-cache", false, "ignore cached results and rescan everything")
	uiCmd.Flags().BoolVar(&permanent, "permanent", false, "delete instead of quarantining")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(uiCmd)
}

func scanWithProgress(eng *engine.Engine, useCache bool) ([]types.CheckResult, error) {
	live := ui.NewLiveProgress(eng.Progress())
	live.Start()
	defer live.Finish()
	return eng.Scan(useCache)
}

// selectItems returns the safe items of the named categories, or of every
// category when none are named
func selectItems(results []types.CheckResult, names []string) []types.CleanupItem {
	var items []types.CleanupItem
	for _, res := range results {
		if len(names) > 0 && !slices.Contains(names, res.Name) {
			continue
		}
		for _, item := range res.Items {
			if item.SafeToDelete {
				items = append(items, item)
			}
		}
	}
	return items
}

func printDiskHeader(eng *engine.Engine) {
	usage, err := eng.DiskUsage()
	if err != nil {
		return
	}
	fmt.Printf("Disk: %s free of %s (%.0f%% used)\n\n",
		utils.FormatBytes(usage.Free), utils.FormatBytes(usage.Total), usage.UsedPercent)
}
