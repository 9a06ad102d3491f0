// cmd/namenizer/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"namenizer/internal/config"
	"namenizer/internal/logging"
	"namenizer/internal/namenizer"
	"namenizer/internal/renamer"
	"namenizer/internal/scanner"
	"namenizer/internal/watch"
	"namenizer/shared/types"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath string
	logLevel   string
	strategy   string
	journalOn  bool

	app    *namenizer.Namenizer
	logger *logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "namenizer",
	Short: "Find and fix decomposed (NFD) Unicode filenames",
	Long: `Namenizer lists directories, shows which filenames are stored in
decomposed Unicode form (NFD, as written by macOS) and renames them to the
composed form (NFC) that other systems expect.`,
	SilenceUsage:       true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

func setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if cmd.Flags().Changed("strategy") {
		cfg.Strategy = strategy
	}
	if cmd.Flags().Changed("journal") {
		cfg.Journal.Enabled = journalOn
	}
	if cmd.Name() == "history" {
		cfg.Journal.Enabled = true
	}

	logger, err = logging.NewLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}

	app, err = namenizer.New(cfg, logger.Logger)
	if err != nil {
		return fmt.Errorf("initializing namenizer: %w", err)
	}
	return nil
}

func teardown(cmd *cobra.Command, args []string) error {
	if app != nil {
		err := app.Close()
		app = nil
		if err != nil {
			return fmt.Errorf("closing journal: %w", err)
		}
	}
	if logger != nil {
		logger.Sync()
	}
	return nil
}

func dirArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.Path(), "Config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&strategy, "strategy", renamer.StrategyDirect, "Rename strategy (direct, script)")
	rootCmd.PersistentFlags().BoolVar(&journalOn, "journal", false, "Record rename batches in the journal")

	var treeCmd = &cobra.Command{
		Use:   "tree [dir]",
		Short: "Show the directory tree",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			printTree(app.ScanDirectoryTree(dirArg(args)))
			return nil
		},
	}

	var lsCmd = &cobra.Command{
		Use:   "ls [dir]",
		Short: "List files with their normalization form",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sortBy, _ := cmd.Flags().GetString("sort")
			desc, _ := cmd.Flags().GetBool("desc")
			nfdOnly, _ := cmd.Flags().GetBool("nfd-only")
			codepoints, _ := cmd.Flags().GetBool("codepoints")

			records, err := app.ScanDirectoryFiles(dirArg(args))
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("sort") || cmd.Flags().Changed("desc") {
				key, ok := scanner.ParseSortKey(sortBy)
				if !ok {
					return fmt.Errorf("unknown sort key %q", sortBy)
				}
				scanner.SortRecords(records, key, desc)
			}

			if nfdOnly {
				filtered := records[:0]
				for _, r := range records {
					if r.Label.IsDecomposed() {
						filtered = append(filtered, r)
					}
				}
				records = filtered
			}

			printRecords(records, codepoints)
			return nil
		},
	}
	lsCmd.Flags().StringP("sort", "s", string(scanner.SortByModTime), "Sort by name, size, modtime or form")
	lsCmd.Flags().BoolP("desc", "d", false, "Sort descending")
	lsCmd.Flags().Bool("nfd-only", false, "Only list decomposed names")
	lsCmd.Flags().Bool("codepoints", false, "Show decomposed scalars as U+XXXX")

	var checkCmd = &cobra.Command{
		Use:   "check <name>...",
		Short: "Report the normalization form of names",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range args {
				l := app.Classifier.Classify(name)
				fmt.Printf("%s\t%s\n", name, formatLabel(name, l, false))
			}
			return nil
		},
	}

	var renameCmd = &cobra.Command{
		Use:   "rename [files...]",
		Short: "Rename decomposed filenames to composed form",
		Long: `Rename the given files to their composed (NFC) names. With --dir,
every decomposed file directly inside the directory is renamed.`,
		Example: `  namenizer rename ~/Downloads/*.pdf
  namenizer rename --dir ~/Downloads
  namenizer rename --dir . --strategy script`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			var (
				result  shared.BatchResult
				records []shared.FileRecord
				err     error
			)
			switch {
			case dir != "":
				result, records, err = app.ComposeDirectory(dir)
				if err != nil {
					return err
				}
			case len(args) > 0:
				result = app.RenameFilesToComposed(args)
			default:
				return fmt.Errorf("specify files to rename or --dir")
			}

			printResult(result)
			if records != nil {
				fmt.Println()
				printRecords(records, false)
			}
			if !result.OK() {
				return fmt.Errorf("rename batch failed")
			}
			return nil
		},
	}
	renameCmd.Flags().String("dir", "", "Rename every decomposed file in this directory")

	var watchCmd = &cobra.Command{
		Use:   "watch [dir]",
		Short: "List decomposed names whenever the directory changes",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := dirArg(args)
			fix, _ := cmd.Flags().GetBool("fix")

			w, err := watch.New(dir, watch.DefaultQuiet, logger.ForPath(dir).Named("watch"))
			if err != nil {
				return err
			}
			defer w.Close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			refresh := func() {
				if fix {
					result, records, err := app.ComposeDirectory(dir)
					if err != nil {
						logger.Warn("Scan failed", zap.Error(err))
						return
					}
					if len(result.Outcomes) > 0 {
						printResult(result)
					}
					printSummary(records)
					return
				}
				records, err := app.ScanDirectoryFiles(dir)
				if err != nil {
					logger.Warn("Scan failed", zap.Error(err))
					return
				}
				printSummary(records)
			}

			refresh()
			fmt.Printf("Watching %s (Ctrl-C to stop)\n", dir)
			return w.Run(ctx, refresh)
		},
	}
	watchCmd.Flags().Bool("fix", false, "Rename decomposed files as they appear")

	var historyCmd = &cobra.Command{
		Use:   "history [batch-id]",
		Short: "Show recorded rename batches",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")

			if len(args) == 1 {
				e, err := app.Journal.Get(args[0])
				if err != nil {
					return err
				}
				printEntry(e, true)
				return nil
			}

			entries, err := app.Journal.List(limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Println("No rename batches recorded")
				return nil
			}
			for _, e := range entries {
				printEntry(e, false)
			}
			return nil
		},
	}
	historyCmd.Flags().IntP("limit", "n", 20, "Number of batches to show")

	rootCmd.AddCommand(treeCmd)
	rootCmd.AddCommand(lsCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(renameCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(historyCmd)
}

func main() {
	err := rootCmd.Execute()
	// PersistentPostRunE is skipped when a command fails.
	teardown(rootCmd, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
