/*-------------------------------------------------------------------------
 *
 * BankSight Analytics Server - Command Line Interface
 *
 * Copyright (c) 2026, the BankSight authors
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"banksight/internal/api"
	"banksight/internal/banking"
	"banksight/internal/config"
	"banksight/internal/crud"
	"banksight/internal/export"
	"banksight/internal/ingest"
	"banksight/internal/insights"
	"banksight/internal/logging"
	"banksight/internal/store"
)

var (
	configFile string
	httpAddr   string
	dbPath     string
	dataDir    string
	logLevel   string

	ingestFile  string
	ingestTable string

	insightOutput string
)

var rootCmd = &cobra.Command{
	Use:   "banksight",
	Short: "BankSight - banking analytics over a SQLite store",
	Long: `banksight ingests banking CSV/JSON datasets into a SQLite store and serves
them through an HTTP API: table browsing and filtering, row CRUD, a fixed
catalog of analytical queries, CSV export, and a balance simulation.`,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE:  runServe,
}

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest the bootstrap datasets (or one file) into the store",
	RunE:  runIngest,
}

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Interactive SQL prompt against the store",
	RunE:  runQuery,
}

var insightsCmd = &cobra.Command{
	Use:   "insights [id]",
	Short: "List the analytical query catalog, or run one entry",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runInsights,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "banksight.yaml",
		"Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "",
		"Path to the SQLite store (overrides config file)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "",
		"Directory holding the source CSV/JSON files (overrides config file)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Log level: debug, info, warn, or error (overrides config file)")

	serveCmd.Flags().StringVar(&httpAddr, "http-addr", "",
		"HTTP listen address (overrides config file)")

	ingestCmd.Flags().StringVar(&ingestFile, "file", "",
		"Ingest a single CSV/JSON file instead of the bootstrap set")
	ingestCmd.Flags().StringVar(&ingestTable, "table", "",
		"Destination table for --file (default: file name without extension)")

	insightsCmd.Flags().StringVarP(&insightOutput, "output", "o", "",
		"Write the result CSV to a file instead of stdout")

	rootCmd.AddCommand(serveCmd, ingestCmd, queryCmd, insightsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig builds the layered configuration from file, environment, and
// the flags that were explicitly set
func loadConfig(cmd *cobra.Command) (*config.Config, config.CLIFlags, error) {
	flags := config.CLIFlags{
		ConfigFile:    configFile,
		ConfigFileSet: cmd.Flags().Changed("config") || cmd.InheritedFlags().Changed("config"),
		HTTPAddr:      httpAddr,
		HTTPAddrSet:   cmd.Flags().Changed("http-addr"),
		DBPath:        dbPath,
		DBPathSet:     dbPath != "",
		DataDir:       dataDir,
		DataDirSet:    dataDir != "",
		LogLevel:      logLevel,
		LogLevelSet:   logLevel != "",
	}

	cfg, err := config.LoadConfig(configFile, flags)
	if err != nil {
		return nil, flags, err
	}
	logging.SetLevel(logging.ParseLevel(cfg.Logging.Level))
	return cfg, flags, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	cfg, flags, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// Bootstrap ingestion only when the store file does not exist yet
	fresh := false
	if cfg.Data.IngestOnBoot {
		if _, err := os.Stat(cfg.Database.Path); errors.Is(err, os.ErrNotExist) {
			fresh = true
		}
	}

	s, err := store.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer s.Close()

	if fresh {
		fmt.Printf("New store at %s, ingesting from %s\n", cfg.Database.Path, cfg.Data.Dir)
		report := ingest.NewLoader(s, cfg.Data.Dir).Run(cmd.Context())
		printReport(report)
	}

	rc := config.NewReloadableConfig(cfg, configFile, flags)
	if _, err := os.Stat(configFile); err == nil {
		watcher, err := config.NewWatcher(configFile, rc.Reload)
		if err != nil {
			logging.Warn("config watcher unavailable", "error", err.Error())
		} else {
			watcher.Start()
			defer watcher.Stop()
		}
	}

	bankingSvc := banking.NewService(s, cfg.Banking.MinimumBalance)
	rc.OnReload(func(c *config.Config) {
		logging.SetLevel(logging.ParseLevel(c.Logging.Level))
	})

	mux := api.NewMux(s, crud.NewService(s), bankingSvc, api.Options{
		BrowseLimit: cfg.Data.BrowseLimit,
		ExportLimit: cfg.Data.ExportLimit,
	})

	srv := &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		fmt.Printf("Listening on %s\n", cfg.HTTP.Address)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	fmt.Println("Server stopped")
	return nil
}

func runIngest(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	s, err := store.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer s.Close()

	loader := ingest.NewLoader(s, cfg.Data.Dir)

	if ingestFile != "" {
		table := ingestTable
		if table == "" {
			base := filepath.Base(ingestFile)
			table = strings.TrimSuffix(base, filepath.Ext(base))
		}

		format := ingest.FormatCSV
		if strings.EqualFold(filepath.Ext(ingestFile), ".json") {
			format = ingest.FormatJSON
		}

		rows, skipped, err := loader.Ingest(cmd.Context(), ingestFile, table, format)
		if err != nil {
			return fmt.Errorf("failed to ingest %s: %w", ingestFile, err)
		}
		fmt.Printf("%s -> %s: %d rows", ingestFile, table, rows)
		if skipped > 0 {
			fmt.Printf(" (%d lines skipped)", skipped)
		}
		fmt.Println()
		return nil
	}

	printReport(loader.Run(cmd.Context()))
	return nil
}

// printReport summarizes a bootstrap ingestion run, one line per source file
func printReport(report ingest.Report) {
	for _, fr := range report.Files {
		switch {
		case fr.Missing:
			fmt.Printf("  %-22s missing, skipped\n", fr.File)
		case fr.Error != "":
			fmt.Printf("  %-22s FAILED: %s\n", fr.File, fr.Error)
		case fr.SkippedLines > 0:
			fmt.Printf("  %-22s -> %s (%d rows, %d lines skipped)\n", fr.File, fr.Table, fr.Rows, fr.SkippedLines)
		default:
			fmt.Printf("  %-22s -> %s (%d rows)\n", fr.File, fr.Table, fr.Rows)
		}
	}
	fmt.Printf("%d of %d tables loaded\n", report.TablesCreated(), len(report.Files))
}

func runQuery(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	s, err := store.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer s.Close()

	historyFile := ""
	if home, err := os.UserHomeDir(); err == nil {
		historyFile = filepath.Join(home, ".banksight_history")
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:            "banksight> ",
		HistoryFile:       historyFile,
		HistoryLimit:      1000,
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize readline: %w", err)
	}
	defer rl.Close()

	fmt.Println("Enter SQL statements, or \"exit\" to quit.")
	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt || err == io.EOF {
				return nil
			}
			return fmt.Errorf("readline error: %w", err)
		}

		query := strings.TrimSpace(line)
		if query == "" {
			continue
		}
		if strings.EqualFold(query, "exit") || strings.EqualFold(query, "quit") {
			return nil
		}

		res, err := s.RunQuery(cmd.Context(), query)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}
		if err := export.WriteCSV(os.Stdout, res); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}
		fmt.Printf("(%d rows)\n", res.RowCount())
	}
}

func runInsights(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	if len(args) == 0 {
		for _, ins := range insights.Catalog {
			fmt.Printf("  %-4s %s\n", ins.ID, ins.Name)
		}
		return nil
	}

	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	s, err := store.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer s.Close()

	id := args[0]
	res, err := insights.Run(cmd.Context(), s, id)
	if err != nil {
		return err
	}

	out := os.Stdout
	if insightOutput != "" {
		f, err := os.Create(insightOutput)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", insightOutput, err)
		}
		defer f.Close()
		out = f
	}

	if err := export.WriteCSV(out, res); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}
	if insightOutput != "" {
		fmt.Printf("%s: %d rows -> %s\n", id, res.RowCount(), insightOutput)
	}
	return nil
}
