// Package main provides the farmstore maintenance CLI. It drives the
// same persistence core the app embeds: run migrations ahead of an app
// upgrade, inspect storage, export a user's data, or wipe a device.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"farmstore/internal/config"
	"farmstore/internal/logging"
	"farmstore/internal/store"
)

var (
	// Global flags
	dataDir    string
	configPath string
	verbose    bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "farmstore",
	Short: "farmstore - device-local persistence core maintenance",
	Long: `farmstore manages the on-device database behind the farming assistant:
a schema-versioned SQLite store for domain records plus a JSON key-value
store for preferences.

All commands open the store, run their operation, and close it again.`,
	SilenceUsage: true,
}

// migrateCmd brings the schema up to the current version
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run schema migrations and print the migration report",
	RunE:  runMigrate,
}

// statsCmd prints storage statistics
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print table counts, sizes and schema version",
	RunE:  runStats,
}

// healthCmd probes both engines
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Run a write/read/delete smoke test against both engines",
	RunE:  runHealth,
}

// exportCmd dumps a user's data as JSON
var exportCmd = &cobra.Command{
	Use:   "export [user-id]",
	Short: "Export a user's records as JSON to stdout",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runExport,
}

// vacuumCmd reclaims disk space
var vacuumCmd = &cobra.Command{
	Use:   "vacuum",
	Short: "Reclaim disk space after large deletes",
	RunE:  runVacuum,
}

var clearPreferences bool

// clearCmd wipes all domain data
var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every domain row (and optionally preferences)",
	RunE:  runClear,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", ".", "Directory holding the database and key-value files")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Optional config file (YAML or JSON)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Mirror debug logging to stderr")

	clearCmd.Flags().BoolVar(&clearPreferences, "preferences", false, "Also wipe the key-value store")

	rootCmd.AddCommand(migrateCmd, statsCmd, healthCmd, exportCmd, vacuumCmd, clearCmd)
}

// openStore loads configuration, wires logging and initializes the
// persistence core. Callers must Close the returned store.
func openStore() (*store.Store, *store.MigrationReport, error) {
	var cfg config.Config
	var err error
	if configPath != "" {
		cfg, err = config.Load(configPath, dataDir)
		if err != nil {
			return nil, nil, err
		}
	} else {
		cfg = config.Default(dataDir)
	}

	if verbose {
		cfg.Logging.Enabled = true
		cfg.Logging.Console = true
		cfg.Logging.Level = "debug"
	}
	if err := logging.Init(cfg.Logging); err != nil {
		return nil, nil, err
	}

	s := store.New(cfg)
	report, err := s.Initialize()
	if err != nil {
		return nil, nil, err
	}
	return s, report, nil
}

func runMigrate(cmd *cobra.Command, args []string) error {
	s, report, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	fmt.Printf("Schema: v%d -> v%d (%d steps, %v)\n",
		report.FromVersion, report.ToVersion, report.StepsApplied, report.Duration)
	if report.BackupPath != "" {
		fmt.Printf("Backup: %s\n", report.BackupPath)
	}
	for _, w := range report.Warnings {
		fmt.Printf("Warning: %s\n", w)
	}
	return nil
}

func runStats(cmd *cobra.Command, args []string) error {
	s, _, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	stats, err := s.GetStorageStats()
	if err != nil {
		return err
	}
	return printJSON(stats)
}

func runHealth(cmd *cobra.Command, args []string) error {
	s, _, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.PerformHealthCheck(); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	fmt.Println("ok")
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	s, _, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	userID := ""
	if len(args) > 0 {
		userID = args[0]
	}
	export, err := s.ExportData(userID)
	if err != nil {
		return err
	}
	return printJSON(export)
}

func runVacuum(cmd *cobra.Command, args []string) error {
	s, _, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	return s.VacuumDatabase()
}

func runClear(cmd *cobra.Command, args []string) error {
	s, _, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	return s.ClearAllData(clearPreferences)
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
