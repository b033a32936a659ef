package main

import (
	"context"
	"fmt"
	"os"

	"github.com/Sakhawat2/Datawarehouse/internal/config"
	"github.com/Sakhawat2/Datawarehouse/internal/database"
	"github.com/Sakhawat2/Datawarehouse/internal/models"
	"github.com/Sakhawat2/Datawarehouse/internal/server"
	"github.com/spf13/cobra"
	nuts "github.com/vaudience/go-nuts"
)

var (
	noLogo      bool
	pruneBefore string
	importFile  string
	importOwner string
)

// rootCmd starts the HTTP server when called without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "datawarehouse",
	Short: "Sensor data warehouse",
	Long: `Stores owner-scoped sensor readings and uploaded files, and serves
range queries, bucketed aggregates and CSV exports over HTTP.`,
	SilenceUsage: true,
	RunE:         runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		db, err := database.Open(cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()

		applied, err := database.Migrate(cmd.Context(), db)
		if err != nil {
			return err
		}
		version, err := database.CurrentVersion(cmd.Context(), db)
		if err != nil {
			return err
		}
		fmt.Printf("applied %d migrations, schema at version %d\n", applied, version)
		return nil
	},
}

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete every reading that ended before a cutoff",
	Long: `Delete every reading, of every owner, whose end time lies before the
cutoff. Readings without an end time are judged by their start time. The
cutoff is an RFC 3339 instant with an explicit offset.

Example:
  datawarehouse prune --before 2024-01-01T00:00:00Z`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDependencies(cmd.Context(), func(deps *server.Dependencies) error {
			n, err := deps.Warehouse.Prune(cmd.Context(), models.Principal{ID: "cli", IsAdmin: true},
				models.PruneParams{Before: pruneBefore})
			if err != nil {
				return err
			}
			fmt.Printf("deleted %d readings\n", n)
			return nil
		})
	},
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Load readings from an exported CSV file",
	Long: `Load readings from a CSV file in the export layout on behalf of an owner.
Sensors are created on first use.

Example:
  datawarehouse import --file temp_export.csv --owner u1`,
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(importFile)
		if err != nil {
			return err
		}
		defer f.Close()

		return withDependencies(cmd.Context(), func(deps *server.Dependencies) error {
			result, err := deps.Warehouse.Import(cmd.Context(), importOwner, f)
			if result != nil {
				fmt.Printf("imported %d readings into %d sensors\n", result.Readings, result.Sensors)
			}
			return err
		})
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noLogo, "no-logo", false, "Do not clear the console and draw the logo")

	pruneCmd.Flags().StringVar(&pruneBefore, "before", "", "Cutoff instant (RFC 3339)")
	_ = pruneCmd.MarkFlagRequired("before")

	importCmd.Flags().StringVarP(&importFile, "file", "f", "", "CSV file to import")
	importCmd.Flags().StringVar(&importOwner, "owner", "", "Owner id the readings belong to")
	_ = importCmd.MarkFlagRequired("file")
	_ = importCmd.MarkFlagRequired("owner")

	rootCmd.AddCommand(serveCmd, migrateCmd, pruneCmd, importCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	if !noLogo {
		// Clear console and draw logo
		ClearConsole()
		DrawLogo()
	}
	nuts.L.Infof("[Main] Starting Datawarehouse Server v%s", nuts.GetVersion())

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Create and start server
	return server.New(cfg).Start()
}

func withDependencies(ctx context.Context, fn func(*server.Dependencies) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	deps, err := server.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer deps.Close()
	return fn(deps)
}
