// cmd/partnerctl/main.go
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/dangerclosesec/partnerhub/internal/config"
	"github.com/dangerclosesec/partnerhub/internal/database"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var (
	cfg     *config.Config
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "partnerctl",
	Short: "partnerctl administers a partnerhub deployment",
	Long:  `partnerctl runs migrations, bootstraps administrators and performs maintenance that is not exposed over HTTP.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		cfg = config.Load()
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(createAdminCmd)
	rootCmd.AddCommand(purgeCmd)
	rootCmd.AddCommand(reconcileCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(pruneAuditCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func openDB() (*gorm.DB, error) {
	db, err := database.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	return db, nil
}
