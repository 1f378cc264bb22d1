package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dangerclosesec/partnerhub/internal/audit"
	"github.com/dangerclosesec/partnerhub/internal/auth"
	"github.com/dangerclosesec/partnerhub/internal/authz"
	"github.com/dangerclosesec/partnerhub/internal/database"
	"github.com/dangerclosesec/partnerhub/internal/report"
	"github.com/dangerclosesec/partnerhub/internal/repository"
	"github.com/dangerclosesec/partnerhub/internal/service"
	"github.com/dangerclosesec/partnerhub/internal/storage"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the SQL migrations",
	Long:  `Apply the embedded goose migrations to the configured Postgres database. SQLite databases are migrated from the models instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Database.Driver == database.DriverSQLite {
			db, err := database.OpenSQLite(cfg.Database.SQLitePath)
			if err != nil {
				return err
			}
			return database.AutoMigrate(db)
		}
		if err := database.Migrate(cmd.Context(), cfg.PostgresDSN()); err != nil {
			return err
		}
		fmt.Println("Migrations applied successfully")
		return nil
	},
}

var adminInput service.CreateUserInput

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create a system administrator",
	RunE: func(cmd *cobra.Command, args []string) error {
		if adminInput.Password == "" {
			adminInput.Password = os.Getenv("PARTNERHUB_ADMIN_PASSWORD")
		}

		db, err := openDB()
		if err != nil {
			return err
		}
		users := service.NewUserService(
			repository.NewUserRepository(db),
			repository.NewAccessRepository(db),
			auth.NewPasswordHasher(),
			authz.NewPolicy(audit.NewSlogLogger(slog.Default()), nil),
			nil,
		)

		user, err := users.BootstrapAdmin(cmd.Context(), adminInput)
		if err != nil {
			return err
		}
		fmt.Printf("Created administrator %s (%s)\n", user.Username, user.ID)
		return nil
	},
}

var purgeYes bool

var purgeCmd = &cobra.Command{
	Use:   "purge [partner-id]",
	Short: "Permanently delete a partner and everything it owns",
	Long:  `Physically delete a partner together with its profile, documents, history, department links, project links and MOUs. The HTTP API only suspends partners.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid partner id: %w", err)
		}
		if !purgeYes {
			return fmt.Errorf("refusing to purge partner %s without --yes", id)
		}

		db, err := openDB()
		if err != nil {
			return err
		}
		var opts []service.PartnerOption
		if rs, err := relationSync(); err != nil {
			return err
		} else if rs != nil {
			opts = append(opts, service.WithRelationSync(rs))
		}
		partners := service.NewPartnerService(
			repository.NewPartnerRepository(db),
			repository.NewPartnerDepartmentRepository(db),
			repository.NewPartnerContentRepository(db),
			storage.NewLocalFileStore(cfg.Storage.MediaRoot, cfg.Storage.MediaURL),
			authz.NewPolicy(audit.NewSlogLogger(slog.Default()), nil),
			opts...,
		)

		if err := partners.Purge(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Printf("Purged partner %s\n", id)
		return nil
	},
}

var (
	reconcileBatchSize   int
	reconcileDryRun      bool
	reconcileTimeout     time.Duration
	reconcileWriteSchema bool
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Replay department assignments and memberships into Permify",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Permify.Endpoint == "" {
			return fmt.Errorf("PERMIFY_ENDPOINT is not set")
		}
		permify, err := auth.NewPermifyService(cfg.Permify.Endpoint, auth.WithTenant(cfg.Permify.Tenant))
		if err != nil {
			return fmt.Errorf("connecting to permify: %w", err)
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), reconcileTimeout)
		defer cancel()

		if reconcileWriteSchema {
			version, err := permify.WriteSchema(ctx)
			if err != nil {
				return fmt.Errorf("writing permify schema: %w", err)
			}
			slog.Info("permify schema written", "version", version)
		}

		db, err := openDB()
		if err != nil {
			return err
		}
		auditLogs := service.NewAuthzAuditLogService(repository.NewAuthzAuditLogRepository(db))
		reconciler := service.NewReconciliationService(
			repository.NewPartnerDepartmentRepository(db),
			repository.NewUserRepository(db),
			service.NewRelationSync(permify, auditLogs, nil),
			0, // Interval doesn't matter for one-time sync
			slog.Default(),
		)
		reconciler.SetBatchSize(reconcileBatchSize)
		reconciler.SetDryRun(reconcileDryRun)

		result, err := reconciler.ReconcileAll(ctx)
		if err != nil {
			return err
		}
		return json.NewEncoder(os.Stdout).Encode(result)
	},
}

var reportJSON bool

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print partner counts per status and risk level",
	RunE: func(cmd *cobra.Command, args []string) error {
		pool, err := report.Connect(cmd.Context(), cfg.PostgresDSN())
		if err != nil {
			return err
		}
		defer pool.Close()

		summary, err := report.New(pool).PartnerSummary(cmd.Context())
		if err != nil {
			return err
		}
		if reportJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(summary)
		}
		return summary.Write(os.Stdout)
	},
}

var auditRetention time.Duration

var pruneAuditCmd = &cobra.Command{
	Use:   "prune-audit",
	Short: "Delete authorization audit entries older than the retention period",
	RunE: func(cmd *cobra.Command, args []string) error {
		if auditRetention <= 0 {
			return fmt.Errorf("retention must be positive")
		}
		db, err := openDB()
		if err != nil {
			return err
		}
		auditLogs := service.NewAuthzAuditLogService(repository.NewAuthzAuditLogRepository(db))

		n, err := auditLogs.PruneAuditLogs(cmd.Context(), auditRetention)
		if err != nil {
			return err
		}
		fmt.Printf("Deleted %d audit log entries\n", n)
		return nil
	},
}

// relationSync returns nil when no Permify endpoint is configured.
func relationSync() (*service.RelationSync, error) {
	if cfg.Permify.Endpoint == "" {
		return nil, nil
	}
	permify, err := auth.NewPermifyService(cfg.Permify.Endpoint, auth.WithTenant(cfg.Permify.Tenant))
	if err != nil {
		return nil, fmt.Errorf("connecting to permify: %w", err)
	}
	return service.NewRelationSync(permify, audit.NewSlogLogger(slog.Default()), nil), nil
}

func init() {
	createAdminCmd.Flags().StringVar(&adminInput.Username, "username", "admin", "Administrator username")
	createAdminCmd.Flags().StringVar(&adminInput.Email, "email", "", "Administrator email")
	createAdminCmd.Flags().StringVar(&adminInput.Password, "password", "", "Administrator password (defaults to $PARTNERHUB_ADMIN_PASSWORD)")
	createAdminCmd.Flags().StringVar(&adminInput.FirstName, "first-name", "", "First name")
	createAdminCmd.Flags().StringVar(&adminInput.LastName, "last-name", "", "Last name")
	createAdminCmd.MarkFlagRequired("email")

	purgeCmd.Flags().BoolVar(&purgeYes, "yes", false, "Confirm the permanent deletion")

	reconcileCmd.Flags().IntVar(&reconcileBatchSize, "batch-size", 100, "Number of rows to process between cancellation checks")
	reconcileCmd.Flags().BoolVar(&reconcileDryRun, "dry-run", false, "Print what would be done without making changes")
	reconcileCmd.Flags().DurationVar(&reconcileTimeout, "timeout", 30*time.Minute, "Maximum time to run reconciliation")
	reconcileCmd.Flags().BoolVar(&reconcileWriteSchema, "write-schema", false, "Upload the Permify schema before reconciling")

	reportCmd.Flags().BoolVar(&reportJSON, "json", false, "Print the summary as JSON")

	pruneAuditCmd.Flags().DurationVar(&auditRetention, "retention", 90*24*time.Hour, "Keep entries newer than this")
}
