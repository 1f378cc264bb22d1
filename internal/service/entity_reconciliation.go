// internal/service/entity_reconciliation.go
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dangerclosesec/partnerhub/internal/repository"
)

// ReconcileReport counts what one reconciliation pass wrote.
type ReconcileReport struct {
	Assignments int `json:"assignments"`
	Memberships int `json:"memberships"`
	Failures    int `json:"failures"`
}

// ReconciliationService periodically replays department assignments and
// memberships into the relationship store, repairing tuples lost to failed
// best-effort writes.
type ReconciliationService struct {
	assignments  repository.PartnerDepartmentRepositoryIface
	users        repository.UserRepositoryIface
	relations    *RelationSync
	syncInterval time.Duration
	batchSize    int
	dryRun       bool // If true, don't make changes, just log
	logger       *slog.Logger
	stopChan     chan struct{}
	stoppedChan  chan struct{}
}

// NewReconciliationService creates a new reconciliation service
func NewReconciliationService(
	assignments repository.PartnerDepartmentRepositoryIface,
	users repository.UserRepositoryIface,
	relations *RelationSync,
	syncInterval time.Duration,
	logger *slog.Logger,
) *ReconciliationService {
	if syncInterval == 0 {
		syncInterval = 30 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &ReconciliationService{
		assignments:  assignments,
		users:        users,
		relations:    relations,
		syncInterval: syncInterval,
		batchSize:    100,
		logger:       logger,
		stopChan:     make(chan struct{}),
		stoppedChan:  make(chan struct{}),
	}
}

// Start begins the periodic reconciliation process
func (s *ReconciliationService) Start() {
	go func() {
		ticker := time.NewTicker(s.syncInterval)
		defer ticker.Stop()
		defer close(s.stoppedChan)

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
				if _, err := s.ReconcileAll(ctx); err != nil {
					s.logger.Error("reconciliation failed", "error", err)
				}
				cancel()
			case <-s.stopChan:
				return
			}
		}
	}()
}

// Stop halts the reconciliation process
func (s *ReconciliationService) Stop() {
	close(s.stopChan)
	<-s.stoppedChan
}

// SetBatchSize sets the number of tuples written between context checks
func (s *ReconciliationService) SetBatchSize(size int) {
	if size > 0 {
		s.batchSize = size
	}
}

// SetDryRun sets whether to actually make changes or just log what would be done
func (s *ReconciliationService) SetDryRun(dryRun bool) {
	s.dryRun = dryRun
}

// ReconcileAll runs one full pass. Individual write failures are counted and
// skipped; only store read errors and cancellation abort the pass.
func (s *ReconciliationService) ReconcileAll(ctx context.Context) (*ReconcileReport, error) {
	s.logger.Info("starting relationship reconciliation", "dry_run", s.dryRun)

	report := &ReconcileReport{}
	if err := s.reconcileAssignments(ctx, report); err != nil {
		return report, fmt.Errorf("reconciling assignments: %w", err)
	}
	if err := s.reconcileMemberships(ctx, report); err != nil {
		return report, fmt.Errorf("reconciling memberships: %w", err)
	}

	s.logger.Info("completed relationship reconciliation",
		"assignments", report.Assignments,
		"memberships", report.Memberships,
		"failures", report.Failures,
	)
	return report, nil
}

func (s *ReconciliationService) reconcileAssignments(ctx context.Context, report *ReconcileReport) error {
	rows, err := s.assignments.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("fetching assignments: %w", err)
	}

	s.logger.Info("reconciling partner assignments", "count", len(rows))

	for i, row := range rows {
		if i > 0 && i%s.batchSize == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if s.dryRun {
			s.logger.Info("would sync assignment (dry run)",
				"partner_id", row.PartnerID.String(),
				"department_id", row.DepartmentID.String(),
			)
			report.Assignments++
			continue
		}
		if err := s.relations.PartnerAssigned(ctx, row.PartnerID, row.DepartmentID); err != nil {
			report.Failures++
			continue
		}
		report.Assignments++
	}
	return nil
}

func (s *ReconciliationService) reconcileMemberships(ctx context.Context, report *ReconcileReport) error {
	users, err := s.users.FindWithDepartments(ctx)
	if err != nil {
		return fmt.Errorf("fetching users: %w", err)
	}

	s.logger.Info("reconciling department memberships", "users", len(users))

	n := 0
	for _, user := range users {
		for _, department := range user.Departments {
			n++
			if n%s.batchSize == 0 {
				if err := ctx.Err(); err != nil {
					return err
				}
			}
			if s.dryRun {
				s.logger.Info("would sync membership (dry run)",
					"user_id", user.ID.String(),
					"department_id", department.ID.String(),
				)
				report.Memberships++
				continue
			}
			if err := s.relations.MemberAdded(ctx, department.ID, user.ID); err != nil {
				report.Failures++
				continue
			}
			report.Memberships++
		}
	}
	return nil
}
