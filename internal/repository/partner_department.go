// internal/repository/partner_department.go
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/dangerclosesec/partnerhub/internal/domain"
	"github.com/dangerclosesec/partnerhub/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PartnerDepartmentRepositoryIface interface {
	Assign(ctx context.Context, partnerID uuid.UUID, departmentIDs []uuid.UUID) ([]model.PartnerDepartment, error)
	Unassign(ctx context.Context, partnerID, departmentID uuid.UUID) error
	FindByPartner(ctx context.Context, partnerID uuid.UUID) ([]model.PartnerDepartment, error)
	FindAll(ctx context.Context) ([]model.PartnerDepartment, error)
}

type PartnerDepartmentRepository struct {
	db *gorm.DB
}

func NewPartnerDepartmentRepository(db *gorm.DB) *PartnerDepartmentRepository {
	return &PartnerDepartmentRepository{db: db}
}

// Assign links the partner to each department that exists and is not
// already linked. Unknown department ids are skipped. Only the rows created
// by this call are returned.
func (r *PartnerDepartmentRepository) Assign(ctx context.Context, partnerID uuid.UUID, departmentIDs []uuid.UUID) ([]model.PartnerDepartment, error) {
	created := make([]model.PartnerDepartment, 0, len(departmentIDs))

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, departmentID := range departmentIDs {
			var department model.Department
			if err := tx.First(&department, "id = ?", departmentID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					continue
				}
				return fmt.Errorf("finding department: %w", err)
			}

			var count int64
			if err := tx.Model(&model.PartnerDepartment{}).
				Where("partner_id = ? AND department_id = ?", partnerID, departmentID).
				Count(&count).Error; err != nil {
				return fmt.Errorf("checking existing assignment: %w", err)
			}
			if count > 0 {
				continue
			}

			assignment := model.PartnerDepartment{PartnerID: partnerID, DepartmentID: departmentID}
			if err := tx.Omit("Department").Create(&assignment).Error; err != nil {
				return fmt.Errorf("creating assignment: %w", err)
			}
			assignment.Department = department
			created = append(created, assignment)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("transaction failed: %w", err)
	}

	return created, nil
}

func (r *PartnerDepartmentRepository) Unassign(ctx context.Context, partnerID, departmentID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("partner_id = ? AND department_id = ?", partnerID, departmentID).
		Delete(&model.PartnerDepartment{})
	if result.Error != nil {
		return fmt.Errorf("deleting assignment: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrAssignmentNotFound
	}
	return nil
}

func (r *PartnerDepartmentRepository) FindByPartner(ctx context.Context, partnerID uuid.UUID) ([]model.PartnerDepartment, error) {
	var rows []model.PartnerDepartment
	if err := r.db.WithContext(ctx).
		Preload("Department").
		Where("partner_id = ?", partnerID).
		Order("assigned_at ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("finding partner departments: %w", err)
	}
	return rows, nil
}

// FindAll returns every assignment. It feeds relationship reconciliation.
func (r *PartnerDepartmentRepository) FindAll(ctx context.Context) ([]model.PartnerDepartment, error) {
	var rows []model.PartnerDepartment
	if err := r.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("finding assignments: %w", err)
	}
	return rows, nil
}
