// internal/repository/partner.go
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dangerclosesec/partnerhub/internal/domain"
	"github.com/dangerclosesec/partnerhub/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PartnerRepositoryIface interface {
	Create(ctx context.Context, partner *model.Partner) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Partner, error)
	FindDetail(ctx context.Context, id uuid.UUID) (*model.Partner, error)
	List(ctx context.Context, params PartnerListParams) ([]model.Partner, int64, error)
	UpdateFields(ctx context.Context, id uuid.UUID, name string, partnerType model.PartnerType) error
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to model.PartnerStatus, actorID *uuid.UUID) (*model.StatusHistory, error)
	TransitionRisk(ctx context.Context, id uuid.UUID, from, to model.RiskLevel, actorID *uuid.UUID) (*model.RiskLevelHistory, error)
	StatusHistory(ctx context.Context, id uuid.UUID) ([]model.StatusHistory, error)
	RiskHistory(ctx context.Context, id uuid.UUID) ([]model.RiskLevelHistory, error)
	Purge(ctx context.Context, id uuid.UUID) error
}

// PartnerListParams filters, searches, orders and pages the partner list.
type PartnerListParams struct {
	Type      model.PartnerType
	Status    model.PartnerStatus
	RiskLevel model.RiskLevel
	Search    string
	Ordering  string
	Page
}

var partnerOrderings = map[string]string{
	"created_at":  "created_at ASC",
	"-created_at": "created_at DESC",
	"updated_at":  "updated_at ASC",
	"-updated_at": "updated_at DESC",
}

// ValidPartnerOrdering reports whether the ordering key is accepted by List.
func ValidPartnerOrdering(ordering string) bool {
	if ordering == "" {
		return true
	}
	_, ok := partnerOrderings[ordering]
	return ok
}

type PartnerRepository struct {
	db *gorm.DB
}

func NewPartnerRepository(db *gorm.DB) *PartnerRepository {
	return &PartnerRepository{db: db}
}

// Create inserts the partner and, in the same transaction, links it to the
// departments listed in partner.Assignments. Unknown departments are skipped.
func (r *PartnerRepository) Create(ctx context.Context, partner *model.Partner) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		assignments := partner.Assignments
		partner.Assignments = nil

		if err := tx.Omit("CreatedBy", "Assignments", "Profile", "Documents", "StatusHistory", "RiskHistory").
			Create(partner).Error; err != nil {
			return fmt.Errorf("creating partner: %w", err)
		}

		linked := make([]model.PartnerDepartment, 0, len(assignments))
		for _, a := range assignments {
			var department model.Department
			if err := tx.First(&department, "id = ?", a.DepartmentID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					continue
				}
				return fmt.Errorf("finding department: %w", err)
			}
			a.PartnerID = partner.ID
			if err := tx.Omit("Department").Create(&a).Error; err != nil {
				return fmt.Errorf("assigning department: %w", err)
			}
			a.Department = department
			linked = append(linked, a)
		}
		partner.Assignments = linked

		return nil
	})
	if err != nil {
		return fmt.Errorf("transaction failed: %w", err)
	}
	return nil
}

func (r *PartnerRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Partner, error) {
	var partner model.Partner
	err := r.db.WithContext(ctx).
		Preload("Assignments.Department").
		Preload("CreatedBy").
		First(&partner, "id = ?", id).Error
	if err != nil {
		return nil, translate(err, domain.ErrPartnerNotFound, "finding partner")
	}
	return &partner, nil
}

// FindDetail loads the partner with profile, documents and both histories,
// histories newest first.
func (r *PartnerRepository) FindDetail(ctx context.Context, id uuid.UUID) (*model.Partner, error) {
	var partner model.Partner
	err := r.db.WithContext(ctx).
		Preload("Assignments.Department").
		Preload("CreatedBy").
		Preload("Profile").
		Preload("Documents", func(db *gorm.DB) *gorm.DB {
			return db.Order("uploaded_at DESC")
		}).
		Preload("Documents.UploadedBy").
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB {
			return db.Order("changed_at DESC")
		}).
		Preload("StatusHistory.ChangedBy").
		Preload("RiskHistory", func(db *gorm.DB) *gorm.DB {
			return db.Order("changed_at DESC")
		}).
		Preload("RiskHistory.ChangedBy").
		First(&partner, "id = ?", id).Error
	if err != nil {
		return nil, translate(err, domain.ErrPartnerNotFound, "finding partner detail")
	}
	return &partner, nil
}

func (r *PartnerRepository) List(ctx context.Context, params PartnerListParams) ([]model.Partner, int64, error) {
	var partners []model.Partner
	var count int64

	query := r.db.WithContext(ctx).Model(&model.Partner{})

	// Apply filters
	if params.Type != "" {
		query = query.Where("type = ?", params.Type)
	}
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	if params.RiskLevel != "" {
		query = query.Where("risk_level = ?", params.RiskLevel)
	}
	if s := strings.TrimSpace(params.Search); s != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(s)+"%")
	}

	if err := query.Count(&count).Error; err != nil {
		return nil, 0, fmt.Errorf("counting partners: %w", err)
	}

	order, ok := partnerOrderings[params.Ordering]
	if !ok {
		order = partnerOrderings["-created_at"]
	}

	err := params.Page.apply(query).
		Preload("Assignments.Department").
		Preload("CreatedBy").
		Order(order).
		Find(&partners).Error
	if err != nil {
		return nil, 0, fmt.Errorf("listing partners: %w", err)
	}

	return partners, count, nil
}

func (r *PartnerRepository) UpdateFields(ctx context.Context, id uuid.UUID, name string, partnerType model.PartnerType) error {
	result := r.db.WithContext(ctx).Model(&model.Partner{}).
		Where("id = ?", id).
		Updates(map[string]any{"name": name, "type": partnerType})
	if result.Error != nil {
		return fmt.Errorf("updating partner: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrPartnerNotFound
	}
	return nil
}

// TransitionStatus sets the partner status and appends the history row in
// one transaction. Concurrent transitions are not serialised; each one
// records its own row.
func (r *PartnerRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to model.PartnerStatus, actorID *uuid.UUID) (*model.StatusHistory, error) {
	history := &model.StatusHistory{
		PartnerID:   id,
		OldStatus:   from,
		NewStatus:   to,
		ChangedByID: actorID,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.Partner{}).Where("id = ?", id).Update("status", to)
		if result.Error != nil {
			return fmt.Errorf("updating status: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return domain.ErrPartnerNotFound
		}
		if err := tx.Omit("ChangedBy").Create(history).Error; err != nil {
			return fmt.Errorf("recording status history: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return history, nil
}

// TransitionRisk is the risk level counterpart of TransitionStatus.
func (r *PartnerRepository) TransitionRisk(ctx context.Context, id uuid.UUID, from, to model.RiskLevel, actorID *uuid.UUID) (*model.RiskLevelHistory, error) {
	history := &model.RiskLevelHistory{
		PartnerID:   id,
		OldRisk:     from,
		NewRisk:     to,
		ChangedByID: actorID,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.Partner{}).Where("id = ?", id).Update("risk_level", to)
		if result.Error != nil {
			return fmt.Errorf("updating risk level: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return domain.ErrPartnerNotFound
		}
		if err := tx.Omit("ChangedBy").Create(history).Error; err != nil {
			return fmt.Errorf("recording risk history: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return history, nil
}

func (r *PartnerRepository) StatusHistory(ctx context.Context, id uuid.UUID) ([]model.StatusHistory, error) {
	var rows []model.StatusHistory
	err := r.db.WithContext(ctx).
		Preload("ChangedBy").
		Where("partner_id = ?", id).
		Order("changed_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("finding status history: %w", err)
	}
	return rows, nil
}

func (r *PartnerRepository) RiskHistory(ctx context.Context, id uuid.UUID) ([]model.RiskLevelHistory, error) {
	var rows []model.RiskLevelHistory
	err := r.db.WithContext(ctx).
		Preload("ChangedBy").
		Where("partner_id = ?", id).
		Order("changed_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("finding risk history: %w", err)
	}
	return rows, nil
}

// Purge physically removes the partner and everything it owns. Children
// are deleted explicitly, leaf first, inside one transaction.
func (r *PartnerRepository) Purge(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		owned := []any{
			&model.MOU{},
			&model.ProjectPartner{},
			&model.PartnerDepartment{},
			&model.StatusHistory{},
			&model.RiskLevelHistory{},
			&model.PartnerDocument{},
			&model.PartnerProfile{},
		}
		for _, m := range owned {
			if err := tx.Where("partner_id = ?", id).Delete(m).Error; err != nil {
				return fmt.Errorf("purging %T: %w", m, err)
			}
		}

		result := tx.Delete(&model.Partner{}, "id = ?", id)
		if result.Error != nil {
			return fmt.Errorf("purging partner: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return domain.ErrPartnerNotFound
		}
		return nil
	})
}
