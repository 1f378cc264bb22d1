// internal/repository/project.go
package repository

import (
	"context"
	"fmt"

	"github.com/dangerclosesec/partnerhub/internal/domain"
	"github.com/dangerclosesec/partnerhub/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProjectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

func (r *ProjectRepository) Create(ctx context.Context, project *model.Project) error {
	if err := r.db.WithContext(ctx).Omit("Partners", "MOUs").Create(project).Error; err != nil {
		return fmt.Errorf("creating project: %w", err)
	}
	return nil
}

func (r *ProjectRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	var project model.Project
	if err := r.db.WithContext(ctx).First(&project, "id = ?", id).Error; err != nil {
		return nil, translate(err, domain.ErrProjectNotFound, "finding project")
	}
	return &project, nil
}

func (r *ProjectRepository) List(ctx context.Context, status model.ProjectStatus, page Page) ([]model.Project, int64, error) {
	var projects []model.Project
	var count int64

	query := r.db.WithContext(ctx).Model(&model.Project{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&count).Error; err != nil {
		return nil, 0, fmt.Errorf("counting projects: %w", err)
	}
	if err := page.apply(query).Order("created_at DESC").Find(&projects).Error; err != nil {
		return nil, 0, fmt.Errorf("listing projects: %w", err)
	}
	return projects, count, nil
}

func (r *ProjectRepository) Update(ctx context.Context, project *model.Project) error {
	if err := r.db.WithContext(ctx).Omit("Partners", "MOUs", "CreatedAt").Save(project).Error; err != nil {
		return fmt.Errorf("updating project: %w", err)
	}
	return nil
}

// Delete removes the project with its partner roles and MOUs.
func (r *ProjectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", id).Delete(&model.MOU{}).Error; err != nil {
			return fmt.Errorf("deleting project mous: %w", err)
		}
		if err := tx.Where("project_id = ?", id).Delete(&model.ProjectPartner{}).Error; err != nil {
			return fmt.Errorf("deleting project partners: %w", err)
		}
		result := tx.Delete(&model.Project{}, "id = ?", id)
		if result.Error != nil {
			return fmt.Errorf("deleting project: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return domain.ErrProjectNotFound
		}
		return nil
	})
}

// ProjectPartnerFilter narrows project partner and MOU listings.
type ProjectPartnerFilter struct {
	ProjectID *uuid.UUID
	PartnerID *uuid.UUID
	Status    string
	Page
}

func (f ProjectPartnerFilter) apply(q *gorm.DB) *gorm.DB {
	if f.ProjectID != nil {
		q = q.Where("project_id = ?", *f.ProjectID)
	}
	if f.PartnerID != nil {
		q = q.Where("partner_id = ?", *f.PartnerID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	return q
}

type ProjectPartnerRepository struct {
	db *gorm.DB
}

func NewProjectPartnerRepository(db *gorm.DB) *ProjectPartnerRepository {
	return &ProjectPartnerRepository{db: db}
}

// Create inserts the association. A second row for the same project,
// partner and role is rejected with domain.ErrDuplicateProjectPartner.
func (r *ProjectPartnerRepository) Create(ctx context.Context, pp *model.ProjectPartner) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.checkUnique(tx, pp); err != nil {
			return err
		}
		if err := tx.Omit("Project", "Partner").Create(pp).Error; err != nil {
			if isConflict(err) {
				return domain.ErrDuplicateProjectPartner
			}
			return fmt.Errorf("creating project partner: %w", err)
		}
		return nil
	})
}

func (r *ProjectPartnerRepository) Update(ctx context.Context, pp *model.ProjectPartner) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.checkUnique(tx, pp); err != nil {
			return err
		}
		if err := tx.Omit("Project", "Partner", "CreatedAt").Save(pp).Error; err != nil {
			if isConflict(err) {
				return domain.ErrDuplicateProjectPartner
			}
			return fmt.Errorf("updating project partner: %w", err)
		}
		return nil
	})
}

func (r *ProjectPartnerRepository) checkUnique(tx *gorm.DB, pp *model.ProjectPartner) error {
	var count int64
	if err := tx.Model(&model.ProjectPartner{}).
		Where("project_id = ? AND partner_id = ? AND role = ? AND id <> ?", pp.ProjectID, pp.PartnerID, pp.Role, pp.ID).
		Count(&count).Error; err != nil {
		return fmt.Errorf("checking existing project partner: %w", err)
	}
	if count > 0 {
		return domain.ErrDuplicateProjectPartner
	}
	return nil
}

func (r *ProjectPartnerRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.ProjectPartner, error) {
	var pp model.ProjectPartner
	if err := r.db.WithContext(ctx).Preload("Project").Preload("Partner").First(&pp, "id = ?", id).Error; err != nil {
		return nil, translate(err, domain.ErrProjectPartnerNotFound, "finding project partner")
	}
	return &pp, nil
}

func (r *ProjectPartnerRepository) List(ctx context.Context, filter ProjectPartnerFilter) ([]model.ProjectPartner, int64, error) {
	var rows []model.ProjectPartner
	var count int64

	query := filter.apply(r.db.WithContext(ctx).Model(&model.ProjectPartner{}))
	if err := query.Count(&count).Error; err != nil {
		return nil, 0, fmt.Errorf("counting project partners: %w", err)
	}
	if err := filter.Page.apply(query).
		Preload("Project").
		Preload("Partner").
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("listing project partners: %w", err)
	}
	return rows, count, nil
}

func (r *ProjectPartnerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&model.ProjectPartner{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("deleting project partner: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrProjectPartnerNotFound
	}
	return nil
}

type MOURepository struct {
	db *gorm.DB
}

func NewMOURepository(db *gorm.DB) *MOURepository {
	return &MOURepository{db: db}
}

func (r *MOURepository) Create(ctx context.Context, mou *model.MOU) error {
	if err := r.db.WithContext(ctx).Omit("Project", "Partner").Create(mou).Error; err != nil {
		return fmt.Errorf("creating mou: %w", err)
	}
	return nil
}

func (r *MOURepository) FindByID(ctx context.Context, id uuid.UUID) (*model.MOU, error) {
	var mou model.MOU
	if err := r.db.WithContext(ctx).First(&mou, "id = ?", id).Error; err != nil {
		return nil, translate(err, domain.ErrMOUNotFound, "finding mou")
	}
	return &mou, nil
}

func (r *MOURepository) List(ctx context.Context, filter ProjectPartnerFilter) ([]model.MOU, int64, error) {
	var rows []model.MOU
	var count int64

	query := filter.apply(r.db.WithContext(ctx).Model(&model.MOU{}))
	if err := query.Count(&count).Error; err != nil {
		return nil, 0, fmt.Errorf("counting mous: %w", err)
	}
	if err := filter.Page.apply(query).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("listing mous: %w", err)
	}
	return rows, count, nil
}

func (r *MOURepository) Update(ctx context.Context, mou *model.MOU) error {
	if err := r.db.WithContext(ctx).Omit("Project", "Partner", "CreatedAt").Save(mou).Error; err != nil {
		return fmt.Errorf("updating mou: %w", err)
	}
	return nil
}

func (r *MOURepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&model.MOU{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("deleting mou: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrMOUNotFound
	}
	return nil
}
