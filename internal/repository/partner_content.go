// internal/repository/partner_content.go
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

// PartnerContentRepository stores what hangs off a partner record: its
// profile and its documents.
type PartnerContentRepository struct {
	db *gorm.DB
}

func NewPartnerContentRepository(db *gorm.DB) *PartnerContentRepository {
	return &PartnerContentRepository{db: db}
}

func (r *PartnerContentRepository) FindProfile(ctx context.Context, partnerID uuid.UUID) (*model.PartnerProfile, error) {
	var profile model.PartnerProfile
	if err := r.db.WithContext(ctx).First(&profile, "partner_id = ?", partnerID).Error; err != nil {
		return nil, translate(err, domain.ErrProfileNotFound, "finding profile")
	}
	return &profile, nil
}

// UpsertProfile creates the partner's profile or overwrites the existing
// one. A partner never has more than one profile.
func (r *PartnerContentRepository) UpsertProfile(ctx context.Context, profile *model.PartnerProfile) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.PartnerProfile
		err := tx.First(&existing, "partner_id = ?", profile.PartnerID).Error
		switch {
		case err == nil:
			profile.ID = existing.ID
			if err := tx.Save(profile).Error; err != nil {
				return fmt.Errorf("updating profile: %w", err)
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := tx.Create(profile).Error; err != nil {
				return fmt.Errorf("creating profile: %w", err)
			}
		default:
			return fmt.Errorf("finding profile: %w", err)
		}
		return nil
	})
}

func (r *PartnerContentRepository) CreateDocument(ctx context.Context, doc *model.PartnerDocument) error {
	if err := r.db.WithContext(ctx).Omit("UploadedBy").Create(doc).Error; err != nil {
		return fmt.Errorf("creating document: %w", err)
	}
	return nil
}

func (r *PartnerContentRepository) FindDocument(ctx context.Context, id uuid.UUID) (*model.PartnerDocument, error) {
	var doc model.PartnerDocument
	if err := r.db.WithContext(ctx).Preload("UploadedBy").First(&doc, "id = ?", id).Error; err != nil {
		return nil, translate(err, domain.ErrDocumentNotFound, "finding document")
	}
	return &doc, nil
}

func (r *PartnerContentRepository) FindDocuments(ctx context.Context, partnerID uuid.UUID) ([]model.PartnerDocument, error) {
	var docs []model.PartnerDocument
	if err := r.db.WithContext(ctx).
		Preload("UploadedBy").
		Where("partner_id = ?", partnerID).
		Order("uploaded_at DESC").
		Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("finding documents: %w", err)
	}
	return docs, nil
}

func (r *PartnerContentRepository) DeleteDocument(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&model.PartnerDocument{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("deleting document: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}
