package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/dangerclosesec/partnerhub/internal/authz"
	"github.com/dangerclosesec/partnerhub/internal/domain"
	"github.com/dangerclosesec/partnerhub/internal/model"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

func (s *PartnerService) Profile(ctx context.Context, actor *model.User, partnerID uuid.UUID) (*model.PartnerProfile, error) {
	partner, err := s.load(ctx, actor, partnerID, authz.ActionManageProfile)
	if err != nil {
		return nil, err
	}
	return s.content.FindProfile(ctx, partner.ID)
}

type ProfileInput struct {
	RegistrationNumber *string         `json:"registration_number" validate:"omitempty,max=100"`
	TaxNumber          *string         `json:"tax_number" validate:"omitempty,max=100"`
	ContactAddress     *string         `json:"contact_address"`
	ContactPhone       *string         `json:"contact_phone" validate:"omitempty,max=20"`
	ContactEmail       *string         `json:"contact_email" validate:"omitempty,email,max=100"`
	OwnershipStructure *string         `json:"ownership_structure"`
	BankDetails        *string         `json:"bank_details"`
	OrganizationType   *string         `json:"organization_type" validate:"omitempty,max=50"`
	LegalHistory       *string         `json:"legal_history"`
	SocialBackground   *string         `json:"social_background"`
	FinancialStability *string         `json:"financial_stability"`
	Reputation         *string         `json:"reputation"`
	ESGPolicies        *string         `json:"esg_policies"`
	Documents          json.RawMessage `json:"documents"`
}

// SaveProfile creates or replaces the partner's single profile.
func (s *PartnerService) SaveProfile(ctx context.Context, actor *model.User, partnerID uuid.UUID, input ProfileInput) (*model.PartnerProfile, error) {
	partner, err := s.load(ctx, actor, partnerID, authz.ActionManageProfile)
	if err != nil {
		return nil, err
	}
	if err := s.validate.Struct(input); err != nil {
		return nil, validationError(err)
	}
	if len(input.Documents) > 0 && !json.Valid(input.Documents) {
		return nil, domain.Validationf("documents must be valid JSON")
	}

	profile := &model.PartnerProfile{
		PartnerID:          partner.ID,
		RegistrationNumber: input.RegistrationNumber,
		TaxNumber:          input.TaxNumber,
		ContactAddress:     input.ContactAddress,
		ContactPhone:       input.ContactPhone,
		ContactEmail:       input.ContactEmail,
		OwnershipStructure: input.OwnershipStructure,
		BankDetails:        input.BankDetails,
		OrganizationType:   input.OrganizationType,
		LegalHistory:       input.LegalHistory,
		SocialBackground:   input.SocialBackground,
		FinancialStability: input.FinancialStability,
		Reputation:         input.Reputation,
		ESGPolicies:        input.ESGPolicies,
	}
	if len(input.Documents) > 0 {
		profile.Documents = datatypes.JSON(input.Documents)
	}

	if err := s.content.UpsertProfile(ctx, profile); err != nil {
		return nil, fmt.Errorf("saving profile: %w", err)
	}
	return profile, nil
}

func (s *PartnerService) Documents(ctx context.Context, actor *model.User, partnerID uuid.UUID) ([]model.PartnerDocument, error) {
	partner, err := s.load(ctx, actor, partnerID, authz.ActionManageDocuments)
	if err != nil {
		return nil, err
	}
	return s.content.FindDocuments(ctx, partner.ID)
}

// CreateDocumentInput takes either an uploaded file (File and FileName) or
// an external FileURL. The upload wins when both are present.
type CreateDocumentInput struct {
	FileType string    `json:"file_type" validate:"required,max=50"`
	FileURL  string    `json:"file_url" validate:"omitempty,url"`
	FileName string    `json:"-"`
	File     io.Reader `json:"-"`
}

func (s *PartnerService) CreateDocument(ctx context.Context, actor *model.User, partnerID uuid.UUID, input CreateDocumentInput) (*model.PartnerDocument, error) {
	partner, err := s.load(ctx, actor, partnerID, authz.ActionManageDocuments)
	if err != nil {
		return nil, err
	}
	if err := s.validate.Struct(input); err != nil {
		return nil, validationError(err)
	}

	url := input.FileURL
	switch {
	case input.File != nil:
		url, err = s.files.Save(ctx, "partner_documents/"+input.FileName, input.File)
		if err != nil {
			return nil, fmt.Errorf("storing document: %w", err)
		}
	case url == "":
		return nil, domain.ErrDocumentSource
	}

	doc := &model.PartnerDocument{
		PartnerID:    partner.ID,
		FileType:     input.FileType,
		FileURL:      url,
		UploadedByID: actorID(actor),
	}
	if err := s.content.CreateDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("creating document: %w", err)
	}
	doc.UploadedBy = actor
	return doc, nil
}

// document loads a document and checks the actor against its partner. A
// non-nil scope requires the document to belong to that partner.
func (s *PartnerService) document(ctx context.Context, actor *model.User, scope, id uuid.UUID) (*model.PartnerDocument, error) {
	if err := s.policy.CheckPermission(ctx, actor, authz.ActionManageDocuments); err != nil {
		return nil, err
	}
	doc, err := s.content.FindDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	if scope != uuid.Nil && doc.PartnerID != scope {
		return nil, domain.ErrDocumentNotFound
	}
	partner, err := s.partners.FindByID(ctx, doc.PartnerID)
	if err != nil {
		return nil, err
	}
	if err := s.policy.ObjectGate(ctx, actor, authz.ActionManageDocuments, partner); err != nil {
		return nil, err
	}
	return doc, nil
}

// Document returns one document. Pass uuid.Nil as partnerID when the
// document is addressed directly rather than through its partner.
func (s *PartnerService) Document(ctx context.Context, actor *model.User, partnerID, id uuid.UUID) (*model.PartnerDocument, error) {
	return s.document(ctx, actor, partnerID, id)
}

func (s *PartnerService) DeleteDocument(ctx context.Context, actor *model.User, partnerID, id uuid.UUID) error {
	doc, err := s.document(ctx, actor, partnerID, id)
	if err != nil {
		return err
	}
	return s.content.DeleteDocument(ctx, doc.ID)
}
