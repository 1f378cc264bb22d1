package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/dangerclosesec/partnerhub/internal/email"
	"github.com/dangerclosesec/partnerhub/internal/email/mailer"
	"github.com/dangerclosesec/partnerhub/internal/model"
)

// StatusNotifier is told about every recorded status transition.
type StatusNotifier interface {
	PartnerStatusChanged(ctx context.Context, partner *model.Partner, change *model.StatusHistory, actor *model.User) error
}

// EmailStatusNotifier mails the partner's creator.
type EmailStatusNotifier struct {
	email   *email.Service
	baseURL string
}

func NewEmailStatusNotifier(emailService *email.Service, baseURL string) *EmailStatusNotifier {
	return &EmailStatusNotifier{
		email:   emailService,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (n *EmailStatusNotifier) PartnerStatusChanged(ctx context.Context, partner *model.Partner, change *model.StatusHistory, actor *model.User) error {
	recipient := partner.CreatedBy
	if recipient == nil || recipient.Email == "" {
		return nil
	}

	name := strings.TrimSpace(recipient.FirstName + " " + recipient.LastName)
	if name == "" {
		name = recipient.Username
	}

	err := mailer.SendPartnerStatusChanged(n.email, recipient.Email, mailer.StatusChangedTemplateData{
		RecipientName: name,
		PartnerName:   partner.Name,
		OldStatus:     string(change.OldStatus),
		NewStatus:     string(change.NewStatus),
		ChangedBy:     actor.String(),
		PartnerLink:   fmt.Sprintf("%s/api/partners/%s/", n.baseURL, partner.ID),
	})
	if err != nil {
		return fmt.Errorf("sending status change email: %w", err)
	}
	return nil
}
