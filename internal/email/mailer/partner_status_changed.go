// internal/email/mailer/partner_status_changed.go
package mailer

import "github.com/dangerclosesec/partnerhub/internal/email"

const TemplatePartnerStatusChanged = "partner_status_changed"

// StatusChangedTemplateData contains data for the status change template
type StatusChangedTemplateData struct {
	RecipientName string
	PartnerName   string
	OldStatus     string
	NewStatus     string
	ChangedBy     string
	PartnerLink   string
}

// SendPartnerStatusChanged tells a partner's creator that its status moved.
func SendPartnerStatusChanged(s *email.Service, to string, data StatusChangedTemplateData) error {
	emailData := email.EmailData{
		To:           to,
		FromName:     "Partner Hub",
		Subject:      "Partner " + data.PartnerName + " is now " + data.NewStatus,
		TemplateName: TemplatePartnerStatusChanged,
		TemplateData: data,
	}

	return s.SendEmail(emailData)
}
