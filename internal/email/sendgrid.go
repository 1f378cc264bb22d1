package email

import (
	"fmt"
	"net/http"

	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// sendgridMessage builds a v3 message tagged with the template name so
// delivery stats can be grouped per notification kind.
func sendgridMessage(data EmailData, htmlContent, textContent string) *mail.SGMailV3 {
	m := mail.NewV3Mail()
	m.SetFrom(mail.NewEmail(data.FromName, data.From))
	m.Subject = data.Subject

	p := mail.NewPersonalization()
	p.AddTos(mail.NewEmail("", data.To))
	m.AddPersonalizations(p)

	m.AddContent(mail.NewContent("text/plain", textContent), mail.NewContent("text/html", htmlContent))
	if data.TemplateName != "" {
		m.AddCategories(data.TemplateName)
	}
	return m
}

func (s *Service) sendWithSendgrid(data EmailData, htmlContent, textContent string) error {
	response, err := s.sendgridClient.Send(sendgridMessage(data, htmlContent, textContent))
	if err != nil {
		return fmt.Errorf("sending email via sendgrid: %w", err)
	}
	if response.StatusCode != http.StatusAccepted {
		return fmt.Errorf("sendgrid rejected message to %s: status %d: %s", data.To, response.StatusCode, response.Body)
	}
	return nil
}
