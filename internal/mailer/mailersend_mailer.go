package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/mailersend/mailersend-go"
)

type MailerSendClient struct {
	client     *mailersend.Mailersend
	from       mailersend.From
	appName    string
	templateID string
	enabled    bool
}

func NewMailerSend(apiKey, fromName, fromEmail, templateID, appName string) *MailerSendClient {
	m := &MailerSendClient{
		enabled:    apiKey != "" && fromEmail != "",
		appName:    appName,
		templateID: templateID,
		from: mailersend.From{
			Name:  fromName,
			Email: fromEmail,
		},
	}

	if m.enabled {
		m.client = mailersend.NewMailersend(apiKey)
	}

	return m
}

func (m *MailerSendClient) Enabled() bool {
	return m.enabled
}

// SendVerificationEmail uses the configured template when there is one,
// passing the link through personalization. Otherwise it sends inline HTML.
func (m *MailerSendClient) SendVerificationEmail(ctx context.Context, toEmail, toName, verifyURL string) error {
	if !m.enabled {
		return fmt.Errorf("MailerSend not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	content := buildVerificationMessage(m.appName, toName, verifyURL)

	msg := m.client.Email.NewMessage()
	msg.SetFrom(m.from)
	msg.SetRecipients([]mailersend.Recipient{{Name: toName, Email: toEmail}})
	msg.SetSubject(content.Subject)

	if m.templateID != "" {
		msg.SetTemplateID(m.templateID)
		msg.SetPersonalization([]mailersend.Personalization{{
			Email: toEmail,
			Data: map[string]interface{}{
				"to_name":           toName,
				"to_email":          toEmail,
				"verification_link": verifyURL,
				"app_name":          m.appName,
			},
		}})
	} else {
		msg.SetText(content.Text)
		msg.SetHTML(content.HTML)
	}

	_, err := m.client.Email.Send(ctx, msg)
	return err
}
