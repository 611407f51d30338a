package core

import "net/mail"

type (
	Attachment struct {
		Filename    string
		ContentType string
		Content     []byte
	}

	// EmailMessage is a plain-text mail with optional attachments.
	EmailMessage struct {
		To          []mail.Address
		Subject     string
		Text        string
		Attachments []Attachment
	}

	// EmailService is any service that can send emails.
	// Delivery is fire-and-forget; failures are logged by the service.
	EmailService interface {
		SendMessages(messages ...*EmailMessage)
	}
)

func (m *EmailMessage) Attach(filename, contentType string, content []byte) {
	m.Attachments = append(m.Attachments, Attachment{Filename: filename, ContentType: contentType, Content: content})
}

// Deliverable reports whether the message has somewhere to go and something to say.
func (m *EmailMessage) Deliverable() bool {
	return len(m.To) > 0 && (m.Text != "" || len(m.Attachments) > 0)
}
