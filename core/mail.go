package core

import (
	"net/mail"
)

type (
	EmailMessage struct {
		To          []mail.Address
		Cc          []mail.Address
		Bcc         []mail.Address
		Subject     string
		TextContent string
		HTMLContent string
	}

	// EmailService is any service that can send emails.
	EmailService interface {
		// SendMessages sends messages concurrently; failures are logged, not returned.
		SendMessages(messages ...*EmailMessage)

		// Send delivers a single plain-text message synchronously. OTP and
		// password-reset flows treat an error as hard failure.
		Send(to mail.Address, subject, body string) error
	}
)

func (m *EmailMessage) HasRecipients() bool { return len(m.To) > 0 }
func (m *EmailMessage) HasContent() bool    { return (m.TextContent != "") || (m.HTMLContent != "") }
