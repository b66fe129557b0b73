// Package mail delivers rendering exports to a recipient's inbox.
package mail

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

// ErrNotConfigured indicates that no mail provider credentials are set.
var ErrNotConfigured = errors.New("mail delivery not configured")

// Attachment is one file to include in a message.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Message is an outbound email with optional attachments.
type Message struct {
	To          string
	Subject     string
	Body        string
	Attachments []Attachment
}

// Mailer hides the delivery provider.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

type disabledMailer struct{}

func (disabledMailer) Send(context.Context, Message) error { return ErrNotConfigured }

// Disabled returns a mailer that always signals missing configuration.
func Disabled() Mailer {
	return disabledMailer{}
}

// SendGridMailer sends mail through the SendGrid v3 API.
type SendGridMailer struct {
	apiKey     string
	senderName string
	senderAddr string
}

// NewSendGridMailer wires a SendGrid-backed mailer, or a disabled one when the
// API key or sender address is missing.
func NewSendGridMailer(apiKey, senderName, senderAddr string) Mailer {
	if apiKey == "" || senderAddr == "" {
		return Disabled()
	}
	if senderName == "" {
		senderName = "Architect 3D"
	}
	return &SendGridMailer{apiKey: apiKey, senderName: senderName, senderAddr: senderAddr}
}

// Send delivers the message, attaching each file base64-encoded.
func (m *SendGridMailer) Send(_ context.Context, msg Message) error {
	if msg.To == "" {
		return fmt.Errorf("mail: recipient is required")
	}

	from := sgmail.NewEmail(m.senderName, m.senderAddr)
	to := sgmail.NewEmail("", msg.To)
	message := sgmail.NewSingleEmail(from, msg.Subject, to, msg.Body, "")

	for _, att := range msg.Attachments {
		attachment := sgmail.NewAttachment()
		attachment.SetFilename(att.Filename)
		attachment.SetType(att.ContentType)
		attachment.SetContent(base64.StdEncoding.EncodeToString(att.Data))
		attachment.SetDisposition("attachment")
		message.AddAttachment(attachment)
	}

	client := sendgrid.NewSendClient(m.apiKey)
	response, err := client.Send(message)
	if err != nil {
		return fmt.Errorf("mail: send: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("mail: send failed with status %d", response.StatusCode)
	}
	return nil
}
