// Package notification defines outbound email messages and the port that
// delivers them.
package notification

import (
	"context"
	"errors"
)

// ErrNoRecipient is returned when a message has no recipient
var ErrNoRecipient = errors.New("email has no recipient")

// Attachment is a file attached to an email
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Email is a single transactional message to one recipient
type Email struct {
	To          string
	ToName      string
	Subject     string
	HTML        string
	Text        string
	Attachments []Attachment
}

// Validate checks the minimum fields a provider needs
func (e Email) Validate() error {
	if e.To == "" {
		return ErrNoRecipient
	}
	if e.Subject == "" {
		return errors.New("email has no subject")
	}
	if e.HTML == "" && e.Text == "" {
		return errors.New("email has no body")
	}
	return nil
}

// Sender delivers one email and returns the provider's message ID
type Sender interface {
	Send(ctx context.Context, email Email) (string, error)
}
