// Package email composes and delivers account activation messages.
//
// The gateway only ever sends one kind of mail (the activation message for
// accounts created through federated login), so the package stays small: a
// Sender boundary plus helpers for composing the message.
package email

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode"
)

// Message is a composed, ready-to-deliver mail.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers a message. Implementations wrap whatever relay the
// deployment uses; the default logs instead of sending.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// ComposeActivation builds the activation message for a newly created
// account, addressed by the name derived from the mail address.
func ComposeActivation(emailAddr, activationURL string) Message {
	first, _ := DeriveNameFromEmail(emailAddr)
	return Message{
		To:      emailAddr,
		Subject: "Activate your account",
		Body: fmt.Sprintf(
			"Hi %s,\n\nFollow this link to activate your account:\n%s\n",
			first, activationURL,
		),
	}
}

// LogSender writes messages to the log instead of a mail relay. Used in
// development and tests.
type LogSender struct {
	Logger *slog.Logger
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	s.Logger.InfoContext(ctx, "activation email (not sent, log sender)",
		"to", msg.To,
		"subject", msg.Subject,
	)
	return nil
}

// DeriveNameFromEmail splits the local part of a mail address into a
// first/last name pair for greeting copy.
func DeriveNameFromEmail(email string) (string, string) {
	localPart := email
	if at := strings.IndexByte(email, '@'); at > 0 {
		localPart = email[:at]
	}

	parts := strings.FieldsFunc(localPart, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	})

	if len(parts) == 0 {
		return "User", "User"
	}

	first := capitalize(parts[0])
	last := "User"
	if len(parts) > 1 {
		last = capitalize(parts[len(parts)-1])
	}

	return first, last
}

func capitalize(s string) string {
	if s == "" {
		return s
	}

	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
