// Package mailer renders and delivers the transactional emails of the API.
package mailer

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"

	"go.uber.org/zap"
)

// Message is a rendered HTML email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Sender delivers a rendered message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// InvitationEmail holds the data for a workspace invitation.
type InvitationEmail struct {
	RecipientEmail string
	RecipientName  string
	InviterName    string
	WorkspaceName  string
	InvitationURL  string
}

// WelcomeEmail holds the data sent after signup.
type WelcomeEmail struct {
	RecipientEmail string
	RecipientName  string
	DashboardURL   string
}

// Mailer renders templates and hands the result to a Sender.
type Mailer struct {
	sender  Sender
	appName string
}

// New creates a Mailer delivering through sender.
func New(sender Sender) *Mailer {
	return &Mailer{sender: sender, appName: "ReqForge"}
}

// SendInvitation sends the workspace invitation email.
func (m *Mailer) SendInvitation(ctx context.Context, data InvitationEmail) error {
	if data.RecipientName == "" {
		data.RecipientName = "there"
	}

	html, err := render(invitationTemplate, struct {
		AppName string
		InvitationEmail
	}{m.appName, data})
	if err != nil {
		return fmt.Errorf("render invitation template: %w", err)
	}

	return m.sender.Send(ctx, Message{
		To:      data.RecipientEmail,
		Subject: fmt.Sprintf("You're invited to collaborate on %q - %s", data.WorkspaceName, m.appName),
		HTML:    html,
	})
}

// SendWelcome sends the welcome email after account creation.
func (m *Mailer) SendWelcome(ctx context.Context, data WelcomeEmail) error {
	html, err := render(welcomeTemplate, struct {
		AppName string
		WelcomeEmail
	}{m.appName, data})
	if err != nil {
		return fmt.Errorf("render welcome template: %w", err)
	}

	return m.sender.Send(ctx, Message{
		To:      data.RecipientEmail,
		Subject: fmt.Sprintf("Welcome to %s", m.appName),
		HTML:    html,
	})
}

func render(t *template.Template, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// LogSender writes messages to the log instead of sending them. It is used
// when no SMTP server is configured.
type LogSender struct {
	log *zap.Logger
}

// NewLogSender creates a LogSender
func NewLogSender(log *zap.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.log.Info("email delivery disabled, message logged",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Int("html_bytes", len(msg.HTML)),
	)
	return nil
}

// URL joins base and path without doubling the slash.
func URL(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}
