// Package mailer sends quotes by email over SMTP.
package mailer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/domodwyer/mailyak/v3"
	log "github.com/sirupsen/logrus"
)

// DefaultSubject is used when a message does not set one.
const DefaultSubject = "Cotización Solicitada"

var (
	ErrNoRecipient   = errors.New("destinatario es requerido")
	ErrNotConfigured = errors.New("smtp no configurado")
)

// Config holds the SMTP account and sender identity.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	FromName string
	ReplyTo  string
}

// Enabled reports whether enough is set to send mail.
func (c Config) Enabled() bool {
	return c.Host != "" && c.From != ""
}

// Attachment is a file carried by a message.
type Attachment struct {
	Name        string
	ContentType string
	Data        []byte
}

// Message is one outgoing email.
type Message struct {
	To          []string
	Subject     string
	HTML        string
	Attachments []Attachment
}

// Mailer builds and sends messages.
type Mailer struct {
	cfg Config
}

// New returns a Mailer for cfg.
func New(cfg Config) *Mailer {
	return &Mailer{cfg: cfg}
}

func (m *Mailer) addr() string {
	port := m.cfg.Port
	if port == 0 {
		port = 587
	}
	return net.JoinHostPort(m.cfg.Host, strconv.Itoa(port))
}

// Build assembles the mailyak message without sending it.
func (m *Mailer) Build(msg Message) (*mailyak.MailYak, error) {
	to := make([]string, 0, len(msg.To))
	for _, addr := range msg.To {
		if addr = strings.TrimSpace(addr); addr != "" {
			to = append(to, addr)
		}
	}
	if len(to) == 0 {
		return nil, ErrNoRecipient
	}

	var auth smtp.Auth
	if m.cfg.User != "" {
		auth = smtp.PlainAuth("", m.cfg.User, m.cfg.Password, m.cfg.Host)
	}
	mail := mailyak.New(m.addr(), auth)
	mail.To(to...)
	mail.From(m.cfg.From)
	if m.cfg.FromName != "" {
		mail.FromName(m.cfg.FromName)
	}
	if m.cfg.ReplyTo != "" {
		mail.ReplyTo(m.cfg.ReplyTo)
	}
	subject := msg.Subject
	if subject == "" {
		subject = DefaultSubject
	}
	mail.Subject(subject)
	mail.HTML().Set(msg.HTML)

	for _, a := range msg.Attachments {
		if a.ContentType != "" {
			mail.AttachWithMimeType(a.Name, bytes.NewReader(a.Data), a.ContentType)
		} else {
			mail.Attach(a.Name, bytes.NewReader(a.Data))
		}
	}
	return mail, nil
}

// Send delivers msg through the configured SMTP server.
func (m *Mailer) Send(ctx context.Context, msg Message) error {
	if !m.cfg.Enabled() {
		return ErrNotConfigured
	}
	mail, err := m.Build(msg)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := mail.Send(); err != nil {
		return fmt.Errorf("send email to %s: %w", strings.Join(msg.To, ", "), err)
	}
	log.WithFields(log.Fields{"to": msg.To, "subject": msg.Subject}).Info("email sent")
	return nil
}

// QuoteMessage is the email that carries a quote PDF.
func QuoteMessage(to, number, html string, pdf []byte) Message {
	return Message{
		To:      []string{to},
		Subject: fmt.Sprintf("%s %s", DefaultSubject, number),
		HTML:    html,
		Attachments: []Attachment{{
			Name:        "cotizacion.pdf",
			ContentType: "application/pdf",
			Data:        pdf,
		}},
	}
}
