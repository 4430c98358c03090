// internal/mailer/mailer.go
package mailer

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"

	"github.com/davencourt/mailliste-backend/internal/apperrors"
	"github.com/davencourt/mailliste-backend/internal/config"
)

// Mailer is what the campaign runner sends through. Tests swap in fakes.
type Mailer interface {
	Send(msg *Outgoing) error
	Ping() error
}

// SMTPMailer delivers over a real SMTP server, either with STARTTLS on a
// plaintext connection or over an implicit-TLS port.
type SMTPMailer struct {
	SMTP   config.SMTPConfig
	Sender config.MailConfig
}

func NewSMTPMailer(cfg *config.Config) *SMTPMailer {
	return &SMTPMailer{SMTP: cfg.SMTP, Sender: cfg.Mail}
}

func (m *SMTPMailer) addr() string {
	return net.JoinHostPort(m.SMTP.Host, strconv.Itoa(m.SMTP.Port))
}

// connect returns an authenticated client. Errors here are transport
// errors: the campaign loop stops on them instead of burning recipients.
func (m *SMTPMailer) connect() (*smtp.Client, error) {
	var client *smtp.Client

	switch m.SMTP.TLSMode {
	case config.TLSModeImplicit:
		conn, err := tls.Dial("tcp", m.addr(), &tls.Config{ServerName: m.SMTP.Host})
		if err != nil {
			return nil, apperrors.NewTransport(fmt.Errorf("smtp tls dial: %w", err))
		}
		client, err = smtp.NewClient(conn, m.SMTP.Host)
		if err != nil {
			conn.Close()
			return nil, apperrors.NewTransport(fmt.Errorf("smtp handshake: %w", err))
		}
	default: // starttls
		c, err := smtp.Dial(m.addr())
		if err != nil {
			return nil, apperrors.NewTransport(fmt.Errorf("smtp dial: %w", err))
		}
		if ok, _ := c.Extension("STARTTLS"); ok {
			if err := c.StartTLS(&tls.Config{ServerName: m.SMTP.Host}); err != nil {
				c.Close()
				return nil, apperrors.NewTransport(fmt.Errorf("starttls: %w", err))
			}
		}
		client = c
	}

	if m.SMTP.User != "" {
		auth := smtp.PlainAuth("", m.SMTP.User, m.SMTP.Password, m.SMTP.Host)
		if err := client.Auth(auth); err != nil {
			client.Close()
			return nil, apperrors.NewTransport(fmt.Errorf("smtp auth: %w", err))
		}
	}
	return client, nil
}

// Ping connects and authenticates, then quits. Used by the connection test
// endpoint and by the runner before its first send.
func (m *SMTPMailer) Ping() error {
	client, err := m.connect()
	if err != nil {
		return err
	}
	return client.Quit()
}

// Send delivers one message on a fresh connection. A connect or auth
// failure comes back as a TransportError; an error after MAIL FROM is a
// per-recipient failure.
func (m *SMTPMailer) Send(msg *Outgoing) error {
	client, err := m.connect()
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.Mail(m.Sender.SenderEmail); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	if err := client.Rcpt(msg.To); err != nil {
		return fmt.Errorf("rcpt to: %w", err)
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	raw, err := BuildMIME(msg, m.Sender)
	if err != nil {
		return err
	}
	if _, err := w.Write(raw); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("data close: %w", err)
	}
	return client.Quit()
}

var _ Mailer = (*SMTPMailer)(nil)
