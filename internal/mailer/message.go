// internal/mailer/message.go
package mailer

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/davencourt/mailliste-backend/internal/config"
)

// Outgoing is one message ready for the wire.
type Outgoing struct {
	To              string
	ToName          string
	Subject         string
	Body            string
	HTML            bool
	ContentLanguage string
	// UnsubscribeURL, when set, yields List-Unsubscribe headers with
	// one-click POST support.
	UnsubscribeURL string
	Attachments    []string
	// Date and MessageID are filled by BuildMIME when empty; tests pin them.
	Date      time.Time
	MessageID string
}

// BuildMIME renders the full RFC 5322 message bytes.
func BuildMIME(msg *Outgoing, sender config.MailConfig) ([]byte, error) {
	date := msg.Date
	if date.IsZero() {
		date = time.Now()
	}
	messageID := msg.MessageID
	if messageID == "" {
		messageID = fmt.Sprintf("<%s@%s>", uuid.New().String(), senderDomain(sender.SenderEmail))
	}

	var buf bytes.Buffer
	writeHeader := func(k, v string) {
		fmt.Fprintf(&buf, "%s: %s\r\n", k, v)
	}

	writeHeader("From", formatAddress(sender.SenderName, sender.SenderEmail))
	writeHeader("To", formatAddress(msg.ToName, msg.To))
	writeHeader("Subject", mime.QEncoding.Encode("utf-8", msg.Subject))
	writeHeader("Date", date.Format(time.RFC1123Z))
	writeHeader("Message-ID", messageID)
	if msg.ContentLanguage != "" {
		writeHeader("Content-Language", msg.ContentLanguage)
	}
	if msg.UnsubscribeURL != "" {
		writeHeader("List-Unsubscribe", "<"+msg.UnsubscribeURL+">")
		writeHeader("List-Unsubscribe-Post", "List-Unsubscribe=One-Click")
	}
	writeHeader("MIME-Version", "1.0")

	bodyType := "text/plain"
	if msg.HTML {
		bodyType = "text/html"
	}

	if len(msg.Attachments) == 0 {
		writeHeader("Content-Type", bodyType+"; charset=utf-8")
		writeHeader("Content-Transfer-Encoding", "quoted-printable")
		buf.WriteString("\r\n")
		if err := writeQP(&buf, msg.Body); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}

	mw := multipart.NewWriter(&buf)
	writeHeader("Content-Type", `multipart/mixed; boundary="`+mw.Boundary()+`"`)
	buf.WriteString("\r\n")

	part, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {bodyType + "; charset=utf-8"},
		"Content-Transfer-Encoding": {"quoted-printable"},
	})
	if err != nil {
		return nil, err
	}
	qp := quotedprintable.NewWriter(part)
	if _, err := qp.Write([]byte(msg.Body)); err != nil {
		return nil, err
	}
	qp.Close()

	for _, path := range msg.Attachments {
		if err := attach(mw, path); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func attach(mw *multipart.Writer, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("attachment %s: %w", path, err)
	}
	name := filepath.Base(path)
	part, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {"application/octet-stream; name=" + quote(name)},
		"Content-Disposition":       {"attachment; filename=" + quote(name)},
		"Content-Transfer-Encoding": {"base64"},
	})
	if err != nil {
		return err
	}
	return writeBase64(part, data)
}

// writeBase64 wraps output at 76 columns per RFC 2045.
func writeBase64(w interface{ Write([]byte) (int, error) }, data []byte) error {
	encoded := base64.StdEncoding.EncodeToString(data)
	for len(encoded) > 0 {
		n := 76
		if n > len(encoded) {
			n = len(encoded)
		}
		if _, err := w.Write([]byte(encoded[:n] + "\r\n")); err != nil {
			return err
		}
		encoded = encoded[n:]
	}
	return nil
}

func writeQP(buf *bytes.Buffer, body string) error {
	qp := quotedprintable.NewWriter(buf)
	if _, err := qp.Write([]byte(body)); err != nil {
		return err
	}
	return qp.Close()
}

func formatAddress(name, email string) string {
	if name == "" {
		return email
	}
	return fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", name), email)
}

func senderDomain(email string) string {
	if _, domain, ok := strings.Cut(email, "@"); ok && domain != "" {
		return domain
	}
	return "localhost"
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, ``) + `"`
}
