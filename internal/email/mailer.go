package email

import (
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/google/uuid"
)

// Mailer sends one plain-text message and returns its message id.
type Mailer interface {
	Send(to, subject, body string) (string, error)
}

// SMTPMailer talks to a single SMTP relay. Port 465 gets an implicit-TLS
// connection; anything else goes through smtp.SendMail.
type SMTPMailer struct {
	host     string
	port     int
	username string
	password string
	from     string
}

func NewSMTP(host string, port int, username, password, from string) *SMTPMailer {
	return &SMTPMailer{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
	}
}

func (m *SMTPMailer) Send(to, subject, body string) (string, error) {
	messageID := fmt.Sprintf("<%s@liferhythm>", uuid.NewString())

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %q <%s>\r\n", "LifeRhythm", m.from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	fmt.Fprintf(&msg, "Message-ID: %s\r\n", messageID)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	var err error
	if m.port == 465 {
		err = m.sendWithSSL(to, msg.String())
	} else {
		err = m.sendPlain(to, msg.String())
	}
	if err != nil {
		return "", err
	}
	return messageID, nil
}

func (m *SMTPMailer) addr() string {
	return fmt.Sprintf("%s:%d", m.host, m.port)
}

func (m *SMTPMailer) auth() smtp.Auth {
	if m.username == "" {
		return nil
	}
	return smtp.PlainAuth("", m.username, m.password, m.host)
}

func (m *SMTPMailer) sendPlain(to, message string) error {
	err := smtp.SendMail(m.addr(), m.auth(), m.from, []string{to}, []byte(message))
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func (m *SMTPMailer) sendWithSSL(to, message string) error {
	tlsConfig := &tls.Config{ServerName: m.host}

	netConn, err := tls.Dial("tcp", m.addr(), tlsConfig)
	if err != nil {
		return fmt.Errorf("failed to dial SMTP server (SSL) %s: %w", m.addr(), err)
	}
	defer netConn.Close()

	conn, err := smtp.NewClient(netConn, m.host)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer conn.Close()

	if auth := m.auth(); auth != nil {
		if err := conn.Auth(auth); err != nil {
			return fmt.Errorf("failed to authenticate: %w", err)
		}
	}

	if err := conn.Mail(m.from); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err := conn.Rcpt(to); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	w, err := conn.Data()
	if err != nil {
		return fmt.Errorf("failed to get data writer: %w", err)
	}
	if _, err := w.Write([]byte(message)); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	return conn.Quit()
}
