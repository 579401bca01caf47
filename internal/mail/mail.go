// Package mail formats and sends Homees notification emails.
package mail

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"github.com/homees-app/homees/internal/demande"
	"github.com/homees-app/homees/internal/property"
	"github.com/homees-app/homees/internal/user"
)

// SMTPConfig holds SMTP connection settings.
type SMTPConfig struct {
	Host string
	Port string
	User string
	Pass string
	From string
}

// IsConfigured returns true if SMTP settings are present.
func (c SMTPConfig) IsConfigured() bool {
	return c.Host != "" && c.From != ""
}

// Sender delivers emails over SMTP. In dev mode, or when SMTP is not
// configured, messages are logged instead.
type Sender struct {
	cfg     SMTPConfig
	devMode bool
}

// NewSender creates a sender.
func NewSender(cfg SMTPConfig, devMode bool) *Sender {
	return &Sender{cfg: cfg, devMode: devMode}
}

// Send sends a plain-text email.
func (s *Sender) Send(to []string, subject, body string) error {
	if len(to) == 0 {
		return fmt.Errorf("no recipients")
	}
	if s.devMode || !s.cfg.IsConfigured() {
		slog.Info("email not sent (dev mode or SMTP unset)", "to", strings.Join(to, ","), "subject", subject)
		slog.Debug("email body", "body", body)
		return nil
	}
	return send(s.cfg, to, subject, body)
}

// FormatDemandeEmail builds the email telling a manager about a new demande.
func FormatDemandeEmail(d *demande.Demande, owner *user.User, p *property.Property, baseURL string) (subject, body string) {
	subject = "Nouvelle demande sur Homees : " + d.Sujet

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Bonjour,\n\n%s vous a envoyé une demande de gestion sur Homees.\n\n", owner.DisplayName())
	fmt.Fprintf(&buf, "Sujet : %s\n", d.Sujet)

	if p != nil {
		fmt.Fprintf(&buf, "\nBien concerné : %s\n", p.Titre)
		fmt.Fprintf(&buf, "   %s\n", strings.TrimSpace(strings.Join([]string{p.Adresse, p.CodePostal, p.Ville}, " ")))

		var details []string
		details = append(details, p.Type.Label())
		if p.Surface != nil {
			details = append(details, fmt.Sprintf("%s m²", formatNumber(int64(*p.Surface))))
		}
		if p.Pieces != nil {
			details = append(details, fmt.Sprintf("%d pièces", *p.Pieces))
		}
		if p.Loyer != nil {
			details = append(details, fmt.Sprintf("%s €/mois", formatNumber(int64(*p.Loyer))))
		}
		if p.DPE != nil {
			details = append(details, "DPE "+*p.DPE)
		}
		fmt.Fprintf(&buf, "   %s\n", strings.Join(details, " | "))
	}

	fmt.Fprintf(&buf, "\nRépondez depuis votre tableau de bord :\n%s/demandes/%s\n", strings.TrimRight(baseURL, "/"), d.ID)
	fmt.Fprintf(&buf, "\nL'équipe Homees\n")

	return subject, buf.String()
}

// FormatStatutEmail builds the email telling an owner their demande changed status.
func FormatStatutEmail(d *demande.Demande, manager *user.User, baseURL string) (subject, body string) {
	subject = fmt.Sprintf("Votre demande « %s » : %s", d.Sujet, strings.ToLower(d.Statut.Label()))

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Bonjour,\n\n%s a mis à jour votre demande « %s ».\n", manager.DisplayName(), d.Sujet)
	fmt.Fprintf(&buf, "Nouveau statut : %s\n", d.Statut.Label())
	fmt.Fprintf(&buf, "\n%s/demandes/%s\n\nL'équipe Homees\n", strings.TrimRight(baseURL, "/"), d.ID)

	return subject, buf.String()
}

func send(cfg SMTPConfig, to []string, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s",
		cfg.From,
		strings.Join(to, ", "),
		subject,
		body,
	)

	addr := cfg.Host + ":" + cfg.Port

	if cfg.Port == "465" {
		return sendImplicitTLS(cfg, addr, to, msg)
	}
	return sendSTARTTLS(cfg, addr, to, msg)
}

// sendImplicitTLS connects over TLS directly (port 465/SMTPS).
func sendImplicitTLS(cfg SMTPConfig, addr string, to []string, msg string) (err error) {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: cfg.Host})
	if err != nil {
		return fmt.Errorf("TLS dial: %w", err)
	}

	c, err := smtp.NewClient(conn, cfg.Host)
	if err != nil {
		return fmt.Errorf("creating SMTP client: %w", err)
	}
	defer func() {
		if quitErr := c.Quit(); quitErr != nil && err == nil {
			err = fmt.Errorf("quit: %w", quitErr)
		}
	}()

	if cfg.User != "" {
		if err := c.Auth(smtp.PlainAuth("", cfg.User, cfg.Pass, cfg.Host)); err != nil {
			return fmt.Errorf("auth: %w", err)
		}
	}

	if err := c.Mail(cfg.From); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return fmt.Errorf("rcpt to %s: %w", rcpt, err)
		}
	}

	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err := w.Write([]byte(msg)); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close data: %w", err)
	}

	return nil
}

// sendSTARTTLS connects plain then upgrades to TLS (port 587).
func sendSTARTTLS(cfg SMTPConfig, addr string, to []string, msg string) error {
	var auth smtp.Auth
	if cfg.User != "" {
		auth = smtp.PlainAuth("", cfg.User, cfg.Pass, cfg.Host)
	}

	if err := smtp.SendMail(addr, auth, cfg.From, to, []byte(msg)); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}

	return nil
}

// formatNumber groups thousands with a narrow space, French style.
func formatNumber(n int64) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	return strings.Join(parts, "\u202f")
}
