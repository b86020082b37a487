package notifier

import (
	"context"
	"fmt"
	"log"
	"net/smtp"
	"strings"
)

// Email templates keyed by templateName. Placeholders use {{key}} and are
// filled from the job's context map.
var emailTemplates = map[string]struct {
	Subject string
	Body    string
}{
	"booking-created":   {"New booking request", "A new booking {{bookingId}} was requested for your space."},
	"booking-confirmed": {"Booking confirmed", "Your booking {{bookingId}} is confirmed. Please pay before {{expiredAt}}: {{paymentLink}}"},
	"booking-rejected":  {"Booking rejected", "Your booking {{bookingId}} was rejected. Reason: {{reason}}"},
	"booking-canceled":  {"Booking canceled", "Booking {{bookingId}} has been canceled."},
	"payment-succeeded": {"Payment received", "Payment for booking {{bookingId}} ({{amount}}) was received. See you there!"},
	"payment-failed":    {"Payment failed", "Payment for booking {{bookingId}} failed and the booking was released."},
	"payment-reminder":  {"Payment reminder", "Your booking {{bookingId}} expires at {{expiredAt}}. Pay now: {{paymentLink}}"},
}

// SMTPSender delivers templated emails over plain SMTP.
type SMTPSender struct {
	addr string
	from string
	auth smtp.Auth
}

func NewSMTPSender(addr, from, user, password string) *SMTPSender {
	var auth smtp.Auth
	if user != "" {
		host := addr
		if i := strings.IndexByte(addr, ':'); i >= 0 {
			host = addr[:i]
		}
		auth = smtp.PlainAuth("", user, password, host)
	}
	return &SMTPSender{addr: addr, from: from, auth: auth}
}

func (s *SMTPSender) Send(ctx context.Context, to, templateName string, data map[string]string) error {
	tpl, ok := emailTemplates[templateName]
	if !ok {
		return fmt.Errorf("unknown email template %q", templateName)
	}

	subject := render(tpl.Subject, data)
	body := render(tpl.Body, data)

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n", s.from, to, subject, body)
	if err := smtp.SendMail(s.addr, s.auth, s.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("send email to %s: %w", to, err)
	}
	return nil
}

func render(tpl string, data map[string]string) string {
	out := tpl
	for k, v := range data {
		out = strings.ReplaceAll(out, "{{"+k+"}}", v)
	}
	return out
}

// LogEmailSender is the dev fallback when no SMTP endpoint is configured.
type LogEmailSender struct{}

func (LogEmailSender) Send(_ context.Context, to, templateName string, data map[string]string) error {
	log.Printf("[email] to=%s template=%s data=%v", to, templateName, data)
	return nil
}
