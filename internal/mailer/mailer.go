package mailer

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"
	"net/url"
	"strings"

	"github.com/domodwyer/mailyak/v3"
)

// PurchaseEmail carries everything the confirmation message renders.
type PurchaseEmail struct {
	To          string
	Name        string
	EventTitle  string
	EventSlug   string
	TicketName  string
	Amount      int64
	Currency    string
	AccessToken string
}

type Config struct {
	Host      string
	Port      int
	Username  string
	Password  string
	From      string
	PublicURL string
}

// SMTPMailer sends transactional mail over plain-auth SMTP.
type SMTPMailer struct {
	cfg Config
}

func NewSMTP(cfg Config) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

// SendPurchaseConfirmation delivers the post-purchase email with the
// playback link. Callers treat failures as best-effort: delivery must
// never decide the outcome of a payment.
func (m *SMTPMailer) SendPurchaseConfirmation(ctx context.Context, email PurchaseEmail) error {
	const op = "mailer.SMTPMailer.SendPurchaseConfirmation"

	body, err := renderPurchaseConfirmation(m.cfg.PublicURL, email)
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	mail := mailyak.New(addr, smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host))

	mail.From(m.cfg.From)
	mail.To(email.To)
	mail.Subject(fmt.Sprintf("Your ticket for %s", email.EventTitle))
	mail.HTML().Set(body)

	if err := mail.Send(); err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}

var purchaseTmpl = template.Must(template.New("purchase").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <h2>Thank you for your purchase{{if .Name}}, {{.Name}}{{end}}!</h2>
    <table style="width: 100%; background: #f9f9f9; padding: 12px;">
      <tr><td><strong>Event</strong></td><td>{{.EventTitle}}</td></tr>
      <tr><td><strong>Ticket</strong></td><td>{{.TicketName}}</td></tr>
      <tr><td><strong>Price</strong></td><td>{{.Price}}</td></tr>
    </table>
    <p style="text-align: center; margin: 24px 0;">
      <a href="{{.WatchURL}}" style="background: #667eea; color: #fff; padding: 14px 36px; text-decoration: none; border-radius: 5px;">Open the watch page</a>
    </p>
    <p style="font-size: 12px; color: #856404;">This link stays valid for 30 days.</p>
    <p style="font-size: 12px; color: #999;">This is an automated message.</p>
  </div>
</body>
</html>`))

func renderPurchaseConfirmation(publicURL string, email PurchaseEmail) (string, error) {
	watchURL := fmt.Sprintf(
		"%s/watch/%s?token=%s",
		strings.TrimRight(publicURL, "/"),
		email.EventSlug,
		url.QueryEscape(email.AccessToken),
	)

	data := struct {
		Name       string
		EventTitle string
		TicketName string
		Price      string
		WatchURL   string
	}{
		Name:       email.Name,
		EventTitle: email.EventTitle,
		TicketName: email.TicketName,
		Price:      FormatAmount(email.Amount, email.Currency),
		WatchURL:   watchURL,
	}

	var buf bytes.Buffer
	if err := purchaseTmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

// PasswordResetEmail carries what the reset message renders.
type PasswordResetEmail struct {
	To         string
	Name       string
	ResetToken string
}

// SendPasswordReset delivers the reset link. The token inside expires on
// its own, so a lost email needs no cleanup.
func (m *SMTPMailer) SendPasswordReset(ctx context.Context, email PasswordResetEmail) error {
	const op = "mailer.SMTPMailer.SendPasswordReset"

	body, err := renderPasswordReset(m.cfg.PublicURL, email)
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	mail := mailyak.New(addr, smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host))

	mail.From(m.cfg.From)
	mail.To(email.To)
	mail.Subject("Password reset instructions")
	mail.HTML().Set(body)

	if err := mail.Send(); err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}

var resetTmpl = template.Must(template.New("reset").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <h2>Password reset{{if .Name}} for {{.Name}}{{end}}</h2>
    <p>We received a request to reset the password of this account. If that
    was not you, you can ignore this message.</p>
    <p style="text-align: center; margin: 24px 0;">
      <a href="{{.ResetURL}}" style="background: #667eea; color: #fff; padding: 14px 36px; text-decoration: none; border-radius: 5px;">Choose a new password</a>
    </p>
    <p style="font-size: 12px; color: #856404;">This link expires in one hour.</p>
    <p style="font-size: 12px; color: #999;">This is an automated message.</p>
  </div>
</body>
</html>`))

func renderPasswordReset(publicURL string, email PasswordResetEmail) (string, error) {
	resetURL := fmt.Sprintf(
		"%s/reset-password?token=%s",
		strings.TrimRight(publicURL, "/"),
		url.QueryEscape(email.ResetToken),
	)

	data := struct {
		Name     string
		ResetURL string
	}{
		Name:     email.Name,
		ResetURL: resetURL,
	}

	var buf bytes.Buffer
	if err := resetTmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

// zeroDecimal lists the currencies charged in whole units rather than
// hundredths.
var zeroDecimal = map[string]bool{
	"jpy": true,
	"krw": true,
	"vnd": true,
}

// FormatAmount renders a minor-unit amount for display: 1500 jpy ->
// "JPY 1500", 1500 usd -> "USD 15.00".
func FormatAmount(amount int64, currency string) string {
	code := strings.ToUpper(currency)
	if zeroDecimal[strings.ToLower(currency)] {
		return fmt.Sprintf("%s %d", code, amount)
	}
	return fmt.Sprintf("%s %d.%02d", code, amount/100, amount%100)
}
