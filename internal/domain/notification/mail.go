package notification

import (
	"bytes"
	"context"
	"fmt"
	htmltemplate "html/template"
	"text/template"

	"gopkg.in/gomail.v2"
)

type MailConfig struct {
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// mailSender is the part of *gomail.Dialer the dispatcher uses.
type mailSender interface {
	DialAndSend(m ...*gomail.Message) error
	Dial() (gomail.SendCloser, error)
}

// MailDispatcher sends confirmations over SMTP.
type MailDispatcher struct {
	cfg    MailConfig
	salon  Salon
	sender mailSender
}

func NewMailDispatcher(cfg MailConfig, salon Salon) *MailDispatcher {
	return &MailDispatcher{
		cfg:    cfg,
		salon:  salon,
		sender: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
	}
}

func (d *MailDispatcher) configured() bool {
	return d.cfg.User != "" && d.cfg.Password != ""
}

func (d *MailDispatcher) from() string {
	if d.cfg.From != "" {
		return d.cfg.From
	}
	return d.cfg.User
}

func (d *MailDispatcher) Send(_ context.Context, c Confirmation) Result {
	if !d.cfg.Enabled {
		return ok("Email disabled")
	}
	if !d.configured() {
		return rejected("Email not configured")
	}
	if c.To == "" {
		return rejected("No recipient")
	}

	m, err := d.message(c)
	if err != nil {
		return rejected(err.Error())
	}
	if err := d.sender.DialAndSend(m); err != nil {
		return failed(fmt.Sprintf("send confirmation: %v", err))
	}
	return ok("Confirmation email sent to " + c.To)
}

// Verify opens and closes an SMTP session with the configured credentials.
func (d *MailDispatcher) Verify(context.Context) Result {
	if !d.cfg.Enabled {
		return ok("Email disabled")
	}
	if !d.configured() {
		return failed("Email not configured")
	}
	sc, err := d.sender.Dial()
	if err != nil {
		return failed(fmt.Sprintf("smtp connection failed: %v", err))
	}
	_ = sc.Close()
	return ok("SMTP connection verified")
}

type mailView struct {
	Confirmation
	Salon Salon
	Price string
}

func (d *MailDispatcher) message(c Confirmation) (*gomail.Message, error) {
	view := mailView{Confirmation: c, Salon: d.salon, Price: c.ServicePrice.StringFixed(2)}

	var text bytes.Buffer
	if err := textBody.Execute(&text, view); err != nil {
		return nil, fmt.Errorf("render text body: %w", err)
	}
	var html bytes.Buffer
	if err := htmlBody.Execute(&html, view); err != nil {
		return nil, fmt.Errorf("render html body: %w", err)
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", d.from(), d.salon.Name)
	m.SetHeader("To", c.To)
	m.SetHeader("Subject", fmt.Sprintf("Booking confirmation - %s", d.salon.Name))
	m.SetBody("text/plain", text.String())
	m.AddAlternative("text/html", html.String())
	return m, nil
}

var textBody = template.Must(template.New("text").Parse(`Hello {{.CustomerName}},

Your appointment at {{.Salon.Name}} is confirmed.

Service:  {{.ServiceName}} ({{.ServiceDuration}} min)
Date:     {{.Date}}
Time:     {{.Time}}
Price:    {{.Price}}
{{- if .Notes}}
Notes:    {{.Notes}}
{{- end}}
{{if .Salon.Address}}
Address:  {{.Salon.Address}}
{{- end}}
{{- if .Salon.Phone}}
Phone:    {{.Salon.Phone}}
{{- end}}

Booking reference: #{{.BookingID}}
`))

var htmlBody = htmltemplate.Must(htmltemplate.New("html").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <h2>{{.Salon.Name}}</h2>
  <p>Hello {{.CustomerName}},</p>
  <p>Your appointment is confirmed.</p>
  <table cellpadding="4">
    <tr><td><strong>Service</strong></td><td>{{.ServiceName}} ({{.ServiceDuration}} min)</td></tr>
    <tr><td><strong>Date</strong></td><td>{{.Date}}</td></tr>
    <tr><td><strong>Time</strong></td><td>{{.Time}}</td></tr>
    <tr><td><strong>Price</strong></td><td>{{.Price}}</td></tr>
    {{if .Notes}}<tr><td><strong>Notes</strong></td><td>{{.Notes}}</td></tr>{{end}}
  </table>
  {{if .Salon.Address}}<p>{{.Salon.Address}}</p>{{end}}
  {{if .Salon.Phone}}<p>{{.Salon.Phone}}</p>{{end}}
  <p style="color: #888;">Booking reference #{{.BookingID}}</p>
</body>
</html>
`))
