// services/mail_service.go
package services

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"html/template"
	"net"
	"net/smtp"
	"strings"
	"time"
)

type IMailService interface {
	SendTicketEmail(to string, data TicketEmailData) error
}

// SMTPConfig holds SMTP + branding config.
type SMTPConfig struct {
	Host       string // e.g. "smtp.gmail.com"
	Port       int    // e.g. 587 (STARTTLS) or 465 (SMTPS)
	Username   string
	Password   string
	From       string // envelope from, e.g. "tickets@yourapp.com"
	FromName   string
	UseSSL     bool // true for SMTPS 465, false for STARTTLS 587
	RequireTLS bool // if true, fail if STARTTLS not available

	AppName    string
	AppBaseURL string // e.g. "https://yourapp.com"
}

type TicketEmailData struct {
	BuyerName   string
	EventName   string
	EventVenue  string
	Quantity    int
	FinalAmount float64
	Currency    string
	TicketURL   string
	AppName     string
	Year        int
}

type smtpMailService struct {
	cfg       SMTPConfig
	ticketTpl *template.Template
	textTpl   *template.Template
}

func NewSMTPMailService(cfg SMTPConfig) (IMailService, error) {
	ticketHTML := template.Must(template.New("ticketHTML").Parse(ticketHTMLTemplate))
	plainText := template.Must(template.New("plainText").Parse(ticketTextTemplate))

	return &smtpMailService{
		cfg:       cfg,
		ticketTpl: ticketHTML,
		textTpl:   plainText,
	}, nil
}

// ------------------- Public API -------------------

func (s *smtpMailService) SendTicketEmail(to string, data TicketEmailData) error {
	data.AppName = s.cfg.AppName
	data.Year = time.Now().Year()
	if data.TicketURL == "" {
		data.TicketURL = strings.TrimRight(s.cfg.AppBaseURL, "/") + "/tickets"
	}

	subject := fmt.Sprintf("Your tickets for %s", data.EventName)

	var hb, tb bytes.Buffer
	if err := s.ticketTpl.Execute(&hb, data); err != nil {
		return err
	}
	if err := s.textTpl.Execute(&tb, data); err != nil {
		return err
	}
	return s.send(to, subject, hb.String(), tb.String())
}

const ticketHTMLTemplate = `<!doctype html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width,initial-scale=1">
  <title>Your tickets</title>
  <style>
    body { margin: 0; padding: 0; background: #0f172a; color: #ffffff; font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif; }
    .wrapper { width: 100%; padding: 40px 16px; box-sizing: border-box; }
    .container { max-width: 600px; margin: 0 auto; background: #1e293b; border-radius: 16px; overflow: hidden; }
    .header { padding: 28px 32px; border-bottom: 1px solid rgba(148, 163, 184, 0.1); }
    .brand { font-weight: 700; letter-spacing: 0.5px; font-size: 22px; color: #60a5fa; text-transform: uppercase; }
    .hero { padding: 36px 32px; }
    h1 { margin: 0 0 16px; font-size: 26px; color: #f1f5f9; }
    p { margin: 0 0 18px; line-height: 1.7; color: #cbd5e1; font-size: 16px; }
    .summary { background: rgba(148, 163, 184, 0.08); border-radius: 8px; padding: 16px; margin: 24px 0; }
    .summary td { padding: 4px 8px; color: #cbd5e1; font-size: 14px; }
    .btn { display: inline-block; padding: 15px 30px; background: #2563eb; color: #ffffff !important; text-decoration: none; border-radius: 12px; font-weight: 600; font-size: 16px; }
    .footer { padding: 22px 32px; color: #64748b; font-size: 13px; text-align: center; border-top: 1px solid rgba(148, 163, 184, 0.1); }
  </style>
</head>
<body>
  <div class="wrapper">
    <div class="container">
      <div class="header">
        <div class="brand">{{.AppName}}</div>
      </div>
      <div class="hero">
        <h1>You're going to {{.EventName}}!</h1>
        <p>Hi {{.BuyerName}}, your purchase is confirmed. Present the QR code on your ticket page at the entrance{{if .EventVenue}} of {{.EventVenue}}{{end}}.</p>
        <table class="summary">
          <tr><td>Event</td><td>{{.EventName}}</td></tr>
          <tr><td>Tickets</td><td>{{.Quantity}}</td></tr>
          <tr><td>Total charged</td><td>{{printf "%.2f" .FinalAmount}} {{.Currency}}</td></tr>
        </table>
        <p><a class="btn" href="{{.TicketURL}}">View my tickets</a></p>
        <p>If the button doesn't work, copy and paste this link into your browser:<br>{{.TicketURL}}</p>
      </div>
      <div class="footer">
        © {{.Year}} {{.AppName}}. All rights reserved.
      </div>
    </div>
  </div>
</body>
</html>`

const ticketTextTemplate = `You're going to {{.EventName}}!

Hi {{.BuyerName}}, your purchase is confirmed.

Event: {{.EventName}}
Tickets: {{.Quantity}}
Total charged: {{printf "%.2f" .FinalAmount}} {{.Currency}}

View your tickets:
{{.TicketURL}}

— {{.AppName}} (c) {{.Year}}
`

// ------------------- SMTP Send -------------------

func (s *smtpMailService) send(to, subject, htmlBody, textBody string) error {
	fromHeader := s.formatFromHeader()
	date := time.Now().Format(time.RFC1123Z)
	boundary := fmt.Sprintf("mixed_%d", time.Now().UnixNano())

	var msg bytes.Buffer
	write := func(format string, a ...any) { _, _ = msg.WriteString(fmt.Sprintf(format, a...)) }

	// Headers
	write("From: %s\r\n", fromHeader)
	write("To: %s\r\n", to)
	write("Subject: %s\r\n", subject)
	write("Date: %s\r\n", date)
	write("MIME-Version: 1.0\r\n")
	write("Content-Type: multipart/alternative; boundary=%q\r\n", boundary)
	write("\r\n")

	// Plaintext part
	write("--%s\r\n", boundary)
	write("Content-Type: text/plain; charset=UTF-8\r\n")
	write("Content-Transfer-Encoding: 7bit\r\n\r\n")
	write("%s\r\n\r\n", textBody)

	// HTML part
	write("--%s\r\n", boundary)
	write("Content-Type: text/html; charset=UTF-8\r\n")
	write("Content-Transfer-Encoding: 7bit\r\n\r\n")
	write("%s\r\n\r\n", htmlBody)

	// End
	write("--%s--\r\n", boundary)

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)

	if s.cfg.UseSSL {
		// SMTPS (implicit TLS, usually port 465)
		tlsCfg := &tls.Config{ServerName: s.cfg.Host, MinVersion: tls.VersionTLS12}
		conn, err := tls.Dial("tcp", addr, tlsCfg)
		if err != nil {
			return err
		}
		defer conn.Close()

		c, err := smtp.NewClient(conn, s.cfg.Host)
		if err != nil {
			return err
		}
		defer c.Quit()

		if err = c.Auth(auth); err != nil {
			return err
		}
		if err = c.Mail(s.cfg.From); err != nil {
			return err
		}
		if err = c.Rcpt(to); err != nil {
			return err
		}
		w, err := c.Data()
		if err != nil {
			return err
		}
		if _, err = w.Write(msg.Bytes()); err != nil {
			return err
		}
		return w.Close()
	}

	// STARTTLS path (typically port 587)
	dialer := &net.Dialer{Timeout: 10 * time.Second}
	conn, err := dialer.Dial("tcp", addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	c, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		return err
	}
	defer c.Quit()

	// Upgrade to TLS if supported
	if ok, _ := c.Extension("STARTTLS"); ok {
		tlsCfg := &tls.Config{ServerName: s.cfg.Host, MinVersion: tls.VersionTLS12}
		if err = c.StartTLS(tlsCfg); err != nil {
			return err
		}
	} else if s.cfg.RequireTLS {
		return fmt.Errorf("server does not support STARTTLS and RequireTLS=true")
	}

	if err = c.Auth(auth); err != nil {
		return err
	}
	if err = c.Mail(s.cfg.From); err != nil {
		return err
	}
	if err = c.Rcpt(to); err != nil {
		return err
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err = w.Write(msg.Bytes()); err != nil {
		return err
	}
	return w.Close()
}

func (s *smtpMailService) formatFromHeader() string {
	name := strings.TrimSpace(s.cfg.FromName)
	if name == "" {
		return s.cfg.From
	}
	return fmt.Sprintf("%s <%s>", name, s.cfg.From)
}
