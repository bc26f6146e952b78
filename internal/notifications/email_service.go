package notifications

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"html/template"
	"log"
	"net/smtp"
	"strconv"
	"time"
)

// EmailService interface for sending emails
type EmailService interface {
	SendNotification(ctx context.Context, notification *EmailNotification) error
	SendHTML(ctx context.Context, to, subject, htmlBody, textBody string) error
	SendTemplate(ctx context.Context, to, subject, templateName string, data interface{}) error
}

// SMTPConfig holds SMTP configuration
type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromEmail string
	FromName  string
	UseTLS    bool
	Timeout   time.Duration
}

// SMTPEmailService is a real SMTP implementation of the EmailService interface
type SMTPEmailService struct {
	config    *SMTPConfig
	templates map[string]*template.Template
}

// NewSMTPEmailService creates a new SMTP email service
func NewSMTPEmailService(config *SMTPConfig) (*SMTPEmailService, error) {
	if err := validateSMTPConfig(config); err != nil {
		return nil, fmt.Errorf("invalid SMTP configuration: %w", err)
	}

	service := &SMTPEmailService{
		config:    config,
		templates: make(map[string]*template.Template),
	}
	service.loadDefaultTemplates()

	return service, nil
}

func validateSMTPConfig(config *SMTPConfig) error {
	if config == nil {
		return fmt.Errorf("SMTP config is nil")
	}
	if config.Host == "" {
		return fmt.Errorf("SMTP host is required")
	}
	if config.Port <= 0 || config.Port > 65535 {
		return fmt.Errorf("SMTP port must be between 1 and 65535")
	}
	if config.Username == "" {
		return fmt.Errorf("SMTP username is required")
	}
	if config.Password == "" {
		return fmt.Errorf("SMTP password is required")
	}
	if config.FromEmail == "" {
		return fmt.Errorf("from email is required")
	}
	return nil
}

// SendNotification renders the notification's template and mails it.
func (s *SMTPEmailService) SendNotification(ctx context.Context, notification *EmailNotification) error {
	log.Printf("📧 [SMTP] Sending %s notification to %s (%s)",
		notification.Type,
		notification.RecipientEmail,
		notification.RecipientName,
	)

	htmlBody, textBody, err := s.generateContent(notification)
	if err != nil {
		return fmt.Errorf("failed to generate email content: %w", err)
	}

	return s.SendHTML(ctx, notification.RecipientEmail, notification.Subject, htmlBody, textBody)
}

// SendHTML sends an HTML email
func (s *SMTPEmailService) SendHTML(ctx context.Context, to, subject, htmlBody, textBody string) error {
	message := s.buildMessage(to, subject, htmlBody, textBody)

	auth := smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	var err error
	if s.config.UseTLS {
		err = s.sendWithSTARTTLS(addr, auth, to, message)
	} else {
		err = smtp.SendMail(addr, auth, s.config.FromEmail, []string{to}, message)
	}

	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	log.Printf("📧 [SMTP] Email sent successfully to %s", to)
	return nil
}

// SendTemplate sends an email using a named template
func (s *SMTPEmailService) SendTemplate(ctx context.Context, to, subject, templateName string, data interface{}) error {
	tmpl, exists := s.templates[templateName]
	if !exists {
		return fmt.Errorf("template %s not found", templateName)
	}

	var htmlBuf, textBuf bytes.Buffer

	if err := tmpl.ExecuteTemplate(&htmlBuf, "html", data); err != nil {
		return fmt.Errorf("failed to execute HTML template: %w", err)
	}

	if err := tmpl.ExecuteTemplate(&textBuf, "text", data); err != nil {
		textBuf.WriteString("Please view this email in HTML format.")
	}

	return s.SendHTML(ctx, to, subject, htmlBuf.String(), textBuf.String())
}

// generateContent picks the template matching the notification type.
func (s *SMTPEmailService) generateContent(notification *EmailNotification) (string, string, error) {
	templateName := templateFor(notification.Type)
	tmpl, exists := s.templates[templateName]
	if !exists {
		return "", "", fmt.Errorf("no template registered for notification type %s", notification.Type)
	}

	data := map[string]interface{}{
		"RecipientName": notification.RecipientName,
	}
	for k, v := range notification.TemplateData {
		data[k] = v
	}

	var htmlBuf, textBuf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&htmlBuf, "html", data); err != nil {
		return "", "", fmt.Errorf("failed to execute HTML template: %w", err)
	}
	if err := tmpl.ExecuteTemplate(&textBuf, "text", data); err != nil {
		textBuf.Reset()
		textBuf.WriteString("Please view this email in HTML format.")
	}

	return htmlBuf.String(), textBuf.String(), nil
}

func templateFor(notType NotificationType) string {
	switch notType {
	case NotificationTypeVisitorRefund:
		return "visitor_refund"
	case NotificationTypeHostEventCancelled:
		return "host_event_cancelled"
	case NotificationTypePassConfirmed:
		return "pass_confirmed"
	case NotificationTypeHostDisabled:
		return "host_disabled"
	default:
		return ""
	}
}

// sendWithSTARTTLS sends email with STARTTLS encryption
func (s *SMTPEmailService) sendWithSTARTTLS(addr string, auth smtp.Auth, to string, message []byte) error {
	client, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer client.Quit()

	tlsconfig := &tls.Config{
		InsecureSkipVerify: false,
		ServerName:         s.config.Host,
	}

	if err = client.StartTLS(tlsconfig); err != nil {
		return fmt.Errorf("failed to start TLS: %w", err)
	}

	if auth != nil {
		if err = client.Auth(auth); err != nil {
			return fmt.Errorf("failed to authenticate: %w", err)
		}
	}

	if err = client.Mail(s.config.FromEmail); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}

	if err = client.Rcpt(to); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to get data writer: %w", err)
	}

	_, err = w.Write(message)
	if err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return w.Close()
}

// buildMessage creates the email message with proper headers
func (s *SMTPEmailService) buildMessage(to, subject, htmlBody, textBody string) []byte {
	headers := make(map[string]string)
	headers["From"] = fmt.Sprintf("%s <%s>", s.config.FromName, s.config.FromEmail)
	headers["To"] = to
	headers["Subject"] = subject
	headers["MIME-Version"] = "1.0"
	headers["Date"] = time.Now().Format(time.RFC1123Z)

	boundary := "boundary_" + strconv.FormatInt(time.Now().UnixNano(), 10)
	headers["Content-Type"] = fmt.Sprintf("multipart/alternative; boundary=%s", boundary)

	message := ""
	for k, v := range headers {
		message += fmt.Sprintf("%s: %s\r\n", k, v)
	}
	message += "\r\n"

	if textBody != "" {
		message += fmt.Sprintf("--%s\r\n", boundary)
		message += "Content-Type: text/plain; charset=UTF-8\r\n"
		message += "\r\n"
		message += textBody + "\r\n"
	}

	message += fmt.Sprintf("--%s\r\n", boundary)
	message += "Content-Type: text/html; charset=UTF-8\r\n"
	message += "\r\n"
	message += htmlBody + "\r\n"
	message += fmt.Sprintf("--%s--\r\n", boundary)

	return []byte(message)
}

// loadDefaultTemplates registers the built-in email templates.
func (s *SMTPEmailService) loadDefaultTemplates() {
	s.templates["visitor_refund"] = template.Must(template.New("visitor_refund").Parse(`
{{define "html"}}
<html><body style="font-family: Arial, sans-serif; color: #333;">
<h2>Your passes have been cancelled</h2>
<p>Hi {{.RecipientName}},</p>
<p>{{.CancelledPassCount}} pass(es) for <strong>{{.PlaceName}}</strong> have been cancelled.</p>
{{if .RefundAmount}}<p>A refund of <strong>{{.RefundAmountDisplay}}</strong> has been initiated and should arrive within {{.ProcessingEstimate}}.</p>{{else}}<p>No refund is due for this cancellation.</p>{{end}}
{{if .Reason}}<p>Reason: {{.Reason}}</p>{{end}}
<p>— The GatePass Team</p>
</body></html>
{{end}}
{{define "text"}}Hi {{.RecipientName}},

{{.CancelledPassCount}} pass(es) for {{.PlaceName}} have been cancelled.
{{if .RefundAmount}}A refund of {{.RefundAmountDisplay}} has been initiated ({{.ProcessingEstimate}}).{{else}}No refund is due for this cancellation.{{end}}

- The GatePass Team
{{end}}`))

	s.templates["host_event_cancelled"] = template.Must(template.New("host_event_cancelled").Parse(`
{{define "html"}}
<html><body style="font-family: Arial, sans-serif; color: #333;">
<h2>Your event has been cancelled</h2>
<p>Hi {{.RecipientName}},</p>
<p>Your event <strong>{{.PlaceName}}</strong> has been cancelled. {{.CancelledPassCount}} pass(es) were refunded, totalling <strong>{{.TotalRefundDisplay}}</strong>.</p>
{{if .Reason}}<p>Reason: {{.Reason}}</p>{{end}}
<p>— The GatePass Team</p>
</body></html>
{{end}}
{{define "text"}}Hi {{.RecipientName}},

Your event {{.PlaceName}} has been cancelled. {{.CancelledPassCount}} pass(es) were refunded, totalling {{.TotalRefundDisplay}}.

- The GatePass Team
{{end}}`))

	s.templates["pass_confirmed"] = template.Must(template.New("pass_confirmed").Parse(`
{{define "html"}}
<html><body style="font-family: Arial, sans-serif; color: #333;">
<h2>Your passes are confirmed</h2>
<p>Hi {{.RecipientName}},</p>
<p>Your booking {{.BookingRef}} for <strong>{{.PlaceName}}</strong> on {{.VisitDate}} is confirmed. {{.GuestCount}} pass(es) with QR codes are ready in your account.</p>
<p>— The GatePass Team</p>
</body></html>
{{end}}
{{define "text"}}Hi {{.RecipientName}},

Your booking {{.BookingRef}} for {{.PlaceName}} on {{.VisitDate}} is confirmed. {{.GuestCount}} pass(es) are ready in your account.

- The GatePass Team
{{end}}`))

	s.templates["host_disabled"] = template.Must(template.New("host_disabled").Parse(`
{{define "html"}}
<html><body style="font-family: Arial, sans-serif; color: #333;">
<h2>Your hosting privileges have been suspended</h2>
<p>Hi {{.RecipientName}},</p>
<p>Your hosting account has been disabled by an administrator. All of your active events have been cancelled and affected visitors refunded.</p>
{{if .Reason}}<p>Reason: {{.Reason}}</p>{{end}}
<p>— The GatePass Team</p>
</body></html>
{{end}}
{{define "text"}}Hi {{.RecipientName}},

Your hosting account has been disabled by an administrator. All of your active events have been cancelled and affected visitors refunded.

- The GatePass Team
{{end}}`))
}
