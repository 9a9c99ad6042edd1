package notification

import (
	"fmt"

	"gopkg.in/gomail.v2"

	"facility-monitor-backend/config"
	"facility-monitor-backend/internal/model"
)

// Mailer sends one HTML mail. Implementations must be safe for concurrent use.
type Mailer interface {
	Send(to, subject, htmlBody string) error
}

// SMTPMailer delivers mail through the configured SMTP relay.
type SMTPMailer struct {
	cfg    config.MailConfig
	dialer *gomail.Dialer
}

// NewSMTPMailer creates a mailer from the mail configuration.
func NewSMTPMailer(cfg config.MailConfig) *SMTPMailer {
	return &SMTPMailer{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

// Send delivers a single message.
func (m *SMTPMailer) Send(to, subject, htmlBody string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)
	return m.dialer.DialAndSend(msg)
}

// warningMailBody builds the HTML body of an escalation mail: the violated
// sensor, the configured suggestion, and single-click confirm/ignore links
// embedding the action token.
func warningMailBody(baseURL string, warning model.Warning, limit *model.Limit) string {
	suggestion := "No suggestion available."
	if limit != nil {
		if warning.MeasuredValue < limit.LowerBound {
			suggestion = limit.MessageLower
		} else {
			suggestion = limit.MessageUpper
		}
	}

	token := ""
	if warning.TokenContent != nil {
		token = *warning.TokenContent
	}
	link := fmt.Sprintf("%s/api/warnings?token=%s&status=", baseURL, token)

	return fmt.Sprintf(
		"A violation of your room climate limits regarding %s was detected.<br>"+
			"Suggestions: %s<br>"+
			"To confirm this warning please click <a href='%s%d'>CONFIRM</a>.<br><br>"+
			"To ignore this warning please click <a href='%s%d'>IGNORE</a>.",
		warning.SensorType.DisplayName(), suggestion,
		link, model.WarningConfirmed, link, model.WarningIgnored)
}

// warningBellMessage is the short in-app variant of the mail text.
func warningBellMessage(warning model.Warning, limit *model.Limit) string {
	if limit == nil {
		return "Room climate violation detected."
	}
	if warning.MeasuredValue < limit.LowerBound {
		return fmt.Sprintf("%s is too low.", warning.SensorType.DisplayName())
	}
	return fmt.Sprintf("%s is too high.", warning.SensorType.DisplayName())
}
