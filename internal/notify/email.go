package notify

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/gomail.v2"

	"smartguard/internal/models"
)

// EmailRequest carries everything needed to send one alarm report e-mail.
type EmailRequest struct {
	AlarmType string            `json:"alarmType"`
	Reasons   []string          `json:"reasons"`
	Severity  string            `json:"severity"`
	Timestamp int64             `json:"timestamp"`
	Snapshot  *models.Snapshot  `json:"snapshot,omitempty"`
	Email     string            `json:"email"`
}

// EmailSender delivers one alarm report.
type EmailSender interface {
	SendAlarm(req EmailRequest) error
}

// Mailer sends alarm reports over SMTP.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewMailer(host string, port int, username, password, from string) *Mailer {
	return &Mailer{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

func (m *Mailer) SendAlarm(req EmailRequest) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", req.Email)
	msg.SetHeader("Subject", fmt.Sprintf("[%s] SmartGuard alarm: %s", req.Severity, req.AlarmType))
	msg.SetBody("text/plain", formatAlarmBody(req))
	return m.dialer.DialAndSend(msg)
}

func formatAlarmBody(req EmailRequest) string {
	var b strings.Builder
	when := time.UnixMilli(req.Timestamp).Format("2006-01-02 15:04:05")
	fmt.Fprintf(&b, "Alarm: %s\nSeverity: %s\nTime: %s\n", req.AlarmType, req.Severity, when)

	if len(req.Reasons) > 0 {
		fmt.Fprintf(&b, "Reasons: %s\n", strings.Join(req.Reasons, ", "))
	}

	if snap := req.Snapshot; snap != nil {
		b.WriteString("\nVitals at the time of the alarm:\n")
		if snap.HeartRate != nil {
			fmt.Fprintf(&b, "  Heart rate: %d bpm\n", *snap.HeartRate)
		}
		if snap.SpO2 != nil {
			fmt.Fprintf(&b, "  SpO2: %d%%\n", *snap.SpO2)
		}
		if snap.SystolicBP != nil && snap.DiastolicBP != nil {
			fmt.Fprintf(&b, "  Blood pressure: %d/%d mmHg\n", *snap.SystolicBP, *snap.DiastolicBP)
		}
		if snap.AX != nil && snap.AY != nil && snap.AZ != nil {
			fmt.Fprintf(&b, "  Acceleration: %.2f / %.2f / %.2f g\n", *snap.AX, *snap.AY, *snap.AZ)
		}
	}

	b.WriteString("\nThis message was generated automatically by SmartGuard.\n")
	return b.String()
}
