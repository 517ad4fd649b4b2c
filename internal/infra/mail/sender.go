package mail

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"text/template"

	"gopkg.in/gomail.v2"
)

func NewEmailSender(host string, port int, user, password, from, salesInbox, siteURL string) *EmailSender {
	return &EmailSender{
		Host:       host,
		Port:       port,
		User:       user,
		Password:   password,
		From:       from,
		SalesInbox: salesInbox,
		SiteURL:    siteURL,
	}
}

// SendReportReady tells the lead their mini-audit is ready to view.
func (s *EmailSender) SendReportReady(to, name, company, reportURL string) error {
	data := ReportReadyData{
		Name:      name,
		Company:   company,
		ReportURL: s.absoluteURL(reportURL),
	}

	body, err := s.render("report_ready.html", data)
	if err != nil {
		return err
	}

	subject := fmt.Sprintf("%s, your mini-audit for %s is ready", name, company)
	return s.send(to, subject, body)
}

// SendFollowUpAlert tells the sales inbox that generation gave up on a
// lead and a human should take over.
func (s *EmailSender) SendFollowUpAlert(leadID, name, email, company, reason string, attempts int) error {
	data := FollowUpAlertData{
		LeadID:   leadID,
		Name:     name,
		Email:    email,
		Company:  company,
		Reason:   reason,
		Attempts: attempts,
	}

	body, err := s.render("followup_alert.html", data)
	if err != nil {
		return err
	}

	subject := fmt.Sprintf("[mini-audit] generation failed for %s, manual follow-up needed", company)
	return s.send(s.SalesInbox, subject, body)
}

func (s *EmailSender) render(name string, data any) (string, error) {
	tmplPath := filepath.Join("templates", name)
	t, err := template.ParseFiles(tmplPath)
	if err != nil {
		return "", fmt.Errorf("parse mail template %s: %w", name, err)
	}

	var body bytes.Buffer
	if err := t.Execute(&body, data); err != nil {
		return "", fmt.Errorf("render mail template %s: %w", name, err)
	}
	return body.String(), nil
}

func (s *EmailSender) send(to, subject, htmlBody string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	d := gomail.NewDialer(s.Host, s.Port, s.User, s.Password)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("send mail via SMTP: %w", err)
	}
	return nil
}

func (s *EmailSender) absoluteURL(path string) string {
	if s.SiteURL == "" || strings.HasPrefix(path, "http") {
		return path
	}
	return strings.TrimRight(s.SiteURL, "/") + path
}
