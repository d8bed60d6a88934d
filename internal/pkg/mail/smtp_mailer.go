package mail

import (
	"fmt"
	"log"
	"net/smtp"

	"github.com/boxbinhq/boxbin/internal/pkg/env"
)

// SendMail sends an HTML email via SMTP.
func SendMail(to string, subject string, body string) error {
	host := env.GetEnv("SMTP_HOST", "")
	port := env.GetEnv("SMTP_PORT", "")
	username := env.GetEnv("SMTP_USERNAME", "")
	password := env.GetEnv("SMTP_PASSWORD", "")
	sender := env.GetEnv("SMTP_SENDER", "")

	if sender == "" {
		sender = fmt.Sprintf("no-reply@%s", "localhost")
		log.Printf("SMTP_SENDER not set, using default sender: %s", sender)
	}

	var auth smtp.Auth
	if username != "" && password != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}

	addr := fmt.Sprintf("%s:%s", host, port)

	msg := []byte(
		fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n", sender, to, subject) +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/html; charset=UTF-8\r\n\r\n" +
			body,
	)

	err := smtp.SendMail(addr, auth, sender, []string{to}, msg)
	if err != nil {
		log.Printf("SMTP send error: %v", err)
	} else {
		log.Printf("Email sent to %s via %s", to, addr)
	}
	return err
}

// SendActivationLink mails the account activation link to a fresh signup.
func SendActivationLink(to, name, activationURL string) error {
	subject := "Activate your BoxBin account"
	body := fmt.Sprintf(
		"<p>Hi %s,</p>"+
			"<p>Your BoxBin account is almost ready. Confirm your email address to start sorting:</p>"+
			"<p><a href=\"%s\">Activate my account</a></p>"+
			"<p>If you did not sign up, you can ignore this email.</p>",
		name, activationURL,
	)
	return SendMail(to, subject, body)
}

// SendShareInvite mails an inventory share invitation.
func SendShareInvite(to, ownerName, role, inviteURL string) error {
	subject := fmt.Sprintf("%s shared their BoxBin inventory with you", ownerName)
	body := fmt.Sprintf(
		"<p>%s invited you to their BoxBin inventory as a %s.</p>"+
			"<p><a href=\"%s\">Accept the invitation</a></p>"+
			"<p>If you were not expecting this, you can ignore this email.</p>",
		ownerName, role, inviteURL,
	)
	return SendMail(to, subject, body)
}
