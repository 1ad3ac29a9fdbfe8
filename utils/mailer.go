// utils/mailer.go - Outbound Email
package utils

import (
	"fmt"
	"log"
	"net/smtp"
	"os"
)

// SendEmail delivers a single HTML email through the SMTP relay named
// by EMAIL_HOST/EMAIL_PORT with EMAIL_USER/EMAIL_PASS credentials.
// When the relay is not configured the message is logged and dropped,
// so local development works without a mail account.
func SendEmail(to, subject, html string) {
	host := os.Getenv("EMAIL_HOST")
	user := os.Getenv("EMAIL_USER")
	pass := os.Getenv("EMAIL_PASS")
	if host == "" || user == "" {
		log.Printf("Email not configured, dropping message to %s: %s", to, subject)
		return
	}

	port := os.Getenv("EMAIL_PORT")
	if port == "" {
		port = "587"
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n"+
		"MIME-Version: 1.0\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n%s",
		user, to, subject, html)

	auth := smtp.PlainAuth("", user, pass, host)
	if err := smtp.SendMail(host+":"+port, auth, user, []string{to}, []byte(msg)); err != nil {
		log.Printf("Failed to send email to %s: %v", to, err)
	}
}
