package utils

import (
	"gopkg.in/gomail.v2"
)

// SendEmail delivers a single HTML mail through the configured SMTP relay.
func SendEmail(host string, port int, user, pass, to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", user)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	d := gomail.NewDialer(host, port, user, pass)

	return d.DialAndSend(m)
}
