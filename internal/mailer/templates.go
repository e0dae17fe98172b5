package mailer

import "fmt"

type verificationMessage struct {
	Subject string
	Text    string
	HTML    string
}

func buildVerificationMessage(appName, toName, verifyURL string) verificationMessage {
	name := toName
	if name == "" {
		name = "there"
	}
	return verificationMessage{
		Subject: fmt.Sprintf("Verify your %s account", appName),
		Text: fmt.Sprintf("Hi %s,\n\nPlease verify your email by opening this link: %s\n\nThe link expires in 24 hours.",
			name, verifyURL),
		HTML: fmt.Sprintf(`
		<h2>Welcome to %s!</h2>
		<p>Hi %s,</p>
		<p>Please verify your email address by clicking the link below:</p>
		<p><a href="%s" style="background-color: #1f7a8c; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px;">Verify Email</a></p>
		<p>This link will expire in 24 hours.</p>
		<p>If you didn't create an account with us, please ignore this email.</p>
	`, appName, name, verifyURL),
	}
}
