package mailer

import "context"

type Service interface {
	SendVerificationEmail(ctx context.Context, toEmail, toName, verifyURL string) error
}
