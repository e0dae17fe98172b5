package mailer

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/diagnosis/stayease/pkg/logger"
)

// DevMailer prints messages instead of sending them.
type DevMailer struct {
	appName string
	out     io.Writer
}

func NewDevMailer(appName string) *DevMailer {
	return &DevMailer{appName: appName, out: os.Stdout}
}

func (d *DevMailer) SendVerificationEmail(ctx context.Context, toEmail, toName, verifyURL string) error {
	msg := buildVerificationMessage(d.appName, toName, verifyURL)

	logger.InfoContext(ctx, "[DEV MAIL] Verification email",
		"to", toEmail,
		"name", toName,
		"verify_url", verifyURL,
	)

	fmt.Fprintf(d.out, "\n"+
		"-----------------------------------------------------------------\n"+
		"VERIFICATION EMAIL (DEV MODE)\n"+
		"-----------------------------------------------------------------\n"+
		"To: %s (%s)\n"+
		"Subject: %s\n"+
		"\n"+
		"%s\n"+
		"-----------------------------------------------------------------\n\n",
		toEmail, toName, msg.Subject, msg.Text)

	return nil
}
