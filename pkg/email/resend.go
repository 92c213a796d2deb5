package email

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"time"

	"github.com/resendlabs/resend-go"
	"go.uber.org/zap"
)

const receiptTemplate = `<html>
<body style="font-family: sans-serif; color: #1a1a2e;">
	<h2>Thanks for your purchase, {{.FullName}}!</h2>
	<p>{{.Description}}</p>
	<p><strong>Amount:</strong> {{printf "%.2f" .Amount}} {{.Currency}}</p>
	<p>Your account has been updated. You can review your balance and
	premium status from your dashboard at any time.</p>
	<p style="color: #888; font-size: 12px;">BrightPath Tutoring &copy; {{.Year}}</p>
</body>
</html>`

type EmailService struct {
	client   *resend.Client
	from     string
	fromName string
	receipt  *template.Template
	logger   *zap.Logger
}

func NewEmailService(logger *zap.Logger) *EmailService {
	return &EmailService{
		client:   resend.NewClient(os.Getenv("RESEND_API_KEY")),
		from:     os.Getenv("EMAIL_FROM_ADDRESS"),
		fromName: os.Getenv("EMAIL_FROM_NAME"),
		receipt:  template.Must(template.New("receipt").Parse(receiptTemplate)),
		logger:   logger,
	}
}

// SendPurchaseReceipt emails a receipt after an entitlement grant. Callers
// treat failures as non-fatal; a lost receipt never fails a webhook.
func (s *EmailService) SendPurchaseReceipt(to, fullName, description string, amount float64, currency string) error {
	var body bytes.Buffer
	err := s.receipt.Execute(&body, map[string]interface{}{
		"FullName":    fullName,
		"Description": description,
		"Amount":      amount,
		"Currency":    currency,
		"Year":        time.Now().Year(),
	})
	if err != nil {
		return err
	}

	params := &resend.SendEmailRequest{
		From:    s.fromName + " <" + s.from + ">",
		To:      []string{to},
		Subject: "Your BrightPath purchase receipt",
		Html:    body.String(),
	}

	resp, err := s.client.Emails.Send(params)
	if err != nil {
		s.logger.Warn("failed to send receipt email",
			zap.String("to", to),
			zap.Error(err),
		)
		return fmt.Errorf("send receipt: %w", err)
	}

	s.logger.Info("sent purchase receipt",
		zap.String("to", to),
		zap.String("email_id", resp.Id),
	)
	return nil
}
