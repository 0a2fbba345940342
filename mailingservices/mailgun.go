package mailingservices

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/mailgun/mailgun-go/v4"
)

// Mailer sends the transactional mail the exchange flow emits.
type Mailer interface {
	SendExchangeAccepted(recipientEmail, bookTitle string) error
}

type Mailgun struct {
	Client *mailgun.MailgunImpl
	From   string
}

func (m *Mailgun) Init() {
	domain := os.Getenv("MG_DOMAIN")
	apiKey := os.Getenv("MG_PUBLIC_API_KEY")
	if domain == "" || apiKey == "" {
		log.Println("mailgun not configured, mail disabled")
		return
	}
	m.Client = mailgun.NewMailgun(domain, apiKey)
	m.From = os.Getenv("EMAIL_FROM")
}

func (m *Mailgun) SendExchangeAccepted(recipientEmail, bookTitle string) error {
	if m.Client == nil {
		return nil
	}
	subject := "Your swap request was accepted"
	body := fmt.Sprintf("Good news! The owner accepted your swap request for %q. Open the app to arrange the handover.", bookTitle)

	message := m.Client.NewMessage(m.From, subject, body, recipientEmail)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	_, _, err := m.Client.Send(ctx, message)
	if err != nil {
		log.Printf("mailgun send failed: %v", err)
		return err
	}
	return nil
}
