package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wneessen/go-mail"

	"watchscout-engine/internal/config"
	"watchscout-engine/internal/domain"
)

// Email sends digests over SMTP.
type Email struct {
	cfg      config.Config
	password string
}

func NewEmail(cfg config.Config, password string) *Email {
	return &Email{cfg: cfg, password: password}
}

func (e *Email) client() (*mail.Client, error) {
	opts := []mail.Option{
		mail.WithPort(e.cfg.Email.SMTPPort),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(e.cfg.Email.Username),
		mail.WithPassword(e.password),
	}
	return mail.NewClient(e.cfg.Email.SMTPHost, opts...)
}

func (e *Email) send(ctx context.Context, subject, body string) error {
	m := mail.NewMsg()
	if err := m.From(e.cfg.Email.From); err != nil {
		return fmt.Errorf("from address: %w", err)
	}
	if err := m.To(e.cfg.Email.To...); err != nil {
		return fmt.Errorf("to addresses: %w", err)
	}
	m.Subject(subject)
	m.SetBodyString(mail.TypeTextPlain, body)

	c, err := e.client()
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	return c.DialAndSendWithContext(ctx, m)
}

func (e *Email) NewListings(ctx context.Context, listings []domain.Listing) error {
	if len(listings) == 0 {
		return nil
	}

	subject := fmt.Sprintf("WatchScout: %d new listing(s) found", len(listings))

	var b strings.Builder
	fmt.Fprintf(&b, "New watch listings discovered at %s:\n\n", time.Now().Format("2006-01-02 15:04"))
	for _, l := range listings {
		fmt.Fprintf(&b, "• %s\n", l.Name)
		if l.ReferenceNumber != "" {
			fmt.Fprintf(&b, "  Reference: %s\n", l.ReferenceNumber)
		}
		if l.Price > 0 {
			fmt.Fprintf(&b, "  Price: %.2f %s\n", l.Price, l.Currency)
		}
		if l.Country != "" {
			fmt.Fprintf(&b, "  Country: %s\n", l.Country)
		}
		fmt.Fprintf(&b, "  Source: %s\n", l.SourceName)
		fmt.Fprintf(&b, "  %s\n\n", l.Link)
	}

	return e.send(ctx, subject, b.String())
}

func (e *Email) RunFailed(ctx context.Context, errMsg string) error {
	body := fmt.Sprintf("The discovery run at %s failed:\n\n%s\n",
		time.Now().Format("2006-01-02 15:04"), errMsg)
	return e.send(ctx, "WatchScout: discovery run failed", body)
}
