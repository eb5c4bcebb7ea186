package channels

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"

	"drone-delivery/internal/config"
	"drone-delivery/internal/domain"
)

type address struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type mailerSendRequest struct {
	From    address   `json:"from"`
	To      []address `json:"to"`
	Subject string    `json:"subject"`
	Text    string    `json:"text"`
	HTML    string    `json:"html"`
}

// MailerSend шлёт письма через HTTP API вместо SMTP.
type MailerSend struct {
	http   *http.Client
	apiURL string
	apiKey string
	from   address
}

func NewMailerSend(hc *http.Client, cfg config.MailerSendConfig, email config.EmailConfig) *MailerSend {
	return &MailerSend{
		http:   hc,
		apiURL: cfg.APIURL,
		apiKey: cfg.APIKey,
		from:   address{Email: email.From, Name: email.FromName},
	}
}

func (m *MailerSend) Name() string { return "email" }

func (m *MailerSend) Send(ctx context.Context, to domain.ContactInfo, subject, body string) error {
	payload, err := json.Marshal(mailerSendRequest{
		From:    m.from,
		To:      []address{{Email: to.Email, Name: to.Name}},
		Subject: subject,
		Text:    body,
		HTML:    htmlBody(to.Name, body),
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.apiURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.http.Do(req)
	if err != nil {
		return fmt.Errorf("mailersend: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("mailersend: status %d: %s", resp.StatusCode, bytes.TrimSpace(raw))
	}
	return nil
}

func htmlBody(name, body string) string {
	return fmt.Sprintf("<html><body><p>Hello %s,</p><p>%s</p><p>Drone Delivery Service</p></body></html>",
		html.EscapeString(name), html.EscapeString(body))
}
