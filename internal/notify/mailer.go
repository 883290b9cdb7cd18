package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

type Email struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// MailResult is what the provider reported for an accepted email.
type MailResult struct {
	ID string `json:"id"`
}

type Mailer interface {
	Send(ctx context.Context, e Email) (MailResult, error)
}

const resendEndpoint = "https://api.resend.com/emails"

// ResendMailer sends through the Resend HTTP API.
type ResendMailer struct {
	APIKey   string
	Endpoint string
	Client   *http.Client
}

func NewResendMailer(apiKey string) *ResendMailer {
	return &ResendMailer{APIKey: apiKey, Endpoint: resendEndpoint, Client: &http.Client{Timeout: 10 * time.Second}}
}

func (m *ResendMailer) Send(ctx context.Context, e Email) (MailResult, error) {
	body, err := json.Marshal(e)
	if err != nil {
		return MailResult{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.Endpoint, bytes.NewReader(body))
	if err != nil {
		return MailResult{}, err
	}
	req.Header.Set("Authorization", "Bearer "+m.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.Client.Do(req)
	if err != nil {
		return MailResult{}, fmt.Errorf("resend: %w", err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Message != "" {
			return MailResult{}, fmt.Errorf("resend: %d: %s", resp.StatusCode, apiErr.Message)
		}
		return MailResult{}, fmt.Errorf("resend: unexpected status %d", resp.StatusCode)
	}

	var out MailResult
	if err := json.Unmarshal(raw, &out); err != nil {
		return MailResult{}, fmt.Errorf("resend: decode response: %w", err)
	}
	return out, nil
}

// LogMailer only logs; used in mock mode.
type LogMailer struct {
	Log *slog.Logger
}

func (m LogMailer) Send(_ context.Context, e Email) (MailResult, error) {
	id := "msg_mock_" + uuid.NewString()
	log := m.Log
	if log == nil {
		log = slog.Default()
	}
	log.Info("mock email", "id", id, "to", e.To, "subject", e.Subject, "bytes", len(e.HTML))
	return MailResult{ID: id}, nil
}

// Dispatcher renders an order payload and mails it to the operators.
type Dispatcher struct {
	Mailer Mailer
	From   string
	To     []string
}

func (d *Dispatcher) Deliver(ctx context.Context, p Payload) (MailResult, error) {
	html, err := RenderOrderEmail(p)
	if err != nil {
		return MailResult{}, fmt.Errorf("render order email: %w", err)
	}
	return d.Mailer.Send(ctx, Email{From: d.From, To: d.To, Subject: subjectNewOrder, HTML: html})
}
