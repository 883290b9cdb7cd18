package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPSender posts the payload as JSON to the notification function.
// 2xx with a JSON body is success; anything else is a failure. Retries
// apply to transport errors and 5xx only.
type HTTPSender struct {
	URL    string
	Client *http.Client
	Retry  RetryConfig
}

func NewHTTPSender(url string, timeout time.Duration, attempts int) *HTTPSender {
	retry := DefaultRetryConfig()
	retry.MaxAttempts = attempts
	return &HTTPSender{
		URL:    url,
		Client: &http.Client{Timeout: timeout},
		Retry:  retry,
	}
}

func (s *HTTPSender) Send(ctx context.Context, p Payload) (Result, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return Result{}, err
	}
	return retryWithBackoff(ctx, s.Retry, func() (Result, error) {
		return s.post(ctx, body)
	})
}

func (s *HTTPSender) post(ctx context.Context, body []byte) (Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(body))
	if err != nil {
		return Result{}, permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client().Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("send order email: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Result{}, fmt.Errorf("send order email: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := fmt.Errorf("send order email: %s", failureMessage(resp.StatusCode, raw))
		if resp.StatusCode >= 500 {
			return Result{}, err
		}
		return Result{}, permanent(err)
	}
	if !json.Valid(raw) {
		return Result{}, permanent(fmt.Errorf("send order email: malformed response body"))
	}
	return Result{Body: raw}, nil
}

func (s *HTTPSender) client() *http.Client {
	if s.Client != nil {
		return s.Client
	}
	return http.DefaultClient
}

func failureMessage(status int, raw []byte) string {
	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(raw, &body) == nil && body.Error != "" {
		return body.Error
	}
	return fmt.Sprintf("%d %s", status, http.StatusText(status))
}
