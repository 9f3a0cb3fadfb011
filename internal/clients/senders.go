package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// SenderConfig points one channel at its provider gateway. The providers are
// plain HTTP APIs; delivery retries are their problem, each Send here is a
// single attempt.
type SenderConfig struct {
	URL     string
	Token   string
	Channel string
	Timeout time.Duration
}

// HTTPSender posts outbound messages to a provider gateway as JSON and treats
// anything but a 2xx with "success": true as a failed dispatch.
type HTTPSender struct {
	cfg    SenderConfig
	client *http.Client
}

func NewHTTPSender(cfg SenderConfig) *HTTPSender {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}

	return &HTTPSender{
		cfg: cfg,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

type sendRequest struct {
	Channel   string `json:"channel"`
	Recipient string `json:"recipient"`
	Subject   string `json:"subject,omitempty"`
	Message   string `json:"message"`
}

type sendResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func (s *HTTPSender) Send(ctx context.Context, recipient, message, subject string) error {
	body, err := json.Marshal(sendRequest{
		Channel:   s.cfg.Channel,
		Recipient: recipient,
		Subject:   subject,
		Message:   message,
	})
	if err != nil {
		return fmt.Errorf("marshal send request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build send request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.cfg.Token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s gateway: %w", s.cfg.Channel, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s gateway returned status %d", s.cfg.Channel, resp.StatusCode)
	}

	var out sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("decode %s gateway response: %w", s.cfg.Channel, err)
	}

	if !out.Success {
		if out.Error != "" {
			return fmt.Errorf("%s gateway: %s", s.cfg.Channel, out.Error)
		}
		return fmt.Errorf("%s gateway rejected the message", s.cfg.Channel)
	}

	return nil
}
