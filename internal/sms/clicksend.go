// Package sms delivers OTP codes over SMS via the ClickSend REST API,
// adapted from the teacher's internal/sms/clicksend.go against
// internal/identity.Sender.
package sms

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/hakimino/vyry/internal/logging"
)

const (
	maxRetries = 3
	baseDelay  = 1 * time.Second
)

// ClickSendService sends OTP codes through ClickSend's transactional SMS API.
type ClickSendService struct {
	username string
	apiKey   string
	from     string
	client   *http.Client
	log      *logging.Logger
}

type clickSendMessage struct {
	To     string `json:"to"`
	Body   string `json:"body"`
	From   string `json:"from,omitempty"`
	Source string `json:"source,omitempty"`
}

type clickSendRequest struct {
	Messages []clickSendMessage `json:"messages"`
}

type clickSendResponse struct {
	ResponseCode string `json:"response_code"`
	ResponseMsg  string `json:"response_msg"`
	Data         struct {
		Messages []struct {
			MessageID string `json:"message_id"`
		} `json:"messages"`
	} `json:"data"`
}

// NewClickSendService builds a sender from CLICKSEND_USERNAME/CLICKSEND_API_KEY.
// Returns an error when credentials are absent so callers can fail fast or
// fall back to a dev-mode no-op sender.
func NewClickSendService(log *logging.Logger) (*ClickSendService, error) {
	username := os.Getenv("CLICKSEND_USERNAME")
	apiKey := os.Getenv("CLICKSEND_API_KEY")
	from := os.Getenv("CLICKSEND_FROM")
	if username == "" || apiKey == "" {
		return nil, fmt.Errorf("clicksend credentials not configured: CLICKSEND_USERNAME and CLICKSEND_API_KEY required")
	}
	if from == "" {
		from = "Vyry"
	}
	return &ClickSendService{
		username: username,
		apiKey:   apiKey,
		from:     from,
		client:   &http.Client{Timeout: 30 * time.Second},
		log:      log,
	}, nil
}

// SendOTP implements identity.Sender.
func (c *ClickSendService) SendOTP(ctx context.Context, phone, code string) error {
	body := fmt.Sprintf("Your Vyry verification code is: %s\n\nThis code expires in 3 minutes.", code)
	payload, err := json.Marshal(clickSendRequest{Messages: []clickSendMessage{{To: phone, Body: body, From: c.from, Source: "sdk"}}})
	if err != nil {
		return fmt.Errorf("marshal clicksend request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			delay := baseDelay * time.Duration(1<<uint(attempt-1))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://rest.clicksend.com/v3/sms/send", bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("build clicksend request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Basic "+basicAuth(c.username, c.apiKey))

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("send sms: %w", err)
			continue
		}
		raw, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read clicksend response: %w", err)
			continue
		}

		var parsed clickSendResponse
		if err := json.Unmarshal(raw, &parsed); err != nil {
			lastErr = fmt.Errorf("parse clicksend response: %w", err)
			continue
		}
		if resp.StatusCode != http.StatusOK || parsed.ResponseCode != "SUCCESS" {
			lastErr = fmt.Errorf("clicksend rejected message: %s", parsed.ResponseMsg)
			continue
		}

		c.log.Info("otp sms sent", "message_id", firstMessageID(parsed))
		return nil
	}
	return lastErr
}

func firstMessageID(r clickSendResponse) string {
	if len(r.Data.Messages) == 0 {
		return ""
	}
	return r.Data.Messages[0].MessageID
}

func basicAuth(username, password string) string {
	return base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
}
