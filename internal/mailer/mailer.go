// Package mailer delivers verification emails through an HTTP mail API.
// The transport is a collaborator: it receives a fully rendered message
// and its HTTP status code is relayed back to the signup flow. No retries
// happen here; recovery is client-driven (the user resubmits the form).
package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/signup-service/internal/pkg/logger"
)

// Message is one outbound email, fully rendered.
type Message struct {
	To       string
	ToName   string
	From     string
	FromName string
	Subject  string
	Text     string
	HTML     string
}

// Sender delivers a message and reports the upstream HTTP status code.
// Any 2xx code is success.
type Sender interface {
	Send(ctx context.Context, msg Message) (int, error)
}

// Client sends messages to a JSON mail API with Bearer authentication.
type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a mail API client. timeout bounds the whole send,
// including connection setup.
func NewClient(endpoint, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		endpoint:   endpoint,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type address struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type transmission struct {
	From    address   `json:"from"`
	To      []address `json:"to"`
	Subject string    `json:"subject"`
	Text    string    `json:"text"`
	HTML    string    `json:"html,omitempty"`
}

// Send posts the message and returns the API's status code. A transport
// error (connection refused, timeout) returns 0 and the error; a non-2xx
// response is not an error here, callers decide how to relay it.
func (c *Client) Send(ctx context.Context, msg Message) (int, error) {
	body, err := json.Marshal(transmission{
		From:    address{Email: msg.From, Name: msg.FromName},
		To:      []address{{Email: msg.To, Name: msg.ToName}},
		Subject: msg.Subject,
		Text:    msg.Text,
		HTML:    msg.HTML,
	})
	if err != nil {
		return 0, fmt.Errorf("marshaling transmission: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("creating mail request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("X-Message-Id", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("sending mail: %w", err)
	}
	defer resp.Body.Close()

	logger.Debug("mail transport response", "to", msg.To, "status", resp.StatusCode)
	return resp.StatusCode, nil
}
