// Package webhookclient talks to the bot webhook the way the messaging
// provider does: Twilio-style form fields in, a TwiML envelope out. The
// CLI and the Telegram bridge both use it.
package webhookclient

import (
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Client .
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New .
func New(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
	}
}

type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Message string   `xml:"Message"`
}

// Send posts one message on behalf of a sender and returns the reply
// text. mediaURL may be empty for plain text messages.
func (c *Client) Send(from, body, mediaURL string) (string, error) {
	form := url.Values{}
	form.Set("From", from)
	form.Set("Body", body)
	if mediaURL != "" {
		form.Set("NumMedia", "1")
		form.Set("MediaUrl0", mediaURL)
	} else {
		form.Set("NumMedia", "0")
	}

	req, err := http.NewRequest(http.MethodPost, fmt.Sprintf("%s/twilio/chat", c.baseURL), strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var reply twimlResponse
	if err := xml.Unmarshal(b, &reply); err != nil {
		return "", fmt.Errorf("failed to decode TwiML response: %w", err)
	}

	return reply.Message, nil
}
