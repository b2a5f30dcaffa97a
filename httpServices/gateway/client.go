package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"
)

// Client is a delivery gateway collaborator. One instance per channel;
// each posts {to, code} and decodes the provider reply.
type Client struct {
	httpClient *http.Client
	baseURL    string
	path       string
}

// NewEmailClient builds the client for the email gateway
func NewEmailClient(baseURL string) *Client {
	return newClient(baseURL, "/email/send")
}

// NewSMSClient builds the client for the SMS gateway
func NewSMSClient(baseURL string) *Client {
	return newClient(baseURL, "/sms/send")
}

// NewWhatsAppClient builds the client for the WhatsApp gateway
func NewWhatsAppClient(baseURL string) *Client {
	return newClient(baseURL, "/whatsapp/send")
}

func newClient(baseURL, path string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		baseURL: baseURL,
		path:    path,
	}
}

// Send posts the code to the gateway and returns the provider reply.
// Transport errors and non-2xx statuses come back as errors; status
// interpretation is left to the dispatcher.
func (c *Client) Send(ctx context.Context, to, code string) (*SendResponse, error) {
	body, err := json.Marshal(SendRequest{To: to, Code: code})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+c.path, bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, errors.New("delivery gateway returned non-OK status: " + resp.Status)
	}

	var apiResp SendResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, err
	}

	return &apiResp, nil
}
