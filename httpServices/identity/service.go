package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"
)

// Client talks to the legacy member backend that resolves an account
// identifier to the contact details on file.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient builds a resolver client for the given base URL
func NewClient(baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: baseURL,
	}
}

// Resolve looks up the account. A 404 from the backend means the
// account does not exist; any contact field the backend omits is simply
// returned empty, never treated as an error.
func (c *Client) Resolve(ctx context.Context, accountID string) (bool, string, string, error) {
	body, err := json.Marshal(LookupRequest{AccountID: accountID})
	if err != nil {
		return false, "", "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/account/lookup", bytes.NewBuffer(body))
	if err != nil {
		return false, "", "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return false, "", "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return false, "", "", nil
	}
	if resp.StatusCode != http.StatusOK {
		return false, "", "", errors.New("identity API returned non-OK status: " + resp.Status)
	}

	var apiResp LookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return false, "", "", err
	}

	return apiResp.Found, apiResp.Email, apiResp.Phone, nil
}
