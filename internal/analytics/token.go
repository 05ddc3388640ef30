package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// TokenClient fetches bearer tokens via the client-credentials grant.
//
// A fresh token is requested on every push; nothing is cached or reused
// across calls. That matches the observed behavior of the system this
// replaces. A time-boxed token cache would cut request volume if sync
// throughput ever becomes a concern.
type TokenClient struct {
	httpClient   *http.Client
	tokenURL     string
	clientID     string
	clientSecret string
}

func NewTokenClient(httpClient *http.Client, tokenURL, clientID, clientSecret string) *TokenClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &TokenClient{
		httpClient:   httpClient,
		tokenURL:     tokenURL,
		clientID:     clientID,
		clientSecret: clientSecret,
	}
}

// Fetch requests a new bearer token.
func (c *TokenClient) Fetch(ctx context.Context) (string, error) {
	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch bearer token: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("token endpoint returned %d", resp.StatusCode)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if payload.AccessToken == "" {
		return "", fmt.Errorf("token endpoint returned empty access_token")
	}
	return payload.AccessToken, nil
}
