package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

type MastodonClient struct {
	server string
	client *http.Client
}

func NewMastodonClient(server string) *MastodonClient {
	return &MastodonClient{
		server: strings.TrimRight(server, "/"),
		client: http.DefaultClient,
	}
}

type statusResponse struct {
	ID string `json:"id"`
}

func (c *MastodonClient) Publish(ctx context.Context, creds Credentials, content string) (string, error) {
	form := url.Values{}
	form.Add("status", content)

	endpoint := c.server + "/api/v1/statuses"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+creds.AccessToken)

	resp, err := c.client.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return "", fmt.Errorf("mastodon request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("mastodon returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var status statusResponse
	if err := json.Unmarshal(respBody, &status); err != nil {
		return "", fmt.Errorf("unexpected mastodon response: %w", err)
	}
	if status.ID == "" {
		return "", fmt.Errorf("mastodon response missing status id")
	}

	return status.ID, nil
}
