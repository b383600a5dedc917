package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"golang.org/x/oauth2"
)

const twitterTweetsURL = "https://api.twitter.com/2/tweets"

type TwitterClient struct {
	baseURL string
}

func NewTwitterClient() *TwitterClient {
	return &TwitterClient{baseURL: twitterTweetsURL}
}

type tweetRequest struct {
	Text string `json:"text"`
}

type tweetResponse struct {
	Data struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	} `json:"data"`
}

func (c *TwitterClient) Publish(ctx context.Context, creds Credentials, content string) (string, error) {
	body, err := json.Marshal(tweetRequest{Text: content})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: creds.AccessToken,
	}))

	resp, err := httpClient.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return "", fmt.Errorf("twitter request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("twitter returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var tweet tweetResponse
	if err := json.Unmarshal(respBody, &tweet); err != nil {
		return "", fmt.Errorf("unexpected twitter response: %w", err)
	}
	if tweet.Data.ID == "" {
		return "", fmt.Errorf("twitter response missing tweet id")
	}

	return tweet.Data.ID, nil
}
