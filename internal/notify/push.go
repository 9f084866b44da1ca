package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// pushMessage is the Expo push API message shape.
type pushMessage struct {
	To        string      `json:"to"`
	Sound     string      `json:"sound"`
	Title     string      `json:"title"`
	Body      string      `json:"body"`
	Data      interface{} `json:"data,omitempty"`
	Priority  string      `json:"priority"`
	ChannelID string      `json:"channelId"`
}

// PushSender delivers one push batch.
type PushSender interface {
	Push(ctx context.Context, tokens []string, title, body string, data interface{}) error
}

// ExpoPusher posts message batches to the Expo push API.
type ExpoPusher struct {
	endpoint   string
	httpClient *http.Client
}

func NewExpoPusher(endpoint string) *ExpoPusher {
	return &ExpoPusher{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

func (p *ExpoPusher) Push(ctx context.Context, tokens []string, title, body string, data interface{}) error {
	messages := make([]pushMessage, 0, len(tokens))
	for _, token := range tokens {
		messages = append(messages, pushMessage{
			To:        token,
			Sound:     "default",
			Title:     title,
			Body:      body,
			Data:      data,
			Priority:  "high",
			ChannelID: "default",
		})
	}

	payload, err := json.Marshal(messages)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewBuffer(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("push endpoint returned status %s", resp.Status)
	}
	return nil
}
