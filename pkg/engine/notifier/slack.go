package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/DrSkyle/rackfit/pkg/engine/history"
)

// SlackClient posts run summaries to an incoming webhook.
type SlackClient struct {
	WebhookURL string
	Channel    string // Optional: Override default channel
	HTTPClient *http.Client
}

// NewSlackClient initializes the Slack integration.
func NewSlackClient(webhookURL string, channel string) *SlackClient {
	return &SlackClient{
		WebhookURL: webhookURL,
		Channel:    channel,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Notify sends the summary of one run. An empty webhook is a no-op.
func (s *SlackClient) Notify(ctx context.Context, snap history.Snapshot) error {
	if s.WebhookURL == "" {
		return nil
	}

	body, err := json.Marshal(s.constructPayload(snap))
	if err != nil {
		return fmt.Errorf("failed to marshal slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("received non-200 status from slack: %d", resp.StatusCode)
	}
	return nil
}

// constructPayload builds the message blocks.
func (s *SlackClient) constructPayload(snap history.Snapshot) map[string]interface{} {
	statusIcon := "🟢"
	if snap.FullPairs < snap.Pairs {
		statusIcon = "🟡"
	}
	if snap.Requests > 0 && snap.Deployed == 0 {
		statusIcon = "🔴"
	}

	blocks := []map[string]interface{}{
		{
			"type": "header",
			"text": map[string]interface{}{
				"type": "plain_text",
				"text": fmt.Sprintf("%s Placement Run", statusIcon),
			},
		},
		{
			"type": "context",
			"elements": []map[string]interface{}{
				{
					"type": "mrkdwn",
					"text": fmt.Sprintf("*Run:* %s | *Search width:* %d",
						time.Unix(snap.Timestamp, 0).UTC().Format("2006-01-02 15:04 MST"), snap.SearchWidth),
				},
			},
		},
		{
			"type": "divider",
		},
		{
			"type": "section",
			"fields": []map[string]interface{}{
				{
					"type": "mrkdwn",
					"text": fmt.Sprintf("*VMs Deployed:*\n%d/%d (%.1f%%)", snap.Deployed, snap.Requests, snap.Rate()*100),
				},
				{
					"type": "mrkdwn",
					"text": fmt.Sprintf("*Pairs Fully Deployed:*\n%d/%d", snap.FullPairs, snap.Pairs),
				},
				{
					"type": "mrkdwn",
					"text": fmt.Sprintf("*Repairs Committed:*\n%d", snap.Repairs),
				},
			},
		},
	}

	payload := map[string]interface{}{
		"blocks": blocks,
	}
	if s.Channel != "" {
		payload["channel"] = s.Channel
	}
	return payload
}
