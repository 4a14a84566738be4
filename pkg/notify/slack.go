/*
 * Copyright 2025 the Y Monitor Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ymonitor/ymonitor/pkg/models"
)

// Slack attachment colors per severity.
var slackColors = map[models.Severity]string{
	models.SeverityCritical: "#FF0000",
	models.SeverityWarning:  "#FFA500",
	models.SeverityInfo:     "#0080FF",
	models.SeverityOK:       "#00FF00",
}

type slackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

type slackAttachment struct {
	Color  string       `json:"color"`
	Title  string       `json:"title"`
	Text   string       `json:"text"`
	Fields []slackField `json:"fields"`
	Ts     int64        `json:"ts"`
}

type slackPayload struct {
	Channel     string            `json:"channel,omitempty"`
	Attachments []slackAttachment `json:"attachments"`
}

// SlackAdapter posts one colored attachment per alert to an incoming
// webhook.
type SlackAdapter struct {
	client *http.Client
}

func NewSlackAdapter(client *http.Client) *SlackAdapter {
	return &SlackAdapter{client: client}
}

func (a *SlackAdapter) Send(ctx context.Context, transport *models.Transport, msg *Message) (string, error) {
	cfg := transport.Config

	if cfg.WebhookURL == "" {
		return "", fmt.Errorf("slack transport %s has no webhook_url", transport.ID)
	}

	deviceName := msg.Alert.DeviceID
	if msg.Device != nil {
		deviceName = msg.Device.Hostname
	}

	color, ok := slackColors[msg.Alert.Severity]
	if !ok {
		color = slackColors[models.SeverityInfo]
	}

	payload := slackPayload{
		Channel: cfg.Channel,
		Attachments: []slackAttachment{{
			Color: color,
			Title: msg.Alert.Title,
			Text:  msg.Alert.Message,
			Fields: []slackField{
				{Title: "Severity", Value: string(msg.Alert.Severity), Short: true},
				{Title: "Device", Value: deviceName, Short: true},
				{Title: "Timestamp", Value: msg.Alert.LastOccurred.Format(time.RFC3339), Short: true},
			},
			Ts: msg.Alert.LastOccurred.Unix(),
		}},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("slack request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("slack returned %d", resp.StatusCode)
	}

	return resp.Status, nil
}
