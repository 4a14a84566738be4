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

var teamsThemeColors = map[models.Severity]string{
	models.SeverityCritical: "attention",
	models.SeverityWarning:  "warning",
	models.SeverityInfo:     "accent",
	models.SeverityOK:       "good",
}

type teamsFact struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type teamsSection struct {
	ActivityTitle string      `json:"activityTitle"`
	Facts         []teamsFact `json:"facts"`
	Text          string      `json:"text"`
}

type teamsCard struct {
	Type       string         `json:"@type"`
	Context    string         `json:"@context"`
	ThemeColor string         `json:"themeColor"`
	Summary    string         `json:"summary"`
	Sections   []teamsSection `json:"sections"`
}

// TeamsAdapter posts a MessageCard to an incoming webhook.
type TeamsAdapter struct {
	client *http.Client
}

func NewTeamsAdapter(client *http.Client) *TeamsAdapter {
	return &TeamsAdapter{client: client}
}

func (a *TeamsAdapter) Send(ctx context.Context, transport *models.Transport, msg *Message) (string, error) {
	cfg := transport.Config

	if cfg.WebhookURLTeams == "" {
		return "", fmt.Errorf("teams transport %s has no webhook_url_teams", transport.ID)
	}

	deviceName := msg.Alert.DeviceID
	if msg.Device != nil {
		deviceName = msg.Device.Hostname
	}

	theme, ok := teamsThemeColors[msg.Alert.Severity]
	if !ok {
		theme = teamsThemeColors[models.SeverityInfo]
	}

	card := teamsCard{
		Type:       "MessageCard",
		Context:    "http://schema.org/extensions",
		ThemeColor: theme,
		Summary:    msg.Alert.Title,
		Sections: []teamsSection{{
			ActivityTitle: msg.Alert.Title,
			Facts: []teamsFact{
				{Name: "Severity", Value: string(msg.Alert.Severity)},
				{Name: "Device", Value: deviceName},
				{Name: "Timestamp", Value: msg.Alert.LastOccurred.Format(time.RFC3339)},
			},
			Text: msg.Alert.Message,
		}},
	}

	body, err := json.Marshal(card)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.WebhookURLTeams, bytes.NewReader(body))
	if err != nil {
		return "", err
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("teams request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("teams returned %d", resp.StatusCode)
	}

	return resp.Status, nil
}
