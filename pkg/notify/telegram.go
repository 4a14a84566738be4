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

	"github.com/ymonitor/ymonitor/pkg/models"
)

const telegramAPIBase = "https://api.telegram.org"

var telegramEmoji = map[models.Severity]string{
	models.SeverityCritical: "\U0001F534", // red circle
	models.SeverityWarning:  "⚠️",
	models.SeverityInfo:     "ℹ️",
	models.SeverityOK:       "✅",
}

// TelegramAdapter sends Markdown messages through the Bot API.
type TelegramAdapter struct {
	client  *http.Client
	apiBase string
}

func NewTelegramAdapter(client *http.Client) *TelegramAdapter {
	return &TelegramAdapter{client: client, apiBase: telegramAPIBase}
}

func (a *TelegramAdapter) Send(ctx context.Context, transport *models.Transport, msg *Message) (string, error) {
	cfg := transport.Config

	if cfg.BotToken == "" || cfg.ChatID == "" {
		return "", fmt.Errorf("telegram transport %s missing bot_token or chat_id", transport.ID)
	}

	deviceName := msg.Alert.DeviceID
	if msg.Device != nil {
		deviceName = msg.Device.Hostname
	}

	emoji, ok := telegramEmoji[msg.Alert.Severity]
	if !ok {
		emoji = telegramEmoji[models.SeverityInfo]
	}

	text := fmt.Sprintf("%s *%s*\n%s\n\n_Device:_ %s\n_Severity:_ %s",
		emoji, msg.Alert.Title, msg.Alert.Message, deviceName, msg.Alert.Severity)

	payload := map[string]string{
		"chat_id":    cfg.ChatID,
		"text":       text,
		"parse_mode": "Markdown",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", a.apiBase, cfg.BotToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("telegram request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("telegram returned %d", resp.StatusCode)
	}

	return resp.Status, nil
}
