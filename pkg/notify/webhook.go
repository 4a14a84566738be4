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
	"io"
	"net/http"
	"strings"

	"github.com/ymonitor/ymonitor/pkg/models"
)

// WebhookAdapter posts the alert to an arbitrary HTTP endpoint. Custom
// headers merge over the defaults; a custom body template is interpolated
// against the alert variables, otherwise a JSON envelope is sent.
type WebhookAdapter struct {
	client *http.Client
}

func NewWebhookAdapter(client *http.Client) *WebhookAdapter {
	return &WebhookAdapter{client: client}
}

func (a *WebhookAdapter) Send(ctx context.Context, transport *models.Transport, msg *Message) (string, error) {
	cfg := transport.Config

	if cfg.URL == "" {
		return "", fmt.Errorf("webhook transport %s has no url", transport.ID)
	}

	method := strings.ToUpper(cfg.Method)
	if method == "" {
		method = http.MethodPost
	}

	var body []byte

	if cfg.Body != "" {
		body = []byte(renderVars(cfg.Body, msg.Variables))
	} else {
		envelope := map[string]interface{}{
			"alert":    msg.Alert,
			"device":   msg.Device,
			"metadata": msg.Variables,
		}

		var err error

		body, err = json.Marshal(envelope)
		if err != nil {
			return "", fmt.Errorf("failed to marshal webhook payload: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, cfg.URL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Y-Monitor/1.0")

	for key, value := range cfg.Headers {
		req.Header.Set(key, value)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("webhook returned %d: %s", resp.StatusCode, string(snippet))
	}

	return resp.Status, nil
}
