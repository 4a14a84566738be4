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
	"context"
	"fmt"

	"github.com/ymonitor/ymonitor/pkg/models"
)

// SMSProvider is the pluggable carrier backend: the adapter stays
// provider-neutral and hands over recipients and the final text.
type SMSProvider interface {
	SendSMS(ctx context.Context, recipients []string, text string) error
}

// SMSAdapter renders a short text and delegates to the provider.
type SMSAdapter struct {
	provider SMSProvider
}

func NewSMSAdapter(provider SMSProvider) *SMSAdapter {
	return &SMSAdapter{provider: provider}
}

func (a *SMSAdapter) Send(ctx context.Context, transport *models.Transport, msg *Message) (string, error) {
	if a.provider == nil {
		return "", fmt.Errorf("sms transport %s has no provider configured", transport.ID)
	}

	recipients := transport.Config.SMSRecipients
	if len(recipients) == 0 {
		return "", fmt.Errorf("sms transport %s has no recipients", transport.ID)
	}

	text := fmt.Sprintf("[%s] %s: %s", msg.Alert.Severity, msg.Alert.Title, msg.Alert.Message)

	// Three concatenated GSM-7 segments.
	const maxLen = 459
	if len(text) > maxLen {
		text = text[:maxLen]
	}

	if err := a.provider.SendSMS(ctx, recipients, text); err != nil {
		return "", fmt.Errorf("sms delivery failed: %w", err)
	}

	return fmt.Sprintf("delivered to %d recipients", len(recipients)), nil
}
