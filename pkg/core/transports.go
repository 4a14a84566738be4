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

package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/ymonitor/ymonitor/pkg/db"
	"github.com/ymonitor/ymonitor/pkg/models"
)

var validTransportTypes = map[models.TransportType]bool{
	models.TransportEmail:    true,
	models.TransportWebhook:  true,
	models.TransportSlack:    true,
	models.TransportTelegram: true,
	models.TransportSMS:      true,
	models.TransportTeams:    true,
}

// Filter conditions on transports evaluate against a flat routing map;
// only the equality-style operators apply.
var validFilterOps = map[models.ConditionOp]bool{
	models.OpEq:    true,
	models.OpNe:    true,
	models.OpIn:    true,
	models.OpNotIn: true,
}

// ListTransports returns all transports, or only enabled ones.
func (m *Monitor) ListTransports(ctx context.Context, enabledOnly bool) ([]*models.Transport, error) {
	transports, err := m.store.ListTransports(ctx, enabledOnly)
	if err != nil {
		return nil, internalErr("failed to list transports", err)
	}

	return transports, nil
}

// CreateTransport validates and persists a new transport.
func (m *Monitor) CreateTransport(ctx context.Context, transport *models.Transport) (*models.Transport, error) {
	if err := validateTransport(transport); err != nil {
		return nil, err
	}

	if transport.ID == "" {
		transport.ID = uuid.New().String()
	}

	if err := m.store.CreateTransport(ctx, transport); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			return nil, conflictErr("transport already exists", err)
		}

		return nil, internalErr("failed to create transport", err)
	}

	m.logger.Info().
		Str("transport_id", transport.ID).
		Str("type", string(transport.Type)).
		Msg("transport created")

	return transport, nil
}

// TestTransportResult carries the adapter's receipt for a test delivery.
type TestTransportResult struct {
	TransportID string `json:"transport_id"`
	Response    string `json:"response,omitempty"`
}

// TestTransport sends a synthetic test notification through one
// configured transport.
func (m *Monitor) TestTransport(ctx context.Context, id string) (*TestTransportResult, error) {
	transport, err := m.store.GetTransport(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, notFoundErr("transport", id)
		}

		return nil, internalErr("failed to load transport", err)
	}

	response, err := m.notifier.SendTest(ctx, transport)
	if err != nil {
		return nil, &Error{
			Kind:    KindTransportFailed,
			Message: fmt.Sprintf("test delivery over transport %s failed", id),
			Err:     err,
		}
	}

	return &TestTransportResult{TransportID: id, Response: response}, nil
}

func validateTransport(transport *models.Transport) error {
	if transport == nil {
		return validationErr("transport is required")
	}

	if transport.Name == "" {
		return validationErr("transport name is required")
	}

	if !validTransportTypes[transport.Type] {
		return validationErr("invalid transport type %q", transport.Type)
	}

	for i, cond := range transport.FilterConditions {
		if cond.Field == "" {
			return validationErr("filter condition %d has no field", i+1)
		}

		if !validFilterOps[cond.Op] {
			return validationErr("filter condition %d has unsupported operator %q", i+1, cond.Op)
		}
	}

	switch transport.Type {
	case models.TransportEmail:
		if transport.Config.SMTPHost == "" || len(transport.Config.Recipients) == 0 {
			return validationErr("email transport needs smtp_host and recipients")
		}
	case models.TransportWebhook:
		if transport.Config.URL == "" {
			return validationErr("webhook transport needs a url")
		}
	case models.TransportSlack:
		if transport.Config.WebhookURL == "" {
			return validationErr("slack transport needs a webhook_url")
		}
	case models.TransportTelegram:
		if transport.Config.BotToken == "" || transport.Config.ChatID == "" {
			return validationErr("telegram transport needs bot_token and chat_id")
		}
	case models.TransportTeams:
		if transport.Config.WebhookURLTeams == "" {
			return validationErr("teams transport needs a webhook_url_teams")
		}
	case models.TransportSMS:
		if len(transport.Config.SMSRecipients) == 0 {
			return validationErr("sms transport needs sms_recipients")
		}
	}

	return nil
}
