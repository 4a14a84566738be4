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

package alerting

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/ymonitor/ymonitor/pkg/logger"
)

const (
	defaultAlertStream  = "YM_ALERTS"
	alertSubjectPrefix  = "alerts"
	alertStreamSubjects = "alerts.>"
)

// NatsPublisher forwards alert lifecycle events to a JetStream stream so
// external consumers (dashboards, ticketing bridges) can subscribe.
type NatsPublisher struct {
	conn   *nats.Conn
	js     jetstream.JetStream
	stream string
	logger logger.Logger
}

// NewNatsPublisher connects, ensures the stream exists and returns a
// ready publisher.
func NewNatsPublisher(ctx context.Context, natsURL, streamName string, log logger.Logger, opts ...nats.Option) (*NatsPublisher, error) {
	if streamName == "" {
		streamName = defaultAlertStream
	}

	nc, err := nats.Connect(natsURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	if _, err := js.Stream(ctx, streamName); err != nil {
		streamConfig := jetstream.StreamConfig{
			Name:     streamName,
			Subjects: []string{alertStreamSubjects},
		}

		if _, err := js.CreateOrUpdateStream(ctx, streamConfig); err != nil {
			nc.Close()
			return nil, fmt.Errorf("failed to create or get stream %s: %w", streamName, err)
		}
	}

	return &NatsPublisher{
		conn:   nc,
		js:     js,
		stream: streamName,
		logger: log.WithComponent("alerting.publisher"),
	}, nil
}

// PublishAlertEvent publishes one lifecycle event. The subject encodes
// the event type: alerts.created, alerts.updated, alerts.resolved.
func (p *NatsPublisher) PublishAlertEvent(ctx context.Context, event *AlertEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal alert event: %w", err)
	}

	subject := alertSubjectPrefix + "." + subjectSuffix(event.Type)

	ack, err := p.js.Publish(ctx, subject, payload)
	if err != nil {
		return fmt.Errorf("failed to publish alert event: %w", err)
	}

	p.logger.Debug().
		Str("subject", subject).
		Uint64("seq", ack.Sequence).
		Msg("alert event published")

	return nil
}

// Close drains the connection.
func (p *NatsPublisher) Close() {
	if err := p.conn.Drain(); err != nil {
		p.logger.Warn().Err(err).Msg("NATS drain failed")
	}
}

// subjectSuffix strips the "alert." prefix of the event type.
func subjectSuffix(eventType string) string {
	const prefix = "alert."

	if len(eventType) > len(prefix) && eventType[:len(prefix)] == prefix {
		return eventType[len(prefix):]
	}

	return eventType
}
