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
	"net/smtp"
	"strings"
	"time"

	"github.com/ymonitor/ymonitor/pkg/models"
)

// sendMailFunc matches smtp.SendMail, injectable for tests.
type sendMailFunc func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error

// EmailAdapter delivers alerts as RFC-5322 mail over SMTP with the
// X-YM-* routing headers.
type EmailAdapter struct {
	sendMail sendMailFunc
}

func NewEmailAdapter() *EmailAdapter {
	return &EmailAdapter{sendMail: smtp.SendMail}
}

func (a *EmailAdapter) Send(_ context.Context, transport *models.Transport, msg *Message) (string, error) {
	cfg := transport.Config

	if cfg.SMTPHost == "" || len(cfg.Recipients) == 0 {
		return "", fmt.Errorf("email transport %s missing smtp_host or recipients", transport.ID)
	}

	port := cfg.SMTPPort
	if port == 0 {
		port = 25
	}

	deviceName := msg.Alert.DeviceID
	if msg.Device != nil {
		deviceName = msg.Device.Hostname
	}

	var b strings.Builder

	fmt.Fprintf(&b, "From: %s\r\n", cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(cfg.Recipients, ", "))
	fmt.Fprintf(&b, "Subject: [%s] %s\r\n", strings.ToUpper(string(msg.Alert.Severity)), msg.Alert.Title)
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	fmt.Fprintf(&b, "X-YM-Alert-Id: %s\r\n", msg.Alert.ID)
	fmt.Fprintf(&b, "X-YM-Severity: %s\r\n", msg.Alert.Severity)
	fmt.Fprintf(&b, "X-YM-Device: %s\r\n", deviceName)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.Alert.Message)
	fmt.Fprintf(&b, "\r\n\r\nDevice: %s\r\nFirst occurred: %s\r\nOccurrences: %d\r\n",
		deviceName,
		msg.Alert.FirstOccurred.Format(time.RFC3339),
		msg.Alert.Occurrences)

	var auth smtp.Auth
	if cfg.SMTPUser != "" {
		auth = smtp.PlainAuth("", cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPHost)
	}

	addr := fmt.Sprintf("%s:%d", cfg.SMTPHost, port)

	if err := a.sendMail(addr, auth, cfg.From, cfg.Recipients, []byte(b.String())); err != nil {
		return "", fmt.Errorf("smtp send failed: %w", err)
	}

	return fmt.Sprintf("delivered to %d recipients", len(cfg.Recipients)), nil
}
