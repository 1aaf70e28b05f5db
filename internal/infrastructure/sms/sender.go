// Package sms implements the outbound SMS port. The real provider is an
// external collaborator reached over HTTP; development setups log instead.
package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// LogSender writes the message to the log instead of delivering it. Used in
// development and in tests.
type LogSender struct {
	log zerolog.Logger
}

func NewLogSender(log zerolog.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(_ context.Context, phone, body string) error {
	s.log.Info().Str("phone", phone).Str("body", body).Msg("sms (log sender)")
	return nil
}

// GatewaySender posts messages to a JSON SMS gateway.
type GatewaySender struct {
	url      string
	apiKey   string
	senderID string
	client   *http.Client
	log      zerolog.Logger
}

func NewGatewaySender(url, apiKey, senderID string, log zerolog.Logger) *GatewaySender {
	return &GatewaySender{
		url:      url,
		apiKey:   apiKey,
		senderID: senderID,
		client:   &http.Client{Timeout: 10 * time.Second},
		log:      log,
	}
}

type gatewayRequest struct {
	To   string `json:"to"`
	From string `json:"from"`
	Body string `json:"body"`
}

func (s *GatewaySender) Send(ctx context.Context, phone, body string) error {
	payload, err := json.Marshal(gatewayRequest{To: phone, From: s.senderID, Body: body})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("sms gateway: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("sms gateway: unexpected status %d", resp.StatusCode)
	}

	s.log.Debug().Str("phone", phone).Msg("sms delivered to gateway")
	return nil
}
