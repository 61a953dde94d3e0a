package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// GatewaySender sends text messages through an HTTP SMS gateway that accepts
// a JSON POST with bearer-token auth. The gateway is expected to respond with
// a JSON body carrying the accepted message's ID.
type GatewaySender struct {
	client   *http.Client
	endpoint string
	token    string
	from     string
}

// NewGatewaySender creates a new GatewaySender.
// PRE: endpoint is the gateway's send URL; token is a valid API token
// POST: Returns a ready-to-use sender with a 15s request timeout
func NewGatewaySender(endpoint, token, from string) *GatewaySender {
	return &GatewaySender{
		client:   &http.Client{Timeout: 15 * time.Second},
		endpoint: endpoint,
		token:    token,
		from:     from,
	}
}

type gatewayRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
	Body string `json:"body"`
}

type gatewayResponse struct {
	MessageID string `json:"message_id"`
	Error     string `json:"error"`
}

// Send posts one message to the gateway.
// PRE: req.To and req.Body are non-empty
// POST: Message is accepted by the gateway; returns the gateway message ID
func (s *GatewaySender) Send(ctx context.Context, req SendRequest) (SendResult, error) {
	payload, err := json.Marshal(gatewayRequest{From: s.from, To: req.To, Body: req.Body})
	if err != nil {
		return SendResult{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return SendResult{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		slog.Error("sms_send_failed", "error", err, "to", req.To)
		return SendResult{}, fmt.Errorf("sms gateway send failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return SendResult{}, fmt.Errorf("sms gateway read failed: %w", err)
	}

	var gw gatewayResponse
	if err := json.Unmarshal(body, &gw); err != nil {
		return SendResult{}, fmt.Errorf("sms gateway bad response (%d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slog.Error("sms_send_rejected", "status", resp.StatusCode, "to", req.To, "error", gw.Error)
		return SendResult{}, fmt.Errorf("sms gateway rejected send (%d): %s", resp.StatusCode, gw.Error)
	}

	slog.Info("sms_sent", "message_id", gw.MessageID, "to", req.To)
	return SendResult{MessageID: gw.MessageID, SentAt: time.Now()}, nil
}
