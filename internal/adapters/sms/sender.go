package sms

import (
	"context"
	"time"
)

// SendRequest contains the data needed to send a text message via the
// SMS gateway.
type SendRequest struct {
	To   string // Recipient phone number in E.164 form
	Body string // Message text; the gateway splits long messages
}

// SendResult contains the response from the SMS gateway.
type SendResult struct {
	MessageID string    // Gateway's message ID for tracking
	SentAt    time.Time // When the send was accepted
}

// Sender is the interface for sending text messages via an external gateway.
type Sender interface {
	Send(ctx context.Context, req SendRequest) (SendResult, error)
}
