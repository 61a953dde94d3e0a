package orchestrators

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"parish/internal/adapters/email"
	"parish/internal/adapters/sms"
	outboxStore "parish/internal/adapters/storage/outbox"
	domain "parish/internal/domain/outbox"
)

// ActionExecutor executes one kind of external action from its queued payload.
type ActionExecutor interface {
	// Execute runs the external action. Returns the provider's ID for the
	// delivered message and any error.
	Execute(ctx context.Context, payload string) (string, error)
}

// OutboxProcessor drains the outbox: pending entries are executed, failures
// retried with exponential backoff until the entry's attempt limit.
type OutboxProcessor struct {
	store     outboxStore.Store
	executors map[string]ActionExecutor
	baseDelay time.Duration
	maxDelay  time.Duration
	batchSize int
	now       func() time.Time
}

// NewOutboxProcessor creates an outbox processor over the given executors,
// keyed by action type.
func NewOutboxProcessor(store outboxStore.Store, executors map[string]ActionExecutor) *OutboxProcessor {
	return &OutboxProcessor{
		store:     store,
		executors: executors,
		baseDelay: 30 * time.Second,
		maxDelay:  1 * time.Hour,
		batchSize: 25,
		now:       time.Now,
	}
}

// ProcessPending executes one batch of pending and retryable entries.
// Entries still inside their backoff window are left untouched.
// PRE: Context is valid
// POST: Each due entry is attempted once and its status persisted
func (p *OutboxProcessor) ProcessPending(ctx context.Context) error {
	entries, err := p.store.ListPending(ctx, p.batchSize)
	if err != nil {
		return fmt.Errorf("list pending outbox entries: %w", err)
	}

	for _, entry := range entries {
		if err := p.processEntry(ctx, entry); err != nil {
			slog.Error("outbox_process_failed", "entry_id", entry.ID,
				"action_type", entry.ActionType, "error", err.Error())
		}
	}
	return nil
}

func (p *OutboxProcessor) processEntry(ctx context.Context, entry domain.Entry) error {
	now := p.now()
	if !entry.LastAttemptedAt.IsZero() {
		delay := entry.NextRetryDelay(p.baseDelay, p.maxDelay)
		if now.Sub(entry.LastAttemptedAt) < delay {
			return nil // still backing off
		}
	}

	executor, ok := p.executors[entry.ActionType]
	if !ok {
		entry.MarkFailed(fmt.Errorf("no executor registered for action type: %s", entry.ActionType))
		return p.store.Save(ctx, entry)
	}

	entry.MarkAttempt(now)
	externalID, err := executor.Execute(ctx, entry.Payload)
	if err != nil {
		entry.MarkFailed(err)
		slog.Warn("outbox_action_failed", "entry_id", entry.ID,
			"attempt", entry.Attempts, "error", err.Error())
	} else {
		entry.MarkSuccess(externalID)
		slog.Info("outbox_action_succeeded", "entry_id", entry.ID,
			"action_type", entry.ActionType, "external_id", externalID)
	}
	return p.store.Save(ctx, entry)
}

// ProcessSingle runs one entry immediately, ignoring its backoff window. Used
// by the admin retry button.
// PRE: entryID refers to a non-terminal entry
// POST: Entry attempted once and its status persisted
func (p *OutboxProcessor) ProcessSingle(ctx context.Context, entryID string) error {
	entry, err := p.store.GetByID(ctx, entryID)
	if err != nil {
		return fmt.Errorf("get outbox entry: %w", err)
	}
	if entry.IsTerminal() {
		return fmt.Errorf("entry %s is in a terminal state and cannot be retried", entryID)
	}

	executor, ok := p.executors[entry.ActionType]
	if !ok {
		return fmt.Errorf("no executor registered for action type: %s", entry.ActionType)
	}

	entry.MarkAttempt(p.now())
	externalID, err := executor.Execute(ctx, entry.Payload)
	if err != nil {
		entry.MarkFailed(err)
	} else {
		entry.MarkSuccess(externalID)
	}
	return p.store.Save(ctx, entry)
}

// AbandonEntry marks an entry as abandoned by an admin. Abandoned entries are
// never retried.
// PRE: entryID refers to an existing entry
// POST: Entry status is abandoned
func (p *OutboxProcessor) AbandonEntry(ctx context.Context, entryID string) error {
	entry, err := p.store.GetByID(ctx, entryID)
	if err != nil {
		return fmt.Errorf("get outbox entry: %w", err)
	}
	entry.MarkAbandoned()
	return p.store.Save(ctx, entry)
}

// --- Email executor ---

// EmailOutboxPayload is the JSON structure queued for email delivery.
type EmailOutboxPayload struct {
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
	ReplyTo string   `json:"reply_to,omitempty"`
}

// EmailExecutor delivers queued emails through the configured provider.
type EmailExecutor struct {
	Sender email.Sender
	From   string
}

// Execute sends one email from the payload.
// PRE: payload is valid JSON matching EmailOutboxPayload
// POST: Email handed to the provider; returns the provider's message ID
// INVARIANT: Outbox entry status is managed by the caller
func (e *EmailExecutor) Execute(ctx context.Context, payload string) (string, error) {
	var p EmailOutboxPayload
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return "", fmt.Errorf("unmarshal email payload: %w", err)
	}
	result, err := e.Sender.Send(ctx, email.SendRequest{
		To:      p.To,
		From:    e.From,
		Subject: p.Subject,
		HTML:    p.HTML,
		ReplyTo: p.ReplyTo,
	})
	if err != nil {
		return "", err
	}
	return result.MessageID, nil
}

// --- SMS executor ---

// SMSExecutor delivers queued campaign messages through the SMS gateway.
type SMSExecutor struct {
	Sender sms.Sender
}

// Execute sends one SMS from the payload.
// PRE: payload is valid JSON matching SMSPayload
// POST: Message handed to the gateway; returns the gateway's message ID
// INVARIANT: Outbox entry status is managed by the caller
func (e *SMSExecutor) Execute(ctx context.Context, payload string) (string, error) {
	var p SMSPayload
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return "", fmt.Errorf("unmarshal sms payload: %w", err)
	}
	result, err := e.Sender.Send(ctx, sms.SendRequest{To: p.To, Body: p.Body})
	if err != nil {
		return "", err
	}
	return result.MessageID, nil
}

// --- Background worker ---

// StartBackgroundWorker runs the processor on a fixed interval until stopCh
// is closed.
// PRE: stopCh is provided to signal shutdown
// POST: Worker goroutine runs until stopCh is closed
func StartBackgroundWorker(processor *OutboxProcessor, interval time.Duration, stopCh <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
				if err := processor.ProcessPending(ctx); err != nil {
					slog.Error("outbox_background_process_failed", "error", err.Error())
				}
				cancel()
			case <-stopCh:
				slog.Info("outbox_background_worker_stopped")
				return
			}
		}
	}()
}
