// Package events defines the fire-and-forget event-publishing contract the
// engine uses to announce committed state transitions, mirroring the source
// project's EventPublisher/NoOpEventPublisher split.
package events

import (
	"context"

	"ledgerengine/internal/money"
)

// Kind identifies what happened to a transaction.
type Kind string

const (
	DepositCompleted    Kind = "deposit_completed"
	WithdrawalCompleted Kind = "withdrawal_completed"
	DisputeOpened       Kind = "dispute_opened"
	DisputeResolved     Kind = "dispute_resolved"
	ChargedBack         Kind = "charged_back"
)

// Event is the payload published after an engine operation commits. It
// carries the account's post-commit balances so a downstream consumer never
// needs to read storage back to stay in sync.
type Event struct {
	Kind      Kind
	ClientID  uint16
	TxID      uint32
	Amount    money.Money
	Available money.Money
	Held      money.Money
	Locked    bool
}

// Publisher publishes events emitted by the engine. Publishing is
// best-effort: the engine logs a Publish error but never fails the
// operation that produced the event, since the event is a side effect of an
// already-committed state transition, not part of it.
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
	Close() error
}

// NoOp is the default Publisher: it drops every event. Used whenever no
// broker is configured.
type NoOp struct{}

func (NoOp) Publish(ctx context.Context, evt Event) error { return nil }
func (NoOp) Close() error                                 { return nil }
