// Package stream implements the driver described in design component 6:
// it consumes an ordered sequence of input records, dispatches each to the
// engine, retries transient conflicts with bounded backoff, and at
// end-of-stream emits the final account snapshot.
package stream

import (
	"context"
	"errors"
	"fmt"

	"github.com/cenkalti/backoff/v4"

	"ledgerengine/internal/config"
	"ledgerengine/internal/engine"
	"ledgerengine/internal/logging"
	"ledgerengine/internal/money"
	"ledgerengine/internal/telemetry"
)

// Kind identifies which engine operation a Record dispatches to.
type Kind int

const (
	Deposit Kind = iota
	Withdrawal
	Dispute
	Resolve
	Chargeback
)

func (k Kind) String() string {
	switch k {
	case Deposit:
		return "deposit"
	case Withdrawal:
		return "withdrawal"
	case Dispute:
		return "dispute"
	case Resolve:
		return "resolve"
	case Chargeback:
		return "chargeback"
	default:
		return "unknown"
	}
}

// ParseKind maps the CSV "type" column to a Kind. Unknown strings return
// ok=false so the caller can skip the row with a warning, per spec.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "deposit":
		return Deposit, true
	case "withdrawal":
		return Withdrawal, true
	case "dispute":
		return Dispute, true
	case "resolve":
		return Resolve, true
	case "chargeback":
		return Chargeback, true
	default:
		return 0, false
	}
}

// Record is one parsed input row, already validated for shape (the CSV
// reader never hands the driver a record it could not parse).
type Record struct {
	Kind     Kind
	ClientID uint16
	TxID     uint32
	Amount   money.Money // only meaningful for Deposit/Withdrawal
}

// AccountWriter is the subset of csvio.Writer the driver needs to emit the
// final snapshot; kept as an interface here so this package never imports
// csvio (which itself imports stream for Record/Kind).
type AccountWriter interface {
	WriteHeader() error
	WriteRow(clientID uint16, available, held, total money.Money, locked bool) error
	Flush() error
}

// Driver wires an Engine to a bounded-retry policy for
// ConcurrentOperationDetected, matching the stream driver described in
// component 6.
type Driver struct {
	engine *engine.Engine
	logger *logging.Logger
	cfg    config.StreamConfig
}

// New builds a Driver.
func New(e *engine.Engine, logger *logging.Logger, cfg config.StreamConfig) *Driver {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Driver{engine: e, logger: logger, cfg: cfg}
}

// Result summarises how many records were processed, skipped for
// malformed shape (counted by the caller, not here), or failed for a
// non-retryable engine error.
type Result struct {
	Processed int
	Failed    int
}

// Process dispatches every record in order. Malformed-shape skipping
// happens upstream in csvio; here every record has already been validated
// for shape, so only engine-level errors are possible.
func (d *Driver) Process(ctx context.Context, records []Record) Result {
	var res Result
	for _, rec := range records {
		err := d.dispatchWithRetry(ctx, rec)
		telemetry.RecordOperation(rec.Kind.String(), err)
		if err != nil {
			res.Failed++
			d.logger.Warn("skipping record after engine error", map[string]interface{}{
				"kind":      rec.Kind,
				"client_id": rec.ClientID,
				"tx_id":     rec.TxID,
				"error":     err.Error(),
			})
			continue
		}
		res.Processed++
	}
	return res
}

func (d *Driver) dispatchWithRetry(ctx context.Context, rec Record) error {
	op := func() error {
		err := d.dispatch(ctx, rec)
		if errors.Is(err, engine.ErrConcurrentOperationDetected) {
			return err // retryable
		}
		if err != nil {
			return backoff.Permanent(err)
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = d.cfg.InitialBackoff
	bo.MaxInterval = d.cfg.MaxBackoff
	bounded := backoff.WithMaxRetries(bo, uint64(d.cfg.MaxRetries))

	return backoff.Retry(op, backoff.WithContext(bounded, ctx))
}

func (d *Driver) dispatch(ctx context.Context, rec Record) error {
	switch rec.Kind {
	case Deposit:
		return d.engine.Deposit(ctx, rec.ClientID, rec.TxID, rec.Amount)
	case Withdrawal:
		return d.engine.Withdraw(ctx, rec.ClientID, rec.TxID, rec.Amount)
	case Dispute:
		return d.engine.Dispute(ctx, rec.ClientID, rec.TxID)
	case Resolve:
		return d.engine.Resolve(ctx, rec.ClientID, rec.TxID)
	case Chargeback:
		return d.engine.Chargeback(ctx, rec.ClientID, rec.TxID)
	default:
		return fmt.Errorf("stream: unknown record kind %v", rec.Kind)
	}
}

// EmitSnapshot iterates every account known to storage (via the engine's
// Accounts operation) and writes it as a row to w, in the unspecified order
// the storage backend yields.
func (d *Driver) EmitSnapshot(ctx context.Context, w AccountWriter) error {
	if err := w.WriteHeader(); err != nil {
		return fmt.Errorf("stream: write header: %w", err)
	}

	ch, err := d.engine.Accounts(ctx)
	if err != nil {
		return fmt.Errorf("stream: list accounts: %w", err)
	}
	for acc := range ch {
		total, err := acc.Total()
		if err != nil {
			return fmt.Errorf("stream: derive total for client %d: %w", acc.ClientID, err)
		}
		if err := w.WriteRow(acc.ClientID, acc.Available, acc.Held, total, acc.Locked); err != nil {
			return fmt.Errorf("stream: write row for client %d: %w", acc.ClientID, err)
		}
	}
	return w.Flush()
}
