package pgstore

import (
	"fmt"

	"ledgerengine/internal/ledger"
	"ledgerengine/internal/money"
)

// rowScanner is satisfied by both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAccount(r rowScanner) (ledger.Account, error) {
	var (
		clientID           uint16
		availableStr, heldStr string
		locked             bool
	)
	if err := r.Scan(&clientID, &availableStr, &heldStr, &locked); err != nil {
		return ledger.Account{}, fmt.Errorf("pgstore: scan account: %w", err)
	}
	available, err := money.Parse(availableStr)
	if err != nil {
		return ledger.Account{}, fmt.Errorf("pgstore: parse available: %w", err)
	}
	held, err := money.Parse(heldStr)
	if err != nil {
		return ledger.Account{}, fmt.Errorf("pgstore: parse held: %w", err)
	}
	return ledger.Account{ClientID: clientID, Available: available, Held: held, Locked: locked}, nil
}

func scanTxRecord(r rowScanner) (uint16, ledger.TxRecord, error) {
	var (
		txID         uint32
		clientID     uint16
		kind         string
		amountStr    string
		disputeState string
	)
	if err := r.Scan(&txID, &clientID, &kind, &amountStr, &disputeState); err != nil {
		return 0, ledger.TxRecord{}, fmt.Errorf("pgstore: scan tx: %w", err)
	}
	amount, err := money.Parse(amountStr)
	if err != nil {
		return 0, ledger.TxRecord{}, fmt.Errorf("pgstore: parse amount: %w", err)
	}

	var k ledger.TxKind
	switch kind {
	case "deposit":
		k = ledger.Deposit
	case "withdrawal":
		k = ledger.Withdrawal
	default:
		return 0, ledger.TxRecord{}, fmt.Errorf("pgstore: unknown tx kind %q", kind)
	}

	var ds ledger.DisputeState
	switch disputeState {
	case "none":
		ds = ledger.NoDispute
	case "disputed":
		ds = ledger.Disputed
	case "charged_back":
		ds = ledger.ChargedBack
	default:
		return 0, ledger.TxRecord{}, fmt.Errorf("pgstore: unknown dispute state %q", disputeState)
	}

	return txID, ledger.TxRecord{ClientID: clientID, Kind: k, Amount: amount, DisputeState: ds}, nil
}
