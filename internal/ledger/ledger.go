// Package ledger holds the entity types shared by the engine and its
// storage backends: the persisted transaction record, its dispute state
// machine, and the per-client account.
package ledger

import "ledgerengine/internal/money"

// TxKind distinguishes the two transaction kinds that are ever persisted.
// Dispute/resolve/chargeback reference an existing TxRecord; they are never
// themselves stored as new records.
type TxKind int

const (
	Deposit TxKind = iota
	Withdrawal
)

func (k TxKind) String() string {
	switch k {
	case Deposit:
		return "deposit"
	case Withdrawal:
		return "withdrawal"
	default:
		return "unknown"
	}
}

// DisputeState tracks where a TxRecord sits in the dispute lifecycle.
//
//	None ---dispute---> Disputed ---resolve---> None
//	                        |
//	                        +---chargeback---> ChargedBack (terminal)
type DisputeState int

const (
	NoDispute DisputeState = iota
	Disputed
	ChargedBack
)

func (s DisputeState) String() string {
	switch s {
	case NoDispute:
		return "none"
	case Disputed:
		return "disputed"
	case ChargedBack:
		return "charged_back"
	default:
		return "unknown"
	}
}

// TxRecord is the persisted record of a deposit or withdrawal, keyed by
// tx_id globally across clients. It is created once, on the commit of a
// successful deposit or withdrawal, and thereafter mutated only to advance
// DisputeState.
type TxRecord struct {
	ClientID     uint16
	Kind         TxKind
	Amount       money.Money
	DisputeState DisputeState
}

// Account is the in-memory/at-rest representation of a client's monetary
// state. Total is deliberately not a stored field: it is always derived, so
// the invariant total == available + held holds by construction.
type Account struct {
	ClientID  uint16
	Available money.Money
	Held      money.Money
	Locked    bool
}

// Total returns Available + Held. It is the only place this sum is
// computed; callers must never persist it.
func (a Account) Total() (money.Money, error) {
	return a.Available.Add(a.Held)
}

// ZeroAccount returns a freshly materialised account for a client with no
// prior history, as created lazily on a client's first successful deposit.
func ZeroAccount(clientID uint16) Account {
	return Account{ClientID: clientID}
}
