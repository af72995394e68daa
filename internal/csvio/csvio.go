// Package csvio implements the CSV boundary named in the external
// interfaces: reading input transaction rows and writing the final account
// snapshot. It intentionally stays on encoding/csv rather than a
// third-party CSV library — see DESIGN.md.
package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"ledgerengine/internal/money"
	"ledgerengine/internal/stream"
)

// Reader parses the input CSV schema (type, client, tx, amount) into
// stream.Records, trimming whitespace from headers and fields as the
// schema requires.
type Reader struct {
	r *csv.Reader
}

// NewReader wraps r, configuring the underlying csv.Reader to tolerate a
// variable number of fields (amount is absent for dispute/resolve/
// chargeback rows).
func NewReader(r io.Reader) *Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	return &Reader{r: cr}
}

var columnIndex = map[string]int{"type": -1, "client": -1, "tx": -1, "amount": -1}

// ReadAll reads every data row, returning a skipped-row count for rows that
// are malformed or reference an unknown type; the caller logs these, it does
// not fail the read.
func (r *Reader) ReadAll() ([]stream.Record, int, error) {
	header, err := r.r.Read()
	if err != nil {
		if err == io.EOF {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("csvio: read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{"type", "client", "tx"} {
		if _, ok := cols[required]; !ok {
			return nil, 0, fmt.Errorf("csvio: missing required column %q", required)
		}
	}
	amountCol, hasAmount := cols["amount"]

	var records []stream.Record
	skipped := 0
	for {
		row, err := r.r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("csvio: read row: %w", err)
		}

		rec, ok := parseRow(row, cols, amountCol, hasAmount)
		if !ok {
			skipped++
			continue
		}
		records = append(records, rec)
	}
	return records, skipped, nil
}

func field(row []string, idx int) (string, bool) {
	if idx < 0 || idx >= len(row) {
		return "", false
	}
	return strings.TrimSpace(row[idx]), true
}

func parseRow(row []string, cols map[string]int, amountCol int, hasAmount bool) (stream.Record, bool) {
	typeStr, ok := field(row, cols["type"])
	if !ok {
		return stream.Record{}, false
	}
	kind, ok := stream.ParseKind(typeStr)
	if !ok {
		return stream.Record{}, false
	}

	clientStr, ok := field(row, cols["client"])
	if !ok {
		return stream.Record{}, false
	}
	clientID, err := strconv.ParseUint(clientStr, 10, 16)
	if err != nil {
		return stream.Record{}, false
	}

	txStr, ok := field(row, cols["tx"])
	if !ok {
		return stream.Record{}, false
	}
	txID, err := strconv.ParseUint(txStr, 10, 32)
	if err != nil {
		return stream.Record{}, false
	}

	rec := stream.Record{Kind: kind, ClientID: uint16(clientID), TxID: uint32(txID)}

	if kind == stream.Deposit || kind == stream.Withdrawal {
		amtStr, ok := field(row, amountCol)
		if !ok || amtStr == "" {
			return stream.Record{}, false
		}
		amt, err := money.Parse(amtStr)
		if err != nil {
			return stream.Record{}, false
		}
		rec.Amount = amt
	}

	return rec, true
}

// Writer renders the output account snapshot.
type Writer struct {
	w *csv.Writer
}

// NewWriter wraps w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: csv.NewWriter(w)}
}

// WriteHeader writes the fixed output header.
func (w *Writer) WriteHeader() error {
	return w.w.Write([]string{"client", "available", "held", "total", "locked"})
}

// WriteRow writes a single account snapshot row, formatting locked as
// "true"/"false" and every Money as a four-decimal-digit string.
func (w *Writer) WriteRow(clientID uint16, available, held, total money.Money, locked bool) error {
	return w.w.Write([]string{
		strconv.FormatUint(uint64(clientID), 10),
		available.String(),
		held.String(),
		total.String(),
		strconv.FormatBool(locked),
	})
}

// Flush flushes the underlying csv.Writer and returns any write error.
func (w *Writer) Flush() error {
	w.w.Flush()
	return w.w.Error()
}
