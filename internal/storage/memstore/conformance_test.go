package memstore_test

import (
	"testing"

	"ledgerengine/internal/storage/conformance"
	"ledgerengine/internal/storage/memstore"
)

func TestMemstoreConformance(t *testing.T) {
	conformance.Run(t, memstore.New())
}
