// Command ledger is the CSV-processing CLI: it reads a transactions CSV
// named as its single argument, applies every record to the engine in
// order, and writes the resulting per-client account snapshot to stdout.
package main

import (
	"context"
	"fmt"
	"os"

	"ledgerengine/internal/app"
	"ledgerengine/internal/config"
	"ledgerengine/internal/csvio"
	"ledgerengine/internal/stream"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <transactions.csv>\n", os.Args[0])
		os.Exit(1)
	}

	if err := run(os.Args[1]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(inputPath string) error {
	ctx := context.Background()
	cfg := config.Load()

	container, err := app.NewMinimal(ctx, cfg)
	if err != nil {
		return fmt.Errorf("ledger: initialize application: %w", err)
	}
	defer container.Shutdown(ctx)

	input, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("ledger: open input: %w", err)
	}
	defer input.Close()

	records, skipped, err := csvio.NewReader(input).ReadAll()
	if err != nil {
		return fmt.Errorf("ledger: read input: %w", err)
	}
	if skipped > 0 {
		container.Logger.Warn("skipped malformed or unrecognised rows", map[string]interface{}{
			"skipped": skipped,
		})
	}

	driver := stream.New(container.Engine, container.Logger, cfg.Stream)
	result := driver.Process(ctx, records)
	container.Logger.Info("processed input", map[string]interface{}{
		"processed": result.Processed,
		"failed":    result.Failed,
	})

	writer := csvio.NewWriter(os.Stdout)
	if err := driver.EmitSnapshot(ctx, writer); err != nil {
		return fmt.Errorf("ledger: write snapshot: %w", err)
	}
	return nil
}
