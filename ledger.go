package folio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LedgerFile is a TransactionStore backed by a local file, JSONL by default or CSV when
// the file name ends with ".csv".
type LedgerFile struct {
	Path string
}

// ReadAll reads all transactions from the file.
func (f LedgerFile) ReadAll(ctx context.Context) ([]Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("open ledger %q: %w: %w", f.Path, ErrStoreUnavailable, err)
	}
	defer r.Close()

	if strings.EqualFold(filepath.Ext(f.Path), ".csv") {
		return DecodeLedgerCSV(r)
	}
	return DecodeLedger(r)
}

// Write creates (or truncates) the ledger file with the given transactions.
func (f LedgerFile) Write(txs []Transaction) error {
	w, err := os.Create(f.Path)
	if err != nil {
		return err
	}
	if err := EncodeLedger(w, txs); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// Append appends a transaction at the end of the ledger file, creating it if needed.
func (f LedgerFile) Append(tx Transaction) error {
	w, err := os.OpenFile(f.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if err := EncodeTransaction(w, tx); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}
