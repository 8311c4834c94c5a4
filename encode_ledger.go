package folio

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/etnz/folio/date"
	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// ledgerLine is the JSONL representation of a transaction.
type ledgerLine struct {
	Command  string              `json:"command"`
	Date     date.Date           `json:"date"`
	Ticker   string              `json:"ticker"`
	Quantity decimal.NullDecimal `json:"quantity"`
	Price    decimal.NullDecimal `json:"price"`
	Total    decimal.NullDecimal `json:"total"`
	Currency string              `json:"currency"`
	Memo     string              `json:"memo"`
}

// transaction validates the line and applies quick fixes: a missing total is
// quantity*price, a missing price is total/quantity.
func (l ledgerLine) transaction() (Transaction, error) {
	typ, err := ParseTxType(l.Command)
	if err != nil {
		return Transaction{}, err
	}
	ticker := NormalizeTicker(l.Ticker)
	if ticker == "" {
		return Transaction{}, errors.New("ticker is missing")
	}
	if l.Date.IsZero() {
		return Transaction{}, errors.New("date is missing")
	}
	if !l.Quantity.Valid {
		return Transaction{}, errors.New("quantity is missing")
	}
	qty := l.Quantity.Decimal
	price, total := l.Price, l.Total
	switch {
	case price.Valid && total.Valid:
	case price.Valid:
		total = decimal.NewNullDecimal(price.Decimal.Mul(qty))
	case total.Valid && !qty.IsZero():
		price = decimal.NewNullDecimal(total.Decimal.Div(qty))
	default:
		return Transaction{}, errors.New("price and total are missing")
	}
	return Transaction{
		Date:         l.Date,
		Ticker:       ticker,
		Type:         typ,
		Quantity:     Q(qty),
		UnitPrice:    M(price.Decimal, l.Currency),
		TotalCapital: M(total.Decimal, l.Currency),
		Memo:         l.Memo,
	}, nil
}

// DecodeLedger decodes transactions from a stream of JSONL data, one transaction per
// line, in ledger order. Empty lines are skipped.
func DecodeLedger(r io.Reader) ([]Transaction, error) {
	var txs []Transaction
	scanner := bufio.NewScanner(r)
	n := 0
	for scanner.Scan() {
		n++
		lineBytes := scanner.Bytes()
		if len(strings.TrimSpace(string(lineBytes))) == 0 {
			continue // Skip empty lines
		}
		var line ledgerLine
		if err := json.Unmarshal(lineBytes, &line); err != nil {
			return nil, fmt.Errorf("ledger line %d: %w: %v", n, ErrDataShape, err)
		}
		tx, err := line.transaction()
		if err != nil {
			return nil, fmt.Errorf("ledger line %d: %w: %v", n, ErrDataShape, err)
		}
		txs = append(txs, tx)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading ledger: %w", err)
	}
	return txs, nil
}

// EncodeTransaction writes a single transaction as a JSONL line.
func EncodeTransaction(w io.Writer, tx Transaction) error {
	var o jsonObjectWriter
	o.Append("command", tx.Type)
	o.Append("date", tx.Date)
	o.Append("ticker", tx.Ticker)
	o.Append("quantity", tx.Quantity)
	o.Append("price", tx.UnitPrice.Decimal())
	o.Append("total", tx.TotalCapital.Decimal())
	o.Optional("currency", tx.TotalCapital.Currency())
	o.Optional("memo", tx.Memo)
	b, err := o.MarshalJSON()
	if err != nil {
		return err
	}
	b = append(b, '\n')
	_, err = w.Write(b)
	return err
}

// EncodeLedger writes all transactions as JSONL.
func EncodeLedger(w io.Writer, txs []Transaction) error {
	for _, tx := range txs {
		if err := EncodeTransaction(w, tx); err != nil {
			return err
		}
	}
	return nil
}

// csvColumns maps the spreadsheet "Transactions" tab headers to ledger fields.
var csvColumns = map[string]string{
	"date":          "date",
	"ticker":        "ticker",
	"type":          "command",
	"qty":           "quantity",
	"quantity":      "quantity",
	"price":         "price",
	"total capital": "total",
	"total":         "total",
	"currency":      "currency",
	"memo":          "memo",
}

// DecodeLedgerCSV decodes transactions from a CSV export of a spreadsheet tab with
// headers "Date, Ticker, Type, Qty, Price, Total Capital".
func DecodeLedgerCSV(r io.Reader) ([]Transaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ledger header: %w: %v", ErrDataShape, err)
	}
	fields := make([]string, len(header))
	for i, h := range header {
		fields[i] = csvColumns[strings.ToLower(strings.TrimSpace(h))]
	}

	var txs []Transaction
	for n := 2; ; n++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ledger row %d: %w: %v", n, ErrDataShape, err)
		}
		line, err := csvLine(fields, record)
		if err != nil {
			return nil, fmt.Errorf("ledger row %d: %w: %v", n, ErrDataShape, err)
		}
		tx, err := line.transaction()
		if err != nil {
			return nil, fmt.Errorf("ledger row %d: %w: %v", n, ErrDataShape, err)
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

func csvLine(fields, record []string) (line ledgerLine, err error) {
	num := func(s string) (decimal.NullDecimal, error) {
		s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
		if s == "" {
			return decimal.NullDecimal{}, nil
		}
		d, err := decimal.NewFromString(s)
		return decimal.NewNullDecimal(d), err
	}
	for i, value := range record {
		if i >= len(fields) {
			break
		}
		value = strings.TrimSpace(value)
		switch fields[i] {
		case "date":
			if line.Date, err = date.Parse(value); err != nil {
				return line, err
			}
		case "ticker":
			line.Ticker = value
		case "command":
			line.Command = value
		case "quantity":
			line.Quantity, err = num(value)
		case "price":
			line.Price, err = num(value)
		case "total":
			line.Total, err = num(value)
		case "currency":
			line.Currency = value
		case "memo":
			line.Memo = value
		}
		if err != nil {
			return line, fmt.Errorf("column %d: %w", i+1, err)
		}
	}
	return line, nil
}

// NormalizeTicker trims and upper-cases a ticker.
func NormalizeTicker(s string) string { return strings.ToUpper(strings.TrimSpace(s)) }
