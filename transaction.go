package folio

import (
	"fmt"
	"strings"

	"github.com/etnz/folio/date"
)

// TxType is the kind of a ledger transaction.
type TxType string

const (
	Buy  TxType = "buy"
	Sell TxType = "sell"
)

// ParseTxType parses a transaction type, case insensitive ("Buy", "SELL", ...).
func ParseTxType(s string) (TxType, error) {
	switch t := TxType(strings.ToLower(strings.TrimSpace(s))); t {
	case Buy, Sell:
		return t, nil
	default:
		return "", fmt.Errorf("unknown transaction type %q want buy or sell", s)
	}
}

// Transaction is a single ledger row. Transactions are values, never mutated once read.
type Transaction struct {
	Date         date.Date
	Ticker       string
	Type         TxType
	Quantity     Quantity // as recorded, positive or negative
	UnitPrice    Money
	TotalCapital Money // capital committed, usually Quantity*UnitPrice
	Memo         string
}

// NewBuy creates a new Buy transaction, the total capital is quantity*price.
func NewBuy(day date.Date, ticker string, quantity Quantity, price Money) Transaction {
	return Transaction{
		Date:         day,
		Ticker:       ticker,
		Type:         Buy,
		Quantity:     quantity,
		UnitPrice:    price,
		TotalCapital: price.Mul(quantity),
	}
}

// NewSell creates a new Sell transaction, the total capital is quantity*price.
func NewSell(day date.Date, ticker string, quantity Quantity, price Money) Transaction {
	tx := NewBuy(day, ticker, quantity, price)
	tx.Type = Sell
	return tx
}

// Holding is an initial holding used to seed a new ledger.
type Holding struct {
	Ticker   string
	Quantity Quantity
	Price    Money
}

// Seed returns one Buy transaction per holding, dated 'on', in the holdings order.
func Seed(on date.Date, holdings []Holding) []Transaction {
	txs := make([]Transaction, 0, len(holdings))
	for _, h := range holdings {
		txs = append(txs, NewBuy(on, h.Ticker, h.Quantity, h.Price))
	}
	return txs
}
