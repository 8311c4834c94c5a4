// Package folio values a portfolio recorded in a ledger of Buy and Sell transactions
// and measures how the daily returns of a set of tickers move together.
//
// The package holds the analytics core:
//   - AggregatePositions folds the ledger into positions at weighted average cost.
//   - Valuate prices each position with the latest quotes, computing market value
//     and unrealized gains. A position without a usable quote is kept as an
//     unresolved row instead of failing the whole valuation.
//   - Allocate groups the valued positions by sector.
//
// Collaborators (ledger, configuration, market data and result sink) are reached
// through the TransactionStore, ConfigStore, MarketDataProvider and ResultSink
// interfaces, so that the core never talks to the network. The correlation math
// lives in the correlation package, and the pipeline package wires everything into
// a single batch run used by the folio command.
package folio
