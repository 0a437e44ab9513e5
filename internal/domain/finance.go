package domain

import "github.com/shopspring/decimal"

// TransactionList is one side of the finance aggregate, most recent first
type TransactionList struct {
	Total        decimal.Decimal `json:"total"`
	Trend        float64         `json:"trend"`
	Transactions []Transaction   `json:"recentTransactions"`
}

// FinanceAggregate holds money in, money out and the balance derived from them.
// Balance equals MoneyIn.Total - MoneyOut.Total after every completed mutation.
type FinanceAggregate struct {
	Balance  decimal.Decimal `json:"balance"`
	MoneyIn  TransactionList `json:"moneyIn"`
	MoneyOut TransactionList `json:"moneyOut"`
}

// Side returns the list for a direction
func (f *FinanceAggregate) Side(d Direction) *TransactionList {
	if d == DirectionIn {
		return &f.MoneyIn
	}
	return &f.MoneyOut
}

// Rebalance recomputes Balance from the two totals
func (f *FinanceAggregate) Rebalance() {
	f.Balance = f.MoneyIn.Total.Sub(f.MoneyOut.Total)
}

// IndexOf returns the position of id in the list, or -1
func (l *TransactionList) IndexOf(id int32) int {
	for i := range l.Transactions {
		if l.Transactions[i].ID == id {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of the aggregate
func (f FinanceAggregate) Clone() FinanceAggregate {
	f.MoneyIn.Transactions = cloneSlice(f.MoneyIn.Transactions)
	f.MoneyOut.Transactions = cloneSlice(f.MoneyOut.Transactions)
	return f
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}
