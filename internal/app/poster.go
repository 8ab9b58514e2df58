// internal/app/poster.go
package app

import (
	"context"
	"fmt"

	"recurring_ledger/internal/domain/ledger"
)

// poster books an entry on one side of the ledger. It is chosen once per rule.
type poster interface {
	kind() ledger.Kind
	post(ctx context.Context, store ledger.Store, e *ledger.Entry) (string, error)
}

type expensePoster struct{}

func (expensePoster) kind() ledger.Kind { return ledger.KindExpense }

func (expensePoster) post(ctx context.Context, store ledger.Store, e *ledger.Entry) (string, error) {
	e.Kind = ledger.KindExpense
	return store.CreateEntry(ctx, ledger.KindExpense, e)
}

type incomePoster struct{}

func (incomePoster) kind() ledger.Kind { return ledger.KindIncome }

func (incomePoster) post(ctx context.Context, store ledger.Store, e *ledger.Entry) (string, error) {
	e.Kind = ledger.KindIncome
	return store.CreateEntry(ctx, ledger.KindIncome, e)
}

func posterFor(kind ledger.Kind) (poster, error) {
	switch kind {
	case ledger.KindExpense:
		return expensePoster{}, nil
	case ledger.KindIncome:
		return incomePoster{}, nil
	default:
		return nil, fmt.Errorf("no poster for ledger kind %q", kind)
	}
}
