package interfaces

import (
	"context"

	"broker-ledger/internal/types"
)

type LedgerEngine interface {
	Compute(ctx context.Context, report types.OrderReport, botTrade bool) (types.Ledger, error)
}

type Journal interface {
	RecordLedger(ctx context.Context, entry types.JournalEntry) error
	Close() error
}

type Recorder interface {
	Record(kind string, payload any) error
}
