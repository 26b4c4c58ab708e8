package pnl

import (
	"context"
	"encoding/json"
	"fmt"

	"broker-ledger/internal/interfaces"
	"broker-ledger/internal/types"
)

// Engine binds a Config so callers only choose the brokerage tier. It holds
// no mutable state and is safe to share across goroutines.
type Engine struct {
	cfg Config
}

var _ interfaces.LedgerEngine = (*Engine)(nil)

func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

func (e *Engine) Compute(_ context.Context, report types.OrderReport, botTrade bool) (types.Ledger, error) {
	return ComputeReport(report, botTrade, e.cfg)
}

// DecodeReport parses a raw order report payload. Bytes that are not a JSON
// object, or whose data field is not a list of records, fail with
// ErrStructural.
func DecodeReport(b []byte) (types.OrderReport, error) {
	var rep types.OrderReport
	if err := json.Unmarshal(b, &rep); err != nil {
		return types.OrderReport{}, fmt.Errorf("%w: %w", ErrStructural, err)
	}
	return rep, nil
}
