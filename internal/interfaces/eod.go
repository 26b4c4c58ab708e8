package interfaces

import (
	"time"

	"broker-ledger/internal/types"
)

type EodSummarizer interface {
	SummarizeDay(account string, t time.Time, l types.Ledger) (csvPath string, err error)
	ShouldRunNow(account string, now time.Time) (shouldRun bool, csvPath string)
}
