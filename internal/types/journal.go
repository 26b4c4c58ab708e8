package types

import "time"

// JournalEntry is one computed ledger as handed to persistence.
type JournalEntry struct {
	RunID      string
	Account    string
	BotTrade   bool
	ComputedAt time.Time
	Ledger     Ledger
}
