package domain

// ScrapeResult is the final per-run ledger: every account seen during the
// requested window mapped to its merged, filtered transactions.
type ScrapeResult struct {
	// RunID identifies one aggregation run across logs and sinks.
	RunID string `json:"runId"`

	Success bool `json:"success"`

	// Accounts maps account number to transactions, concatenated in
	// calendar-month order.
	Accounts map[string][]*Transaction `json:"accounts"`
}

func NewScrapeResult(runID string) *ScrapeResult {
	return &ScrapeResult{
		RunID:    runID,
		Success:  true,
		Accounts: map[string][]*Transaction{},
	}
}

// Append adds transactions to an account's sequence. Only the aggregator
// calls this, and only from the merge loop.
func (r *ScrapeResult) Append(account string, txns []*Transaction) {
	if len(txns) == 0 {
		return
	}
	r.Accounts[account] = append(r.Accounts[account], txns...)
}

// All flattens the ledger for sinks that index single documents.
func (r *ScrapeResult) All() []*Transaction {
	txns := []*Transaction{}
	for _, acc := range r.Accounts {
		txns = append(txns, acc...)
	}
	return txns
}
