package domain

import (
	"encoding/json"
	"time"
)

// TransactionType marks whether a transaction is a plain purchase or one leg
// of an installment plan.
type TransactionType string

const (
	TypeNormal       TransactionType = "normal"
	TypeInstallments TransactionType = "installments"
)

// TransactionStatus of everything produced by this scraper is completed;
// pending charges come from a different institution feed.
type TransactionStatus string

const (
	StatusCompleted TransactionStatus = "completed"
)

// Installments describes one leg of a multi-payment purchase:
// leg Number out of Total.
type Installments struct {
	Number int `json:"number"`
	Total  int `json:"total"`
}

type Transaction struct {
	// Identifier is the institution voucher number, direction-selected.
	Identifier int64 `json:"identifier"`

	Provider string `json:"provider"`
	Account  string `json:"account"`

	Type TransactionType `json:"type"`

	// Date the purchase was made. The zero time means the institution sent
	// an unparseable purchase date; such records are never dropped by the
	// time-window filter.
	Date time.Time `json:"date"`

	// ProcessedDate is the billing date of the statement month the
	// transaction appeared on.
	ProcessedDate time.Time `json:"processedDate"`

	// OriginalAmount / ChargedAmount always share a sign; purchases are
	// negative. OriginalAmount is in OriginalCurrency, ChargedAmount in the
	// account currency.
	OriginalAmount   float64 `json:"originalAmount"`
	OriginalCurrency string  `json:"originalCurrency"`
	ChargedAmount    float64 `json:"chargedAmount"`

	Description string `json:"description"`
	Memo        string `json:"memo,omitempty"`

	Installments *Installments `json:"installments,omitempty"`

	Status TransactionStatus `json:"status"`
}

func (t *Transaction) JSON() ([]byte, error) {
	return json.Marshal(t)
}
