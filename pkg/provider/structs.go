package provider

import (
	"encoding/json"
)

// Wire shapes of the institution's proxy handler. Only the fields the
// pipeline reads are parsed.

type responseHeader struct {
	Status string `json:"Status"`
}

func (h *responseHeader) ok() bool {
	return h != nil && h.Status == headerStatusSuccess
}

type validateReply struct {
	Header             *responseHeader `json:"Header"`
	ValidateIdDataBean *validateBean   `json:"ValidateIdDataBean"`
}

type validateBean struct {
	ReturnCode string `json:"returnCode"`
	UserName   string `json:"userName"`
}

type logonReply struct {
	Status string `json:"status"`
}

type dashboardReply struct {
	Header             *responseHeader `json:"Header"`
	DashboardMonthBean *dashboardBean  `json:"DashboardMonthBean"`
}

type dashboardBean struct {
	CardsCharges []cardCharge `json:"cardsCharges"`
}

type cardCharge struct {
	CardIndex   string `json:"cardIndex"`
	CardNumber  string `json:"cardNumber"`
	BillingDate string `json:"billingDate"`
}

// transactionsReply keys card entries as "Index0", "Index1", ... inside the
// list bean, next to unrelated summary fields; a raw map lets us pick out
// just the per-card entries.
type transactionsReply struct {
	Header                    *responseHeader            `json:"Header"`
	CardsTransactionsListBean map[string]json.RawMessage `json:"CardsTransactionsListBean"`
}

type cardTransactionsEntry struct {
	CurrentCardTransactions []transactionsGroup `json:"CurrentCardTransactions"`
}

type transactionsGroup struct {
	TxnIsrael []rawTransaction `json:"txnIsrael"`
	TxnAbroad []rawTransaction `json:"txnAbroad"`
}

type rawTransaction struct {
	DealSumType               string  `json:"dealSumType"`
	VoucherNumberRatz         string  `json:"voucherNumberRatz"`
	VoucherNumberRatzOutbound string  `json:"voucherNumberRatzOutbound"`
	MoreInfo                  string  `json:"moreInfo"`
	IsOutbound                bool    `json:"isOutbound"`
	CurrencyID                string  `json:"currencyId"`
	DealSum                   float64 `json:"dealSum"`
	DealSumOutbound           float64 `json:"dealSumOutbound"`
	FullPurchaseDate          string  `json:"fullPurchaseDate"`
	FullPurchaseDateOutbound  string  `json:"fullPurchaseDateOutbound"`
	FullSupplierNameHeb       string  `json:"fullSupplierNameHeb"`
	FullSupplierNameOutbound  string  `json:"fullSupplierNameOutbound"`
	PaymentSum                float64 `json:"paymentSum"`
	PaymentSumOutbound        float64 `json:"paymentSumOutbound"`
}
