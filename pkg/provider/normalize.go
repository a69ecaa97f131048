package provider

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/fintlab/cardledger/pkg/dates"
	"github.com/fintlab/cardledger/pkg/domain"
)

const (
	shekelCurrency        = "ILS"
	shekelCurrencyKeyword = "שקל"
	altShekelCurrency     = "NIS"

	installmentsKeyword = "תשלום"

	// sentinel values the institution uses for records that are not (yet)
	// real charges
	emptyVoucherNumber    = "000000000"
	nonChargeableDealType = "1"
	headerStatusSuccess   = "1"
)

var digitRuns = regexp.MustCompile(`\d+`)

// ConvertCurrency maps the institution's shekel spellings to ILS. Unknown
// codes pass through verbatim so a new currency never breaks the pipeline.
func ConvertCurrency(code string) string {
	switch code {
	case shekelCurrencyKeyword, altShekelCurrency:
		return shekelCurrency
	}
	return code
}

// getInstallmentsInfo extracts {leg number, total legs} from a memo like
// "תשלום 3 מתוך 12". A memo without the keyword, or with fewer than two
// integers, means a plain purchase.
func getInstallmentsInfo(memo string) *domain.Installments {
	if memo == "" || !strings.Contains(memo, installmentsKeyword) {
		return nil
	}
	matches := digitRuns.FindAllString(memo, 2)
	if len(matches) < 2 {
		return nil
	}

	number, err := strconv.Atoi(matches[0])
	if err != nil {
		return nil
	}
	total, err := strconv.Atoi(matches[1])
	if err != nil {
		return nil
	}
	return &domain.Installments{Number: number, Total: total}
}

// convertRecord turns one raw wire record into a canonical transaction, or
// nil when the record is a placeholder the institution reports but never
// charges.
func (p *CardProvider) convertRecord(account string, raw rawTransaction, processed time.Time) *domain.Transaction {
	if raw.DealSumType == nonChargeableDealType {
		return nil
	}
	if raw.VoucherNumberRatz == emptyVoucherNumber && raw.VoucherNumberRatzOutbound == emptyVoucherNumber {
		return nil
	}

	voucher := raw.VoucherNumberRatz
	dateStr := raw.FullPurchaseDate
	supplier := raw.FullSupplierNameHeb
	dealSum := raw.DealSum
	paymentSum := raw.PaymentSum
	if raw.IsOutbound {
		voucher = raw.VoucherNumberRatzOutbound
		dateStr = raw.FullPurchaseDateOutbound
		supplier = raw.FullSupplierNameOutbound
		dealSum = raw.DealSumOutbound
		paymentSum = raw.PaymentSumOutbound
	}

	identifier, err := strconv.ParseInt(voucher, 10, 64)
	if err != nil {
		p.log.Warn().Str("voucher", voucher).Str("account", account).Msg("non-numeric voucher number")
	}

	date, ok := dates.ParseShortDate(dateStr)
	if !ok {
		// zero date flows through; the window filter never drops it
		p.log.Warn().Str("date", dateStr).Str("account", account).Msg("unparseable purchase date")
	}

	txn := &domain.Transaction{
		Identifier:       identifier,
		Provider:         p.cfg.Name,
		Account:          account,
		Type:             domain.TypeNormal,
		Date:             date,
		ProcessedDate:    processed,
		OriginalAmount:   -dealSum,
		OriginalCurrency: ConvertCurrency(raw.CurrencyID),
		ChargedAmount:    -paymentSum,
		Description:      supplier,
		Memo:             raw.MoreInfo,
		Status:           domain.StatusCompleted,
	}

	if info := getInstallmentsInfo(raw.MoreInfo); info != nil {
		txn.Type = domain.TypeInstallments
		txn.Installments = info
	}

	return txn
}
