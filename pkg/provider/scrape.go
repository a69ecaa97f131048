package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fintlab/cardledger/pkg/dates"
	"github.com/fintlab/cardledger/pkg/domain"
	"github.com/fintlab/cardledger/pkg/transport"
)

// check it meets the interface
var _ Scraper = &CardProvider{}

// CardProvider scrapes one institution of the family through one
// authenticated transport session.
type CardProvider struct {
	cfg    Config
	client transport.Client
	log    zerolog.Logger
	notify Notifier

	loggedIn bool
}

func New(cfg Config, client transport.Client, log zerolog.Logger) *CardProvider {
	p := &CardProvider{
		cfg:    cfg,
		client: client,
		log:    log.With().Str("provider", cfg.Name).Logger(),
	}
	p.notify = func(stage Progress) {
		p.log.Info().Str("stage", string(stage)).Msg("progress")
	}
	return p
}

// WithNotifier replaces the default logging notifier.
func (p *CardProvider) WithNotifier(fn Notifier) *CardProvider {
	p.notify = fn
	return p
}

// Options configure one aggregation run.
type Options struct {
	// StartDate is the earliest transaction instant wanted. History is
	// capped at one year back regardless.
	StartDate time.Time

	// CombineInstallments keeps installment legs as separate transactions
	// instead of collapsing each plan into its first leg.
	CombineInstallments bool

	// Now pins "current time" for the month sequence; zero means the wall
	// clock. Tests pass a fixed instant.
	Now time.Time
}

// AccountMonthInfo identifies one card active in one calendar month. Billing
// dates shift month to month, so these are recomputed per month and never
// cached.
type AccountMonthInfo struct {
	Index         int
	AccountNumber string
	BillingDate   time.Time
}

// Transactions fetches every month of the requested window concurrently and
// merges per-account sequences in calendar order. A failed month contributes
// nothing rather than voiding the run.
func (p *CardProvider) Transactions(ctx context.Context, opts Options) (*domain.ScrapeResult, error) {
	if !p.loggedIn {
		return nil, fmt.Errorf("not logged in")
	}

	now := opts.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	start := now.AddDate(-1, 0, 0)
	if opts.StartDate.After(start) {
		start = opts.StartDate
	}

	months := dates.Sequence(start, now)
	runID := uuid.NewString()
	log := p.log.With().Str("run", runID).Logger()
	log.Info().Time("start", start).Int("months", len(months)).Msg("fetching transactions")

	// parallel map, then merge in precomputed month order: fetches race but
	// the ledger never depends on completion order
	perMonth := make([]map[string][]*domain.Transaction, len(months))
	wg := &sync.WaitGroup{}
	for i, month := range months {
		wg.Add(1)
		go func(i int, month dates.Month) {
			defer wg.Done()
			perMonth[i] = p.fetchMonth(ctx, log, month, start, opts.CombineInstallments)
		}(i, month)
	}
	wg.Wait()

	result := domain.NewScrapeResult(runID)
	for i := range months {
		for account, txns := range perMonth[i] {
			result.Append(account, txns)
		}
	}
	for account, txns := range result.Accounts {
		result.Accounts[account] = filterOldTransactions(txns, start, opts.CombineInstallments)
	}

	log.Info().Int("accounts", len(result.Accounts)).Msg("fetch complete")
	return result, nil
}

// fetchMonth resolves the month's active accounts and normalizes their
// transactions. Every failure path degrades to an empty month.
func (p *CardProvider) fetchMonth(ctx context.Context, log zerolog.Logger, month dates.Month, start time.Time, combineInstallments bool) map[string][]*domain.Transaction {
	out := map[string][]*domain.Transaction{}

	accounts := p.resolveAccounts(ctx, log, month)
	if len(accounts) == 0 {
		// valid: card opened later or already closed
		return out
	}

	url := fmt.Sprintf(
		"%s?reqName=CardsTransactionsList&month=%02d&year=%d&requiredDate=N",
		p.cfg.ServicesURL, int(month.Month), month.Year,
	)
	reply := &transactionsReply{}
	if err := p.client.GetJSON(ctx, url, reply); err != nil {
		log.Warn().Err(err).Stringer("month", month).Msg("transactions fetch failed")
		return out
	}
	if !reply.Header.ok() || reply.CardsTransactionsListBean == nil {
		log.Warn().Stringer("month", month).Msg("transactions reply not usable")
		return out
	}

	for _, account := range accounts {
		raw, ok := reply.CardsTransactionsListBean[fmt.Sprintf("Index%d", account.Index)]
		if !ok {
			continue
		}
		entry := &cardTransactionsEntry{}
		if err := json.Unmarshal(raw, entry); err != nil {
			log.Warn().Err(err).Str("account", account.AccountNumber).Msg("card entry malformed")
			continue
		}

		txns := []*domain.Transaction{}
		for _, group := range entry.CurrentCardTransactions {
			// domestic before abroad, group order preserved
			for _, r := range group.TxnIsrael {
				if t := p.convertRecord(account.AccountNumber, r, account.BillingDate); t != nil {
					txns = append(txns, t)
				}
			}
			for _, r := range group.TxnAbroad {
				if t := p.convertRecord(account.AccountNumber, r, account.BillingDate); t != nil {
					txns = append(txns, t)
				}
			}
		}

		if !combineInstallments {
			txns = fixInstallments(txns)
		}
		out[account.AccountNumber] = filterOldTransactions(txns, start, combineInstallments)
	}
	return out
}

// resolveAccounts fetches the month's dashboard and maps each card charge to
// an AccountMonthInfo. Empty on any failure; "no accounts this month" is a
// valid answer.
func (p *CardProvider) resolveAccounts(ctx context.Context, log zerolog.Logger, month dates.Month) []AccountMonthInfo {
	url := fmt.Sprintf(
		"%s?reqName=DashboardMonth&actionCode=0&billingDate=%s&format=Json",
		p.cfg.ServicesURL, month.First().Format("2006-01-02"),
	)
	reply := &dashboardReply{}
	if err := p.client.GetJSON(ctx, url, reply); err != nil {
		log.Warn().Err(err).Stringer("month", month).Msg("dashboard fetch failed")
		return nil
	}
	if !reply.Header.ok() || reply.DashboardMonthBean == nil {
		return nil
	}

	accounts := []AccountMonthInfo{}
	for _, charge := range reply.DashboardMonthBean.CardsCharges {
		index, err := strconv.Atoi(charge.CardIndex)
		if err != nil {
			log.Warn().Str("cardIndex", charge.CardIndex).Msg("non-numeric card index")
			continue
		}
		billing, ok := dates.ParseShortDate(charge.BillingDate)
		if !ok {
			log.Warn().Str("billingDate", charge.BillingDate).Msg("unparseable billing date")
			billing = month.First()
		}
		accounts = append(accounts, AccountMonthInfo{
			Index:         index,
			AccountNumber: charge.CardNumber,
			BillingDate:   billing,
		})
	}
	return accounts
}
