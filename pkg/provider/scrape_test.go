package provider

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/fintlab/cardledger/pkg/dates"
)

// slowClient delays replies per URL substring, to force month fetches to
// complete out of calendar order.
type slowClient struct {
	fakeClient
	delays map[string]time.Duration
}

func (s *slowClient) GetJSON(ctx context.Context, url string, out interface{}) error {
	for key, d := range s.delays {
		if strings.Contains(url, key) {
			time.Sleep(d)
		}
	}
	return s.fakeClient.GetJSON(ctx, url, out)
}

func dashboardReplyJSON(billingDate string) string {
	return fmt.Sprintf(
		`{"Header":{"Status":"1"},"DashboardMonthBean":{"cardsCharges":[{"cardIndex":"0","cardNumber":"1234","billingDate":"%s"}]}}`,
		billingDate,
	)
}

func monthTxnsJSON(voucher, date string, sum float64) string {
	return fmt.Sprintf(`{
		"Header": {"Status": "1"},
		"CardsTransactionsListBean": {
			"Index0": {"CurrentCardTransactions": [{
				"txnIsrael": [
					{"voucherNumberRatz": "000000000", "voucherNumberRatzOutbound": "000000000"},
					{"voucherNumberRatz": "%s", "currencyId": "שקל", "dealSum": %v, "paymentSum": %v,
					 "fullPurchaseDate": "%s", "fullSupplierNameHeb": "חנות"}
				],
				"txnAbroad": []
			}]}
		}
	}`, voucher, sum, sum, date)
}

func scrapeProvider(client *slowClient) *CardProvider {
	p := New(Isracard(), client, zerolog.Nop())
	p.loggedIn = true
	return p
}

func TestTransactionsRequiresLogin(t *testing.T) {
	p := New(Isracard(), &fakeClient{}, zerolog.Nop())
	_, err := p.Transactions(context.Background(), Options{})
	assert.NotNil(t, err)
}

func TestTransactionsMergesInMonthOrder(t *testing.T) {
	now := time.Date(2021, 3, 15, 0, 0, 0, 0, time.UTC)

	client := &slowClient{
		fakeClient: fakeClient{replies: map[string]string{
			"reqName=DashboardMonth&actionCode=0&billingDate=2021-01-01": dashboardReplyJSON("02/01/2021"),
			"reqName=DashboardMonth&actionCode=0&billingDate=2021-02-01": dashboardReplyJSON("02/02/2021"),
			"reqName=DashboardMonth&actionCode=0&billingDate=2021-03-01": dashboardReplyJSON("02/03/2021"),
			"reqName=CardsTransactionsList&month=01&year=2021":           monthTxnsJSON("000000001", "10/01/2021", 10),
			"reqName=CardsTransactionsList&month=02&year=2021":           monthTxnsJSON("000000002", "10/02/2021", 20),
			"reqName=CardsTransactionsList&month=03&year=2021":           monthTxnsJSON("000000003", "10/03/2021", 30),
		}},
		// January finishes last, March first
		delays: map[string]time.Duration{
			"month=01": 60 * time.Millisecond,
			"month=02": 30 * time.Millisecond,
		},
	}

	result, err := scrapeProvider(client).Transactions(context.Background(), Options{
		StartDate: time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
		Now:       now,
	})
	assert.Nil(t, err)
	assert.True(t, result.Success)
	assert.NotEmpty(t, result.RunID)

	txns := result.Accounts["1234"]
	assert.Len(t, txns, 3)
	assert.Equal(t, []int64{1, 2, 3}, []int64{txns[0].Identifier, txns[1].Identifier, txns[2].Identifier})
}

func TestTransactionsNormalizesEndToEnd(t *testing.T) {
	// fixture months each carry a sentinel placeholder plus one real
	// purchase; only the purchase may surface
	now := time.Date(2021, 1, 20, 0, 0, 0, 0, time.UTC)

	client := &slowClient{fakeClient: fakeClient{replies: map[string]string{
		"reqName=DashboardMonth&actionCode=0&billingDate=2021-01-01": dashboardReplyJSON("02/01/2021"),
		"reqName=CardsTransactionsList&month=01&year=2021":           monthTxnsJSON("000000777", "10/01/2021", 100),
	}}}

	result, err := scrapeProvider(client).Transactions(context.Background(), Options{
		StartDate: time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
		Now:       now,
	})
	assert.Nil(t, err)

	txns := result.Accounts["1234"]
	assert.Len(t, txns, 1)
	assert.Equal(t, int64(777), txns[0].Identifier)
	assert.Equal(t, -100.0, txns[0].OriginalAmount)
	assert.Equal(t, "ILS", txns[0].OriginalCurrency)
	assert.Equal(t, time.Date(2021, 1, 2, 0, 0, 0, 0, time.UTC), txns[0].ProcessedDate)
}

func TestTransactionsBadMonthDegradesToEmpty(t *testing.T) {
	now := time.Date(2021, 2, 20, 0, 0, 0, 0, time.UTC)

	client := &slowClient{fakeClient: fakeClient{replies: map[string]string{
		// January dashboard resolves but its transaction fetch errors;
		// February works end to end
		"reqName=DashboardMonth&actionCode=0&billingDate=2021-01-01": dashboardReplyJSON("02/01/2021"),
		"reqName=DashboardMonth&actionCode=0&billingDate=2021-02-01": dashboardReplyJSON("02/02/2021"),
		"reqName=CardsTransactionsList&month=02&year=2021":           monthTxnsJSON("000000002", "10/02/2021", 20),
	}}}

	result, err := scrapeProvider(client).Transactions(context.Background(), Options{
		StartDate: time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
		Now:       now,
	})
	assert.Nil(t, err)
	assert.Len(t, result.Accounts["1234"], 1)
	assert.Equal(t, int64(2), result.Accounts["1234"][0].Identifier)
}

func TestTransactionsCapsLookbackAtOneYear(t *testing.T) {
	now := time.Date(2021, 3, 15, 0, 0, 0, 0, time.UTC)

	// no replies at all: every month degrades to empty, but the run itself
	// still succeeds with an empty ledger
	client := &slowClient{fakeClient: fakeClient{replies: map[string]string{}}}
	p := scrapeProvider(client)

	result, err := p.Transactions(context.Background(), Options{
		StartDate: now.AddDate(-5, 0, 0),
		Now:       now,
	})
	assert.Nil(t, err)
	assert.Empty(t, result.Accounts)

	// five years were requested but only thirteen months (Mar 2020 through
	// Mar 2021) may be attempted
	assert.Len(t, client.gets, 13)
}

func TestTransactionsSkipsAccountsWithoutEntry(t *testing.T) {
	now := time.Date(2021, 1, 20, 0, 0, 0, 0, time.UTC)

	client := &slowClient{fakeClient: fakeClient{replies: map[string]string{
		"reqName=DashboardMonth&actionCode=0&billingDate=2021-01-01": `{"Header":{"Status":"1"},"DashboardMonthBean":{"cardsCharges":[
			{"cardIndex":"0","cardNumber":"1234","billingDate":"02/01/2021"},
			{"cardIndex":"5","cardNumber":"9999","billingDate":"02/01/2021"}
		]}}`,
		"reqName=CardsTransactionsList&month=01&year=2021": monthTxnsJSON("000000001", "10/01/2021", 10),
	}}}

	result, err := scrapeProvider(client).Transactions(context.Background(), Options{
		StartDate: time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
		Now:       now,
	})
	assert.Nil(t, err)
	assert.Len(t, result.Accounts["1234"], 1)
	_, ok := result.Accounts["9999"]
	assert.False(t, ok)
}

func TestResolveAccountsEmptyOnHeaderFailure(t *testing.T) {
	client := &slowClient{fakeClient: fakeClient{replies: map[string]string{
		"reqName=DashboardMonth&actionCode=0&billingDate=2021-01-01": `{"Header":{"Status":"9"},"DashboardMonthBean":{"cardsCharges":[{"cardIndex":"0","cardNumber":"1234","billingDate":"02/01/2021"}]}}`,
	}}}
	p := scrapeProvider(client)

	accounts := p.resolveAccounts(context.Background(), zerolog.Nop(), dates.Month{Year: 2021, Month: time.January})
	assert.Empty(t, accounts)
}
