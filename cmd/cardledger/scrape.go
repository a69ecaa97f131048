/*Scrape command: login, aggregate, write to a sink*/
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/fintlab/cardledger/pkg/dates"
	"github.com/fintlab/cardledger/pkg/provider"
	"github.com/fintlab/cardledger/pkg/store"
	"github.com/fintlab/cardledger/pkg/transport"
)

type scrapeOpts struct {
	ID                  string `required:"" help:"National id number the cards are registered to."`
	Card6               string `required:"" help:"Last six digits of one of the cards."`
	Password            string `env:"CARDLEDGER_PASSWORD" required:"" help:"Web password."`
	Start               string `help:"Earliest purchase date to fetch (DD/MM/YYYY). History is capped at one year back."`
	CombineInstallments bool   `help:"Keep installment legs as separate transactions instead of collapsing plans."`
	Out                 string `default:"jsonfile:out.json" help:"Where to write [jsonfile:/path.json sealed:/path.enc es8:http://host:9200 mongo:mongodb://host:27017]"`
	Passphrase          string `env:"CARDLEDGER_PASSPHRASE" help:"Passphrase for the sealed sink."`
}

type isracardCmd struct {
	scrapeOpts
}

func (c *isracardCmd) Run(g *globals) error {
	return runScrape(provider.Isracard(), &c.scrapeOpts, g)
}

type amexCmd struct {
	scrapeOpts
}

func (c *amexCmd) Run(g *globals) error {
	return runScrape(provider.Amex(), &c.scrapeOpts, g)
}

func newLogger(verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return zerolog.New(output).Level(level).With().Timestamp().Logger()
}

func getStore(out, passphrase string, log zerolog.Logger) (store.Store, error) {
	bits := strings.SplitN(out, ":", 2)
	if len(bits) != 2 {
		return nil, fmt.Errorf("invalid out path, expected scheme:target like [jsonfile:/path/to/file.json]")
	}

	switch bits[0] {
	case "es8":
		return store.NewElasticsearchV8(log, bits[1]), nil
	case "mongo":
		return store.NewMongo(bits[1]), nil
	case "sealed":
		if passphrase == "" {
			return nil, fmt.Errorf("the sealed sink needs --passphrase (or CARDLEDGER_PASSPHRASE)")
		}
		return store.NewSealedJSONFile(bits[1], passphrase), nil
	case "jsonfile":
		return store.NewJSONFile(bits[1]), nil
	}
	return nil, fmt.Errorf("unknown sink scheme %q", bits[0])
}

func runScrape(cfg provider.Config, opts *scrapeOpts, g *globals) error {
	log := newLogger(g.Verbose)
	ctx := context.Background()

	storage, err := getStore(opts.Out, opts.Passphrase, log)
	if err != nil {
		return err
	}

	var start time.Time
	if opts.Start != "" {
		parsed, ok := dates.ParseShortDate(opts.Start)
		if !ok {
			return fmt.Errorf("--start must look like 28/02/2021")
		}
		start = parsed
	}

	session, err := transport.NewSession(log)
	if err != nil {
		return err
	}

	p := provider.New(cfg, session, log)

	status, err := p.Login(ctx, provider.Credentials{
		ID:         opts.ID,
		CardSuffix: opts.Card6,
		Password:   opts.Password,
	})
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	switch status {
	case provider.LoginSuccess:
	case provider.LoginChangePassword:
		return fmt.Errorf("the institution requires a password change before scraping can proceed")
	case provider.LoginInvalidCredentials:
		return fmt.Errorf("the institution rejected these credentials")
	default:
		return fmt.Errorf("login failed: %s", status)
	}

	result, err := p.Transactions(ctx, provider.Options{
		StartDate:           start,
		CombineInstallments: opts.CombineInstallments,
	})
	if err != nil {
		return err
	}

	log.Info().Str("out", opts.Out).Int("accounts", len(result.Accounts)).Msg("writing ledger")
	return storage.Write(ctx, result)
}
