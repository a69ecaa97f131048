/*Basic command structure*/
package main

import (
	"github.com/alecthomas/kong"
)

// globals holds options shared by every command
type globals struct {
	Verbose bool `help:"Enable debug logging."`
}

// cli commands / args available
var cli struct {
	Globals globals `embed:""`

	Scrape scrapeCmd `cmd:"" help:"Scrape a card issuer's transaction history into a ledger sink."`
}

type scrapeCmd struct {
	Isracard isracardCmd `cmd:"" help:"Scrape Isracard."`
	Amex     amexCmd     `cmd:"" help:"Scrape American Express Israel."`
}

func main() {
	ctx := kong.Parse(&cli)
	err := ctx.Run(&cli.Globals)
	ctx.FatalIfErrorf(err)
}
