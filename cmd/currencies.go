package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/backoffice"
	"github.com/etnz/backoffice/renderer"
	"github.com/google/subcommands"
)

// currenciesCmd implements the "currencies" command.
type currenciesCmd struct{}

func (*currenciesCmd) Name() string     { return "currencies" }
func (*currenciesCmd) Synopsis() string { return "show the currency table" }
func (*currenciesCmd) Usage() string {
	return `bo currencies

  Shows the currencies and their exchange rate to the base currency.
`
}

func (c *currenciesCmd) SetFlags(f *flag.FlagSet) {}

func (c *currenciesCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	client, err := newClient()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	currencies, err := client.Currencies(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading currencies: %s\n", backoffice.UserMessage(err))
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.RenderCurrencies(renderer.NewCurrencies(currencies)))
	return subcommands.ExitSuccess
}
