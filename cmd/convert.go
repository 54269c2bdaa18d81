package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/backoffice"
	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
)

// convertCmd implements the "convert" command.
type convertCmd struct{}

func (*convertCmd) Name() string     { return "convert" }
func (*convertCmd) Synopsis() string { return "convert an amount between currencies" }
func (*convertCmd) Usage() string {
	return `bo convert <amount> <from> <to>

  Converts an amount with the server exchange rates. Currencies are given
  by code (EUR) or id.
`
}

func (c *convertCmd) SetFlags(f *flag.FlagSet) {}

// convert parses the arguments and converts the amount.
func convert(currencies *backoffice.Currencies, amount, from, to string) (in, out backoffice.Money, err error) {
	value, err := decimal.NewFromString(amount)
	if err != nil {
		return in, out, fmt.Errorf("invalid amount %q", amount)
	}
	src, err := parseCurrency(currencies, from)
	if err != nil {
		return in, out, err
	}
	dst, err := parseCurrency(currencies, to)
	if err != nil {
		return in, out, err
	}
	out, err = currencies.ConvertMoney(value, src.ID, dst.ID)
	return backoffice.M(value, src.Code), out, err
}

func (c *convertCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 3 {
		fmt.Fprintln(os.Stderr, "Error: want <amount> <from> <to>.")
		return subcommands.ExitUsageError
	}
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
	in, out, err := convert(currencies, f.Arg(0), f.Arg(1), f.Arg(2))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("%s = %s\n", in, out)
	return subcommands.ExitSuccess
}
