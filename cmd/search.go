package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/etnz/backoffice"
	"github.com/etnz/backoffice/renderer"
	"github.com/google/subcommands"
)

// searchCmd implements the "search" command.
type searchCmd struct{}

func (*searchCmd) Name() string     { return "search" }
func (*searchCmd) Synopsis() string { return "search products in the catalog" }
func (*searchCmd) Usage() string {
	return `bo search <search term>

  Searches the catalog for products matching the term (name or barcode).
`
}

func (c *searchCmd) SetFlags(f *flag.FlagSet) {}

func (c *searchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: a search term is required.")
		return subcommands.ExitUsageError
	}
	term := strings.Join(f.Args(), " ")

	client, err := newClient()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	tables, err := client.LoadTables(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading reference tables: %s\n", backoffice.UserMessage(err))
		return subcommands.ExitFailure
	}
	products, err := client.SearchProducts(ctx, term)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error searching products: %s\n", backoffice.UserMessage(err))
		return subcommands.ExitFailure
	}

	printMarkdown(renderer.RenderProducts(renderer.NewProducts(term, products, tables)))
	return subcommands.ExitSuccess
}
