package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/etnz/backoffice"
	"github.com/google/subcommands"
)

// barcodeCmd implements the "barcode" command.
type barcodeCmd struct {
	exclude string
	check   string
}

func (*barcodeCmd) Name() string     { return "barcode" }
func (*barcodeCmd) Synopsis() string { return "generate or check a product barcode" }
func (*barcodeCmd) Usage() string {
	return `bo barcode [-exclude <barcode,...>]
bo barcode -check <barcode>

  Asks the server for a barcode unused in the catalog, and not in the
  excluded list. With -check, tells whether the barcode is already in use.
`
}

func (c *barcodeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.exclude, "exclude", "", "comma separated barcodes the new one must differ from")
	f.StringVar(&c.check, "check", "", "barcode to check instead of generating one")
}

// excluded returns the barcodes of the -exclude flag.
func (c *barcodeCmd) excluded() []string {
	var list []string
	for _, b := range strings.Split(c.exclude, ",") {
		if b = strings.TrimSpace(b); b != "" {
			list = append(list, b)
		}
	}
	return list
}

func (c *barcodeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	client, err := newClient()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	if c.check != "" {
		unique, err := client.CheckBarcode(ctx, c.check)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error checking barcode: %s\n", backoffice.UserMessage(err))
			return subcommands.ExitFailure
		}
		if !unique {
			fmt.Printf("%s is already in use\n", c.check)
			return subcommands.ExitFailure
		}
		fmt.Printf("%s is available\n", c.check)
		return subcommands.ExitSuccess
	}

	barcode, err := client.GenerateBarcode(ctx, c.excluded())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating barcode: %s\n", backoffice.UserMessage(err))
		return subcommands.ExitFailure
	}
	fmt.Println(barcode)
	return subcommands.ExitSuccess
}
