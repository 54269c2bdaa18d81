package cmd

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/etnz/backoffice"
	"github.com/etnz/backoffice/renderer"
	"github.com/google/subcommands"
)

// Catalog is the part of the server a purchase session uses.
type Catalog interface {
	backoffice.BarcodeService
	backoffice.PurchasePoster
	SearchProducts(ctx context.Context, term string) ([]backoffice.Product, error)
}

// purchaseCmd implements the "purchase" command.
type purchaseCmd struct {
	vendor int
}

func (*purchaseCmd) Name() string     { return "purchase" }
func (*purchaseCmd) Synopsis() string { return "prepare and submit a purchase interactively" }
func (*purchaseCmd) Usage() string {
	return `bo purchase [-vendor <id>]

  Opens a purchase session: pick a vendor, add items from the catalog or
  define new products, then submit. Type "help" in the session for the list
  of commands.
`
}

func (c *purchaseCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.vendor, "vendor", 0, "vendor to purchase from")
}

func (c *purchaseCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	client, err := newClient()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	tables, err := client.LoadTables(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", backoffice.UserMessage(err))
		return subcommands.ExitFailure
	}

	s := newSession(tables, client, os.Stdout, printMarkdown)
	if c.vendor != 0 {
		s.exec(ctx, "vendor "+strconv.Itoa(c.vendor))
	}
	if err := s.run(ctx, os.Stdin); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// session is an interactive purchase session. It owns one draft and its item form.
type session struct {
	tables   *backoffice.Tables
	draft    *backoffice.Draft
	form     *backoffice.Form
	catalog  Catalog
	results  []backoffice.Product // last search
	out      io.Writer
	print    func(md string)
	readFile func(name string) ([]byte, error)
}

func newSession(tables *backoffice.Tables, catalog Catalog, out io.Writer, printMD func(string)) *session {
	draft := backoffice.NewDraft(tables)
	return &session{
		tables:   tables,
		draft:    draft,
		form:     backoffice.NewForm(draft, tables, catalog),
		catalog:  catalog,
		out:      out,
		print:    printMD,
		readFile: os.ReadFile,
	}
}

// sessionCommand is a command of the purchase session.
type sessionCommand struct {
	name  string
	usage string
	run   func(s *session, ctx context.Context, args string) error
}

var sessionCommands []sessionCommand

func init() {
	sessionCommands = []sessionCommand{
		{"vendor", "vendor [<id>]: select the vendor, or list them", (*session).vendor},
		{"currency", "currency <id|code>: set the purchase currency", (*session).currency},
		{"notes", "notes <text>: set the purchase notes", (*session).notes},
		{"pay", "pay free|loan|cash <drawer> <currency>: set the payment method", (*session).pay},
		{"search", "search <term>: search the catalog", (*session).search},
		{"pick", "pick <product id>: purchase a product of the last search", (*session).pick},
		{"new", "new: define a new product", (*session).newProduct},
		{"set", "set <field> <value>: set a field of the item form", (*session).set},
		{"image", "image <file>: set the picture of the new product", (*session).image},
		{"check", "check [<barcode>]: check the barcode is not in use", (*session).check},
		{"generate", "generate: generate a new barcode", (*session).generate},
		{"form", "form: show the item form", (*session).showForm},
		{"add", "add: add the item to the purchase", (*session).add},
		{"edit", "edit <item>: load an item in the form", (*session).edit},
		{"save", "save: save the item being edited", (*session).save},
		{"cancel", "cancel: leave the edition without saving", (*session).cancel},
		{"rm", "rm <item>: remove an item", (*session).remove},
		{"list", "list: show the purchase", (*session).list},
		{"balance", "balance: show the vendor balance after the purchase", (*session).balance},
		{"submit", "submit: send the purchase", (*session).submit},
		{"reset", "reset: drop the purchase", (*session).reset},
		{"help", "help: show this help", (*session).help},
		{"quit", "quit: leave the session, the purchase is lost", nil},
	}
}

// run reads commands from in until the end of the input or "quit".
func (s *session) run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	fmt.Fprint(s.out, "> ")
	for scanner.Scan() {
		if quit := s.exec(ctx, scanner.Text()); quit {
			return nil
		}
		fmt.Fprint(s.out, "> ")
	}
	return scanner.Err()
}

// exec runs a command line and reports whether the session is over.
// Failures are printed, they never end the session.
func (s *session) exec(ctx context.Context, line string) (quit bool) {
	name, args, _ := strings.Cut(strings.TrimSpace(line), " ")
	if name == "" {
		return false
	}
	if name == "quit" || name == "exit" {
		return true
	}
	i := slices.IndexFunc(sessionCommands, func(c sessionCommand) bool { return c.name == name })
	if i < 0 {
		fmt.Fprintf(s.out, "Unknown command %q, type help.\n", name)
		return false
	}
	if err := sessionCommands[i].run(s, ctx, strings.TrimSpace(args)); err != nil {
		s.fail(err)
	}
	return false
}

// fail prints err for the user.
func (s *session) fail(err error) {
	var fe backoffice.FieldErrors
	if errors.As(err, &fe) {
		fmt.Fprintln(s.out, "Invalid fields:")
		for _, field := range slices.Sorted(maps.Keys(fe)) {
			fmt.Fprintf(s.out, "  %s: %s\n", field, fe[field])
		}
		return
	}
	fmt.Fprintf(s.out, "Error: %s\n", backoffice.UserMessage(err))
}

// id parses an id argument.
func id(args string) (int, error) {
	n, err := strconv.Atoi(args)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid id %q", args)
	}
	return n, nil
}

func (s *session) vendor(ctx context.Context, args string) error {
	if args == "" {
		for _, v := range s.tables.Vendors {
			fmt.Fprintf(s.out, "%4d  %s\n", v.ID, v.Name)
		}
		return nil
	}
	n, err := id(args)
	if err != nil {
		return err
	}
	if err := s.draft.SetVendor(n); err != nil {
		return err
	}
	v, _ := s.tables.Vendor(n)
	fmt.Fprintf(s.out, "Purchasing from %s.\n", v.Name)
	return nil
}

func (s *session) currency(ctx context.Context, args string) error {
	cur, err := parseCurrency(s.tables.Currencies, args)
	if err != nil {
		return err
	}
	if err := s.draft.SetCurrency(cur.ID); err != nil {
		return err
	}
	subtotal, err := s.draft.Subtotal()
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Purchase in %s, subtotal %s.\n", cur.Code, subtotal)
	return nil
}

func (s *session) notes(ctx context.Context, args string) error {
	return s.draft.SetNotes(args)
}

func (s *session) pay(ctx context.Context, args string) error {
	p, err := backoffice.ParsePaymentMethod(args)
	if err != nil {
		return err
	}
	if err := s.draft.SetPaymentMethod(p); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Payment: %s.\n", renderer.PaymentString(p, s.tables))
	return nil
}

func (s *session) search(ctx context.Context, args string) error {
	if args == "" {
		return errors.New("search what?")
	}
	products, err := s.catalog.SearchProducts(ctx, args)
	if err != nil {
		return err
	}
	s.results = products
	s.print(renderer.RenderProducts(renderer.NewProducts(args, products, s.tables)))
	return nil
}

func (s *session) pick(ctx context.Context, args string) error {
	n, err := id(args)
	if err != nil {
		return err
	}
	i := slices.IndexFunc(s.results, func(p backoffice.Product) bool { return p.ID == n })
	if i < 0 {
		return fmt.Errorf("product %d is not in the last search results", n)
	}
	if err := s.form.SelectExistingProduct(s.results[i]); err != nil {
		return err
	}
	return s.showForm(ctx, "")
}

func (s *session) newProduct(ctx context.Context, args string) error {
	s.form.NewProduct()
	return s.showForm(ctx, "")
}

func (s *session) set(ctx context.Context, args string) error {
	field, value, _ := strings.Cut(args, " ")
	value = strings.TrimSpace(value)
	if err := s.form.Set(field, value); err != nil {
		return err
	}
	if field == backoffice.FieldBarcode && value != "" {
		return s.check(ctx, value)
	}
	return nil
}

func (s *session) image(ctx context.Context, args string) error {
	if args == "" {
		return errors.New("image: missing file name")
	}
	content, err := s.readFile(args)
	if err != nil {
		return err
	}
	return s.form.SetImage(&backoffice.Image{Filename: filepath.Base(args), Content: content})
}

func (s *session) check(ctx context.Context, args string) error {
	barcode := args
	if barcode == "" {
		barcode = s.form.Fields().Barcode
	}
	if err := s.form.CheckBarcodeUniqueness(ctx, barcode); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Barcode %s.\n", renderer.BarcodeString(s.form.BarcodeStatus()))
	return nil
}

func (s *session) generate(ctx context.Context, args string) error {
	barcode, err := s.form.GenerateBarcode(ctx)
	if errors.Is(err, backoffice.ErrStaleAnswer) {
		return nil // the barcode typed meanwhile wins
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Barcode set to %s.\n", barcode)
	return nil
}

func (s *session) showForm(ctx context.Context, args string) error {
	s.print(renderer.RenderForm(renderer.NewForm(s.form, s.draft, s.tables)))
	return nil
}

func (s *session) add(ctx context.Context, args string) error {
	n, err := s.form.AddItem()
	if err != nil {
		return err
	}
	subtotal, err := s.draft.Subtotal()
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Item %d added, subtotal %s.\n", n, subtotal)
	return nil
}

func (s *session) edit(ctx context.Context, args string) error {
	n, err := id(args)
	if err != nil {
		return err
	}
	if err := s.form.EditItem(n); err != nil {
		return err
	}
	return s.showForm(ctx, "")
}

func (s *session) save(ctx context.Context, args string) error {
	n, _ := s.form.Editing()
	if err := s.form.UpdateItem(); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Item %d saved.\n", n)
	return nil
}

func (s *session) cancel(ctx context.Context, args string) error {
	s.form.CancelEdit()
	return nil
}

func (s *session) remove(ctx context.Context, args string) error {
	n, err := id(args)
	if err != nil {
		return err
	}
	if err := s.draft.RemoveItem(n); err != nil {
		return err
	}
	if editing, _ := s.form.Editing(); editing == n {
		s.form.CancelEdit()
	}
	fmt.Fprintf(s.out, "Item %d removed.\n", n)
	return nil
}

func (s *session) list(ctx context.Context, args string) error {
	d, err := renderer.NewDraft(s.draft, s.tables)
	if err != nil {
		return err
	}
	s.print(renderer.RenderDraft(d))
	return nil
}

func (s *session) balance(ctx context.Context, args string) error {
	b, err := s.form.VendorBalance()
	if err != nil {
		return err
	}
	s.print(renderer.RenderVendorBalance(renderer.NewVendorBalance(b)))
	return nil
}

func (s *session) submit(ctx context.Context, args string) error {
	p, err := s.draft.Submit(ctx, s.catalog)
	if err != nil {
		return err
	}
	s.form.NewProduct()
	s.results = nil
	s.print(renderer.RenderPurchase(renderer.NewPurchase(p, s.tables)))
	return nil
}

func (s *session) reset(ctx context.Context, args string) error {
	if err := s.draft.Reset(); err != nil {
		return err
	}
	s.form.NewProduct()
	fmt.Fprintln(s.out, "Purchase dropped.")
	return nil
}

func (s *session) help(ctx context.Context, args string) error {
	for _, c := range sessionCommands {
		fmt.Fprintf(s.out, "  %s\n", c.usage)
	}
	fmt.Fprintf(s.out, "\n  Form fields: %s\n", strings.Join(formFields, ", "))
	return nil
}

var formFields = []string{
	backoffice.FieldName,
	backoffice.FieldDepartment,
	backoffice.FieldCategory,
	backoffice.FieldBaseUnit,
	backoffice.FieldDescription,
	backoffice.FieldReorderLevel,
	backoffice.FieldVariantName,
	backoffice.FieldBarcode,
	backoffice.FieldCostPrice,
	backoffice.FieldCostCurrency,
	backoffice.FieldSellingPrice,
	backoffice.FieldSellingCurrency,
	backoffice.FieldQuantity,
	backoffice.FieldExpiryDate,
	backoffice.FieldSupplierBatchRef,
}
