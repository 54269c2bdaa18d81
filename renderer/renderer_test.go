package renderer

import (
	"context"
	"io/fs"
	"regexp"
	"strings"
	"testing"

	"github.com/etnz/backoffice"
	"github.com/etnz/backoffice/date"
	"github.com/shopspring/decimal"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

func D(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func testTables(t *testing.T) *backoffice.Tables {
	t.Helper()
	currencies, err := backoffice.NewCurrencies(
		backoffice.Currency{ID: 1, Code: "USD", Name: "US Dollar", Rate: D("1"), IsBase: true},
		backoffice.Currency{ID: 2, Code: "EUR", Name: "Euro", Rate: D("1.1")},
	)
	if err != nil {
		t.Fatal(err)
	}
	return &backoffice.Tables{
		Currencies:  currencies,
		Departments: []backoffice.Department{{ID: 10, Name: "Grocery", Categories: []backoffice.Category{{ID: 100, Name: "Dry goods"}}}},
		Units:       []backoffice.Unit{{ID: 1, Name: "Piece"}},
		Vendors:     []backoffice.Vendor{{ID: 7, Name: "Acme | Wholesale", Balance: D("100")}},
		CashDrawers: []backoffice.CashDrawer{{ID: 3, Name: "Front till"}},
		Settings:    backoffice.Settings{DefaultCurrencyID: 1},
	}
}

func item(name, barcode, qty, cost string, currencyID int) backoffice.DraftItem {
	return backoffice.DraftItem{
		Product: backoffice.ProductData{
			Name: name, CategoryID: 100, BaseUnitID: 1,
			Variants: []backoffice.VariantData{{
				Name: name, IsDefault: true, Barcode: barcode,
				CostPrice: D(cost), CostCurrencyID: currencyID,
				SellingPrice: D(cost), SellingCurrencyID: currencyID,
			}},
		},
		Quantity: D(qty),
		UnitCost: D(cost),
	}
}

// tables parses markdown as GFM and returns its tables.
func tables(t *testing.T, md string) []*east.Table {
	t.Helper()
	gm := goldmark.New(goldmark.WithExtensions(extension.GFM))
	doc := gm.Parser().Parse(text.NewReader([]byte(md)))
	var found []*east.Table
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if tbl, ok := n.(*east.Table); ok && entering {
			found = append(found, tbl)
		}
		return ast.WalkContinue, nil
	})
	return found
}

// rows returns the number of body rows of a table.
func rows(tbl *east.Table) int {
	n := 0
	for c := tbl.FirstChild(); c != nil; c = c.NextSibling() {
		if _, ok := c.(*east.TableRow); ok {
			n++
		}
	}
	return n
}

func checkContains(t *testing.T, md string, want ...string) {
	t.Helper()
	for _, w := range want {
		if !strings.Contains(md, w) {
			t.Errorf("rendered markdown does not contain %q:\n%s", w, md)
		}
	}
}

var renderError = regexp.MustCompile(`error (reading|parsing|executing)`)

func TestRenderDraft(t *testing.T) {
	tbls := testTables(t)
	d := backoffice.NewDraft(tbls)
	d.SetVendor(7)
	d.SetNotes("weekly\nrestock")
	cash, _ := backoffice.Cash(3, 1)
	d.SetPaymentMethod(cash)
	d.AddItem(item("Rice 5kg", "RICE-5", "2", "10", 1))
	id, _ := d.AddItem(item("Olive oil", "", "1", "5", 2))
	d.SetEditingItem(id)

	v, err := NewDraft(d, tbls)
	if err != nil {
		t.Fatal(err)
	}
	md := RenderDraft(v)
	if renderError.MatchString(md) {
		t.Fatal(md)
	}
	checkContains(t, md,
		"# Purchase draft",
		`Acme \| Wholesale`,
		"cash from Front till in USD",
		"| Notes | weekly restock |",
		"2 (editing)",
		"RICE-5",
		"$25.50",
		"for 3 units",
	)
	found := tables(t, md)
	if len(found) != 2 {
		t.Fatalf("RenderDraft() has %d tables, want 2:\n%s", len(found), md)
	}
	if got := rows(found[1]); got != 2 {
		t.Errorf("items table has %d rows, want 2", got)
	}
}

func TestExpiry(t *testing.T) {
	old := today
	today = func() date.Date { return date.New(2026, 10, 17) }
	t.Cleanup(func() { today = old })

	tests := []struct {
		in, want string
	}{
		{"2026-10-16", "2026-10-16 (expired)"},
		{"2026-10-17", "2026-10-17 (today)"},
		{"2026-10-18", "2026-10-18 (tomorrow)"},
		{"2026-11-1", "2026-11-01 (in 15 days)"},
		{"", ""},
	}
	for _, test := range tests {
		if got := expiry(test.in); got != test.want {
			t.Errorf("expiry(%q) = %q, want %q", test.in, got, test.want)
		}
	}
}

func TestRenderEmptyDraft(t *testing.T) {
	tbls := testTables(t)
	d := backoffice.NewDraft(tbls)
	d.Submit(context.Background(), nil) // refused locally, records the error

	v, err := NewDraft(d, tbls)
	if err != nil {
		t.Fatal(err)
	}
	md := RenderDraft(v)
	checkContains(t, md, "| Vendor | none |", "| Payment | loan |", "No items yet.", "**Submission failed**: vendor:")
	if n := len(tables(t, md)); n != 1 {
		t.Errorf("RenderDraft() has %d tables, want 1:\n%s", n, md)
	}
}

func TestRenderForm(t *testing.T) {
	tbls := testTables(t)
	d := backoffice.NewDraft(tbls)
	f := backoffice.NewForm(d, tbls, nil)
	f.SelectExistingProduct(backoffice.Product{
		ID: 55, Name: "Olive oil", CategoryID: 100, BaseUnitID: 1,
		Variants: []backoffice.Variant{{ID: 551, IsDefault: true, Barcode: "OIL-551", CostPrice: D("5"), CostCurrencyID: 2, SellingPrice: D("9"), SellingCurrencyID: 1, Image: "https://cdn.example.com/oil.png"}},
	})

	md := RenderForm(NewForm(f, d, tbls))
	checkContains(t, md,
		"Item form: existing product",
		"| category (locked) | 100 (Dry goods) |",
		"| cost_currency | 2 (EUR) |",
		"| quantity | 1 |",
		"| image (locked) | https://cdn.example.com/oil.png |",
		"Barcode: OIL-551 is available",
	)
	found := tables(t, md)
	if len(found) != 1 || rows(found[0]) != 16 {
		t.Errorf("RenderForm() tables = %d, want one of 16 rows:\n%s", len(found), md)
	}
}

func TestRenderCatalog(t *testing.T) {
	tbls := testTables(t)
	products := []backoffice.Product{{
		ID: 55, Name: "Olive oil", CategoryID: 100,
		Variants: []backoffice.Variant{
			{ID: 550, Barcode: "OIL-550", CostPrice: D("6"), CostCurrencyID: 1, SellingPrice: D("9"), SellingCurrencyID: 1},
			{ID: 551, IsDefault: true, Barcode: "OIL-551", CostPrice: D("5"), CostCurrencyID: 1, SellingPrice: D("8.5"), SellingCurrencyID: 1},
		},
	}}
	md := RenderProducts(NewProducts("oil", products, tbls))
	checkContains(t, md, `matching "oil"`, "(2 variants)", "Dry goods", "OIL-551", "$5.00", "$8.50")
	if found := tables(t, md); len(found) != 1 || rows(found[0]) != 1 {
		t.Errorf("RenderProducts() tables = %v:\n%s", found, md)
	}
	checkContains(t, RenderProducts(NewProducts("nothing", nil, tbls)), "No product found.")

	md = RenderPurchase(NewPurchase(&backoffice.Purchase{ID: 12, VendorID: 7, CurrencyID: 1, TotalAmount: D("44")}, tbls))
	checkContains(t, md, "Purchase #12 recorded", "$44.00")

	md = RenderCurrencies(NewCurrencies(tbls.Currencies))
	checkContains(t, md, "one unit in USD", "**USD**", "| 2 | EUR | Euro | 1.1 |")

	b := backoffice.VendorBalance{
		Vendor:   backoffice.Vendor{Name: "Acme"},
		Current:  backoffice.M(100, "USD"),
		Purchase: backoffice.M(22, "USD"),
		New:      backoffice.M(122, "USD"),
	}
	md = RenderVendorBalance(NewVendorBalance(b))
	checkContains(t, md, "Balance of Acme", "**$122.00**")
	if len(tables(t, md)) != 1 {
		t.Errorf("RenderVendorBalance() is not a table:\n%s", md)
	}
}

func TestBarcodeString(t *testing.T) {
	tests := []struct {
		status backoffice.BarcodeStatus
		want   string
	}{
		{backoffice.BarcodeStatus{}, ""},
		{backoffice.BarcodeStatus{Barcode: "X"}, "not checked"},
		{backoffice.BarcodeStatus{Barcode: "X", Checking: true}, "checking X..."},
		{backoffice.BarcodeStatus{Generating: true}, "generating..."},
		{backoffice.BarcodeStatus{Barcode: "X", Checked: true, Unique: true}, "X is available"},
		{backoffice.BarcodeStatus{Barcode: "X", Checked: true}, "X is already in use"},
		{backoffice.BarcodeStatus{Barcode: "X", Error: "timeout"}, "check failed: timeout"},
	}
	for _, tt := range tests {
		if got := BarcodeString(tt.status); got != tt.want {
			t.Errorf("BarcodeString(%+v) = %q, want %q", tt.status, got, tt.want)
		}
	}
}

// Every embedded template must be used by a Render function.
func TestTemplatesAreUsed(t *testing.T) {
	used := map[string]bool{
		"draft.md": true, "draft_header.md": true, "draft_items.md": true,
		"form.md": true, "vendor_balance.md": true, "products.md": true,
		"purchase.md": true, "currencies.md": true,
	}
	files, err := fs.Glob(templates, "*.md")
	if err != nil {
		t.Fatal(err)
	}
	for _, f := range files {
		if !used[f] {
			t.Errorf("template %q is not rendered by any function", f)
		}
	}
	if len(files) != len(used) {
		t.Errorf("found %d templates, want %d", len(files), len(used))
	}
}
