package backoffice

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
)

const (
	usdID = 1
	eurID = 2
	gbpID = 3
)

// D is a helper for test to create a decimal from a const string.
func D(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// testTables returns reference tables with USD as the base currency and EUR
// worth 1.1 USD.
func testTables(t *testing.T) *Tables {
	t.Helper()
	currencies, err := NewCurrencies(
		Currency{ID: usdID, Code: "USD", Name: "US Dollar", Rate: D("1"), IsBase: true},
		Currency{ID: eurID, Code: "EUR", Name: "Euro", Rate: D("1.1")},
		Currency{ID: gbpID, Code: "GBP", Name: "Pound Sterling", Rate: D("1.25")},
	)
	if err != nil {
		t.Fatalf("NewCurrencies() error = %v", err)
	}
	return &Tables{
		Currencies: currencies,
		Departments: []Department{
			{ID: 10, Name: "Grocery", Categories: []Category{{ID: 100, Name: "Dry goods"}, {ID: 101, Name: "Canned"}}},
			{ID: 20, Name: "Household", Categories: []Category{{ID: 200, Name: "Cleaning"}}},
		},
		Units:       []Unit{{ID: 1, Name: "Piece", Abbreviation: "pc"}, {ID: 2, Name: "Kilogram", Abbreviation: "kg"}},
		Vendors:     []Vendor{{ID: 7, Name: "Acme Wholesale", Balance: D("100")}, {ID: 8, Name: "Fresh Farms"}},
		Locations:   []Location{{ID: 1, Name: "Main store"}},
		CashDrawers: []CashDrawer{{ID: 3, Name: "Front till", LocationID: 1}},
		Settings:    Settings{BusinessName: "Corner Shop", DefaultCurrencyID: usdID},
	}
}

// newItem returns a new product item costed in the given currency.
func newItem(name, barcode string, qty, cost string, currencyID int) DraftItem {
	return DraftItem{
		Product: ProductData{
			Name:         name,
			CategoryID:   100,
			BaseUnitID:   1,
			ReorderLevel: D("5"),
			Variants: []VariantData{{
				Name:              name,
				IsDefault:         true,
				Barcode:           barcode,
				CostPrice:         D(cost),
				CostCurrencyID:    currencyID,
				SellingPrice:      D(cost).Mul(D("2")),
				SellingCurrencyID: currencyID,
			}},
		},
		Quantity: D(qty),
		UnitCost: D(cost),
	}
}

// existingItem returns an item purchasing a catalog variant.
func existingItem(variantID int, qty, cost string, currencyID int) DraftItem {
	it := newItem("Catalog product", "", qty, cost, currencyID)
	it.VariantID = variantID
	return it
}

// fakePoster records the submissions it receives.
type fakePoster struct {
	mu          sync.Mutex
	calls       int
	contentType string
	body        []byte
	err         error
	release     chan struct{} // if not nil, CreatePurchase waits for it
	started     chan struct{} // if not nil, closed when CreatePurchase starts
}

func (p *fakePoster) CreatePurchase(ctx context.Context, contentType string, body io.Reader) (*Purchase, error) {
	if p.started != nil {
		close(p.started)
	}
	if p.release != nil {
		<-p.release
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	p.contentType = contentType
	p.body = data
	if p.err != nil {
		return nil, p.err
	}
	return &Purchase{ID: 42, Reference: "PO-42"}, nil
}

// fakeBarcodes is an in memory barcode service.
type fakeBarcodes struct {
	mu        sync.Mutex
	taken     map[string]bool
	checks    []string
	exclude   []string
	generated string
	err       error
	release   chan struct{} // if not nil, calls wait for it
	started   chan struct{} // if not nil, closed when a call starts
}

// wait blocks the call until the test releases it.
func (b *fakeBarcodes) wait() {
	if b.started != nil {
		close(b.started)
	}
	if b.release != nil {
		<-b.release
	}
}

func (b *fakeBarcodes) CheckBarcode(ctx context.Context, barcode string) (bool, error) {
	b.wait()
	b.mu.Lock()
	defer b.mu.Unlock()
	b.checks = append(b.checks, barcode)
	if b.err != nil {
		return false, b.err
	}
	return !b.taken[barcode], nil
}

func (b *fakeBarcodes) GenerateBarcode(ctx context.Context, exclude []string) (string, error) {
	b.wait()
	b.mu.Lock()
	defer b.mu.Unlock()
	b.exclude = exclude
	if b.err != nil {
		return "", b.err
	}
	return b.generated, nil
}

// userError is an error carrying a user facing message, as server errors do.
type userError struct{ msg string }

func (e userError) Error() string       { return "http 400: " + e.msg }
func (e userError) UserMessage() string { return e.msg }
