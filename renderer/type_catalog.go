package renderer

import (
	"fmt"

	"github.com/etnz/backoffice"
	"github.com/shopspring/decimal"
)

// price formats an amount in the currency with that id.
func price(amount decimal.Decimal, currencyID int, tables *backoffice.Tables) string {
	c, err := tables.Currencies.Get(currencyID)
	if err != nil {
		return amount.String()
	}
	return backoffice.M(amount, c.Code).String()
}

// Products are catalog search results.
type Products struct {
	Term     string
	Products []Product
}

// Product is a catalog product, described by its default variant.
type Product struct {
	ID           int
	Name         string
	Category     string
	Barcode      string
	CostPrice    string
	SellingPrice string
	Variants     int
}

// NewProducts creates Products from search results.
func NewProducts(term string, products []backoffice.Product, tables *backoffice.Tables) *Products {
	v := &Products{Term: term}
	for _, p := range products {
		row := Product{ID: p.ID, Name: p.Name, Variants: len(p.Variants)}
		if c, err := tables.Category(p.CategoryID); err == nil {
			row.Category = c.Name
		}
		if variant, ok := p.DefaultVariant(); ok {
			row.Barcode = variant.Barcode
			row.CostPrice = price(variant.CostPrice, variant.CostCurrencyID, tables)
			row.SellingPrice = price(variant.SellingPrice, variant.SellingCurrencyID, tables)
		}
		v.Products = append(v.Products, row)
	}
	return v
}

// Purchase is a purchase recorded by the server.
type Purchase struct {
	Reference string
	Vendor    string
	Total     string
	Notes     string
	CreatedAt string
}

// NewPurchase creates a Purchase from the server record.
func NewPurchase(p *backoffice.Purchase, tables *backoffice.Tables) *Purchase {
	v := &Purchase{
		Reference: p.Reference,
		Vendor:    "unknown vendor",
		Total:     price(p.TotalAmount, p.CurrencyID, tables),
		Notes:     p.Notes,
		CreatedAt: p.CreatedAt,
	}
	if v.Reference == "" {
		v.Reference = fmt.Sprintf("#%d", p.ID)
	}
	if vendor, err := tables.Vendor(p.VendorID); err == nil {
		v.Vendor = vendor.Name
	}
	return v
}

// VendorBalance is the projection of a vendor balance after a purchase.
type VendorBalance struct {
	Vendor   string
	Current  string
	Purchase string
	New      string
}

// NewVendorBalance creates a VendorBalance.
func NewVendorBalance(b backoffice.VendorBalance) *VendorBalance {
	return &VendorBalance{
		Vendor:   b.Vendor.Name,
		Current:  b.Current.String(),
		Purchase: b.Purchase.String(),
		New:      b.New.String(),
	}
}

// Currencies is the currency table.
type Currencies struct {
	Base       string
	Currencies []Currency
}

// Currency is a line of the currency table.
type Currency struct {
	ID     int
	Code   string
	Name   string
	Rate   string
	IsBase bool
}

// NewCurrencies creates Currencies from the currency table.
func NewCurrencies(c *backoffice.Currencies) *Currencies {
	v := &Currencies{Base: c.Base().Code}
	for _, cur := range c.All() {
		v.Currencies = append(v.Currencies, Currency{
			ID:     cur.ID,
			Code:   cur.Code,
			Name:   cur.Name,
			Rate:   cur.Rate.String(),
			IsBase: cur.IsBase,
		})
	}
	return v
}
