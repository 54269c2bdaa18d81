package backoffice

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrNotFound is returned by table lookups for unknown ids.
var ErrNotFound = errors.New("not found")

// Category groups products inside a department.
type Category struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Department is the top level of the product classification.
type Department struct {
	ID         int        `json:"id"`
	Name       string     `json:"name"`
	Categories []Category `json:"categories"`
}

// Unit is a unit of measure (piece, kg, box of 12...).
type Unit struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Abbreviation string `json:"abbreviation"`
}

// Vendor is a supplier. Balance is what the business owes the vendor,
// in the base currency.
type Vendor struct {
	ID      int             `json:"id"`
	Name    string          `json:"name"`
	Phone   string          `json:"phone"`
	Balance decimal.Decimal `json:"balance"`
}

// Location is a store or a warehouse.
type Location struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// CashDrawer is a till purchases can be paid from.
type CashDrawer struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	LocationID int    `json:"location"`
}

// Settings holds the business wide settings the purchase screens depend on.
type Settings struct {
	BusinessName      string `json:"business_name"`
	DefaultCurrencyID int    `json:"default_currency"`
}

// Tables are the reference tables loaded once at startup and passed to
// whoever needs them. They are read only once built.
type Tables struct {
	Currencies  *Currencies
	Departments []Department
	Units       []Unit
	Vendors     []Vendor
	Locations   []Location
	CashDrawers []CashDrawer
	Settings    Settings
}

// find is the shared linear lookup of the tables, they are small.
func find[T any](list []T, id int, idOf func(T) int, kind string) (T, error) {
	for _, v := range list {
		if idOf(v) == id {
			return v, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("%s %d: %w", kind, id, ErrNotFound)
}

// Vendor returns the vendor with that id.
func (t *Tables) Vendor(id int) (Vendor, error) {
	return find(t.Vendors, id, func(v Vendor) int { return v.ID }, "vendor")
}

// Unit returns the unit with that id.
func (t *Tables) Unit(id int) (Unit, error) {
	return find(t.Units, id, func(u Unit) int { return u.ID }, "unit")
}

// CashDrawer returns the cash drawer with that id.
func (t *Tables) CashDrawer(id int) (CashDrawer, error) {
	return find(t.CashDrawers, id, func(c CashDrawer) int { return c.ID }, "cash drawer")
}

// Department returns the department with that id.
func (t *Tables) Department(id int) (Department, error) {
	return find(t.Departments, id, func(d Department) int { return d.ID }, "department")
}

// DepartmentOf returns the department a category belongs to.
func (t *Tables) DepartmentOf(categoryID int) (Department, error) {
	for _, d := range t.Departments {
		for _, c := range d.Categories {
			if c.ID == categoryID {
				return d, nil
			}
		}
	}
	return Department{}, fmt.Errorf("department of category %d: %w", categoryID, ErrNotFound)
}

// Category returns the category with that id, whatever its department.
func (t *Tables) Category(id int) (Category, error) {
	d, err := t.DepartmentOf(id)
	if err != nil {
		return Category{}, err
	}
	return find(d.Categories, id, func(c Category) int { return c.ID }, "category")
}

// DefaultCurrency returns the currency a new draft starts with: the one
// from the settings if set, the base currency otherwise.
func (t *Tables) DefaultCurrency() Currency {
	if cur, err := t.Currencies.Get(t.Settings.DefaultCurrencyID); err == nil {
		return cur
	}
	return t.Currencies.Base()
}
