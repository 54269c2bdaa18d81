package renderer

import (
	"fmt"

	"github.com/etnz/backoffice"
	"github.com/etnz/backoffice/date"
)

// today is the reference day of expiry countdowns.
var today = date.Today

// expiry describes an expiry date relative to today.
func expiry(s string) string {
	d, err := date.Parse(s)
	if err != nil {
		return s
	}
	switch n := today().DaysUntil(d); {
	case n < 0:
		return fmt.Sprintf("%s (expired)", d)
	case n == 0:
		return fmt.Sprintf("%s (today)", d)
	case n == 1:
		return fmt.Sprintf("%s (tomorrow)", d)
	default:
		return fmt.Sprintf("%s (in %d days)", d, n)
	}
}

// Draft is the purchase draft, with ids resolved to names and amounts
// formatted in their currency.
type Draft struct {
	Vendor      string
	Currency    string
	Payment     string
	Notes       string
	Items       []DraftItem
	Subtotal    string
	ItemCount   string
	Submitting  bool
	SubmitError string
}

// DraftItem is a line of the draft.
type DraftItem struct {
	ID         int
	Editing    bool
	Name       string
	Existing   bool
	Barcode    string
	Quantity   string
	UnitCost   string // in the item cost currency
	Total      string // in the item cost currency
	ExpiryDate string
}

// NewDraft creates a new Draft from the draft store.
func NewDraft(d *backoffice.Draft, tables *backoffice.Tables) (*Draft, error) {
	state := d.State()
	cur, err := tables.Currencies.Get(state.CurrencyID)
	if err != nil {
		return nil, err
	}
	subtotal, err := d.Subtotal()
	if err != nil {
		return nil, err
	}
	v := &Draft{
		Vendor:      "none",
		Currency:    fmt.Sprintf("%s (%s)", cur.Code, cur.Name),
		Payment:     PaymentString(state.Payment, tables),
		Notes:       state.Notes,
		Subtotal:    subtotal.String(),
		ItemCount:   d.ItemCount().String(),
		Submitting:  state.Submitting,
		SubmitError: state.SubmitError,
	}
	if vendor, err := tables.Vendor(state.VendorID); err == nil {
		v.Vendor = vendor.Name
	}
	for _, it := range d.Items() {
		v.Items = append(v.Items, DraftItem{
			ID:         it.ID,
			Editing:    it.ID == state.EditingItemID,
			Name:       it.Product.Name,
			Existing:   it.IsExisting(),
			Barcode:    it.Barcode(),
			Quantity:   it.Quantity.String(),
			UnitCost:   price(it.UnitCost, it.CostCurrencyID(), tables),
			Total:      price(it.UnitCost.Mul(it.Quantity), it.CostCurrencyID(), tables),
			ExpiryDate: expiry(it.ExpiryDate),
		})
	}
	return v, nil
}

// PaymentString describes a payment method with names from the tables.
func PaymentString(p backoffice.PaymentMethod, tables *backoffice.Tables) string {
	if p == nil {
		return "none"
	}
	drawerID, currencyID, ok := backoffice.AsCash(p)
	if !ok {
		return p.Method()
	}
	drawer := fmt.Sprintf("#%d", drawerID)
	if d, err := tables.CashDrawer(drawerID); err == nil {
		drawer = d.Name
	}
	currency := fmt.Sprintf("#%d", currencyID)
	if c, err := tables.Currencies.Get(currencyID); err == nil {
		currency = c.Code
	}
	return fmt.Sprintf("cash from %s in %s", drawer, currency)
}

// Form is the item form.
type Form struct {
	Mode    string
	Editing int
	Fields  []FormField
	Barcode string // barcode check status
}

// FormField is one line of the form.
type FormField struct {
	Name   string
	Value  string
	Locked bool
}

// NewForm creates a new Form from the form controller.
func NewForm(f *backoffice.Form, d *backoffice.Draft, tables *backoffice.Tables) *Form {
	fl := f.Fields()
	id := func(n int, name func(int) (string, bool)) string {
		if n == 0 {
			return ""
		}
		if s, ok := name(n); ok {
			return fmt.Sprintf("%d (%s)", n, s)
		}
		return fmt.Sprintf("%d (unknown)", n)
	}
	department := func(n int) (string, bool) {
		dept, err := tables.Department(n)
		return dept.Name, err == nil
	}
	category := func(n int) (string, bool) {
		c, err := tables.Category(n)
		return c.Name, err == nil
	}
	unit := func(n int) (string, bool) {
		u, err := tables.Unit(n)
		return u.Name, err == nil
	}
	currency := func(n int) (string, bool) {
		c, err := tables.Currencies.Get(n)
		return c.Code, err == nil
	}
	image := ""
	switch {
	case fl.Image != nil:
		image = fl.Image.Filename
	case fl.ImageURL != "":
		image = fl.ImageURL
	}

	v := &Form{Mode: f.Mode().String(), Barcode: BarcodeString(f.BarcodeStatus())}
	v.Editing, _ = d.EditingItem()
	for _, field := range []struct{ name, value string }{
		{backoffice.FieldName, fl.Name},
		{backoffice.FieldDepartment, id(fl.DepartmentID, department)},
		{backoffice.FieldCategory, id(fl.CategoryID, category)},
		{backoffice.FieldBaseUnit, id(fl.BaseUnitID, unit)},
		{backoffice.FieldDescription, fl.Description},
		{backoffice.FieldReorderLevel, fl.ReorderLevel},
		{backoffice.FieldVariantName, fl.VariantName},
		{backoffice.FieldBarcode, fl.Barcode},
		{backoffice.FieldCostPrice, fl.CostPrice},
		{backoffice.FieldCostCurrency, id(fl.CostCurrencyID, currency)},
		{backoffice.FieldSellingPrice, fl.SellingPrice},
		{backoffice.FieldSellingCurrency, id(fl.SellingCurrencyID, currency)},
		{backoffice.FieldQuantity, fl.Quantity},
		{backoffice.FieldExpiryDate, fl.ExpiryDate},
		{backoffice.FieldSupplierBatchRef, fl.SupplierBatchRef},
		{backoffice.FieldImage, image},
	} {
		v.Fields = append(v.Fields, FormField{Name: field.name, Value: field.value, Locked: f.Locked(field.name)})
	}
	return v
}

// BarcodeString describes the state of the barcode checks.
func BarcodeString(s backoffice.BarcodeStatus) string {
	switch {
	case s.Generating:
		return "generating..."
	case s.Checking:
		return fmt.Sprintf("checking %s...", s.Barcode)
	case s.Error != "":
		return "check failed: " + s.Error
	case s.Checked && s.Unique:
		return fmt.Sprintf("%s is available", s.Barcode)
	case s.Checked:
		return fmt.Sprintf("%s is already in use", s.Barcode)
	case s.Barcode != "":
		return "not checked"
	}
	return ""
}
