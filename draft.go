package backoffice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"
)

// PurchasePoster sends an assembled purchase to the server.
type PurchasePoster interface {
	CreatePurchase(ctx context.Context, contentType string, body io.Reader) (*Purchase, error)
}

// Draft is the purchase being prepared, before it is submitted.
//
// All changes go through its methods. A Draft is safe for concurrent use.
// While a submission is in flight every change is refused with ErrSubmitting.
type Draft struct {
	tables *Tables

	mu         sync.Mutex
	nextID     int // last item id handed out, never reset
	vendorID   int
	currencyID int
	notes      string
	items      []DraftItem
	payment    PaymentMethod
	editing    int // id of the item being edited, 0 for none
	submitting bool
	submitErr  string
}

// DraftState is a snapshot of the draft header.
type DraftState struct {
	VendorID      int
	CurrencyID    int
	Notes         string
	Payment       PaymentMethod
	EditingItemID int
	Items         int
	Submitting    bool
	SubmitError   string
}

// DefaultPaymentMethod is the payment method of a fresh draft.
func DefaultPaymentMethod() PaymentMethod { return Loan() }

// NewDraft returns an empty draft in the tables default currency.
func NewDraft(tables *Tables) *Draft {
	d := &Draft{tables: tables}
	d.reset()
	return d
}

// reset restores the initial state, except for the id counter.
func (d *Draft) reset() {
	d.vendorID = 0
	d.currencyID = d.tables.DefaultCurrency().ID
	d.notes = ""
	d.items = nil
	d.payment = DefaultPaymentMethod()
	d.editing = 0
	d.submitting = false
	d.submitErr = ""
}

// mutate runs f under lock, unless a submission is in flight.
func (d *Draft) mutate(f func() error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.submitting {
		return ErrSubmitting
	}
	return f()
}

// State returns a snapshot of the draft header.
func (d *Draft) State() DraftState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return DraftState{
		VendorID:      d.vendorID,
		CurrencyID:    d.currencyID,
		Notes:         d.notes,
		Payment:       d.payment,
		EditingItemID: d.editing,
		Items:         len(d.items),
		Submitting:    d.submitting,
		SubmitError:   d.submitErr,
	}
}

// SetVendor selects the vendor the purchase is made from.
func (d *Draft) SetVendor(id int) error {
	if _, err := d.tables.Vendor(id); err != nil {
		return err
	}
	return d.mutate(func() error {
		d.vendorID = id
		return nil
	})
}

// SetCurrency sets the currency the purchase is settled in.
func (d *Draft) SetCurrency(id int) error {
	if _, err := d.tables.Currencies.Get(id); err != nil {
		return err
	}
	return d.mutate(func() error {
		d.currencyID = id
		return nil
	})
}

// SetNotes replaces the purchase notes.
func (d *Draft) SetNotes(notes string) error {
	return d.mutate(func() error {
		d.notes = notes
		return nil
	})
}

// SetPaymentMethod replaces the payment method.
func (d *Draft) SetPaymentMethod(p PaymentMethod) error {
	if p == nil {
		return &ValidationError{Field: "payment_method", Reason: "missing payment method"}
	}
	if drawer, currency, ok := AsCash(p); ok {
		if _, err := d.tables.CashDrawer(drawer); err != nil {
			return err
		}
		if _, err := d.tables.Currencies.Get(currency); err != nil {
			return err
		}
	}
	return d.mutate(func() error {
		d.payment = p
		return nil
	})
}

// checkItem enforces the DraftItem invariants.
func (d *Draft) checkItem(it DraftItem) error {
	if len(it.Product.Variants) != 1 || !it.Product.Variants[0].IsDefault {
		return &ValidationError{Field: "variants", Reason: "an item must have exactly one default variant"}
	}
	if !it.Quantity.IsPositive() {
		return &ValidationError{Field: "quantity", Reason: "must be positive"}
	}
	if it.UnitCost.IsNegative() {
		return &ValidationError{Field: "unit_cost", Reason: "must not be negative"}
	}
	if _, err := d.tables.Currencies.Get(it.CostCurrencyID()); err != nil {
		return err
	}
	return nil
}

// AddItem appends an item to the draft and returns its new id. The ID of
// item is ignored.
func (d *Draft) AddItem(item DraftItem) (int, error) {
	if err := d.checkItem(item); err != nil {
		return 0, err
	}
	var id int
	err := d.mutate(func() error {
		d.nextID++
		id = d.nextID
		item.ID = id
		d.items = append(d.items, cloneItem(item))
		d.submitErr = ""
		return nil
	})
	return id, err
}

// index returns the position of the item in d.items or -1.
func (d *Draft) index(id int) int {
	return slices.IndexFunc(d.items, func(it DraftItem) bool { return it.ID == id })
}

// UpdateItem merges patch into the item with that id, see ItemPatch.
func (d *Draft) UpdateItem(id int, patch ItemPatch) error {
	return d.mutate(func() error {
		i := d.index(id)
		if i < 0 {
			return fmt.Errorf("item %d: %w", id, ErrItemNotFound)
		}
		updated := patch.apply(d.items[i])
		if err := d.checkItem(updated); err != nil {
			return err
		}
		d.items[i] = cloneItem(updated)
		return nil
	})
}

// RemoveItem removes the item with that id. If it was being edited, the
// draft is no longer editing any item.
func (d *Draft) RemoveItem(id int) error {
	return d.mutate(func() error {
		i := d.index(id)
		if i < 0 {
			return fmt.Errorf("item %d: %w", id, ErrItemNotFound)
		}
		d.items = slices.Delete(d.items, i, i+1)
		if d.editing == id {
			d.editing = 0
		}
		return nil
	})
}

// Item returns a copy of the item with that id.
func (d *Draft) Item(id int) (DraftItem, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	i := d.index(id)
	if i < 0 {
		return DraftItem{}, fmt.Errorf("item %d: %w", id, ErrItemNotFound)
	}
	return cloneItem(d.items[i]), nil
}

// Items returns a copy of the items, in insertion order.
func (d *Draft) Items() []DraftItem {
	d.mu.Lock()
	defer d.mu.Unlock()
	items := make([]DraftItem, len(d.items))
	for i, it := range d.items {
		items[i] = cloneItem(it)
	}
	return items
}

// SetEditingItem marks the item with that id as the one being edited.
func (d *Draft) SetEditingItem(id int) error {
	return d.mutate(func() error {
		if d.index(id) < 0 {
			return fmt.Errorf("item %d: %w", id, ErrItemNotFound)
		}
		d.editing = id
		return nil
	})
}

// ClearEditing marks that no item is being edited.
func (d *Draft) ClearEditing() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.editing = 0
}

// EditingItem returns the id of the item being edited.
func (d *Draft) EditingItem() (int, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.editing, d.editing != 0
}

// IsEditing reports whether the item with that id is being edited.
func (d *Draft) IsEditing(id int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return id != 0 && d.editing == id
}

// Barcodes returns the barcodes used by the draft items.
func (d *Draft) Barcodes() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	var barcodes []string
	for _, it := range d.items {
		if b := it.Barcode(); b != "" {
			barcodes = append(barcodes, b)
		}
	}
	return barcodes
}

// HasBarcode reports whether an item, other than the one with id except,
// uses that barcode.
func (d *Draft) HasBarcode(barcode string, except int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.ContainsFunc(d.items, func(it DraftItem) bool {
		return it.ID != except && it.Barcode() == barcode
	})
}

// Subtotal is the sum of the items cost, converted to the draft currency.
// It is computed on each call: changing the draft currency changes the
// subtotal without touching the items.
func (d *Draft) Subtotal() (Money, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.subtotal()
}

func (d *Draft) subtotal() (Money, error) {
	cur, err := d.tables.Currencies.Get(d.currencyID)
	if err != nil {
		return Money{}, err
	}
	total := M(0, cur.Code)
	for _, it := range d.items {
		v, err := d.tables.Currencies.Convert(it.UnitCost.Mul(it.Quantity), it.CostCurrencyID(), d.currencyID)
		if err != nil {
			return Money{}, fmt.Errorf("item %d: %w", it.ID, err)
		}
		total = total.Add(M(v, cur.Code))
	}
	return total, nil
}

// TotalPurchaseAmount is the amount owed for the purchase. There is no tax or
// discount on purchases, so it equals the subtotal.
func (d *Draft) TotalPurchaseAmount() (Money, error) { return d.Subtotal() }

// ItemCount is the number of units purchased: the sum of the items quantity.
func (d *Draft) ItemCount() Quantity {
	d.mu.Lock()
	defer d.mu.Unlock()
	count := Q(0)
	for _, it := range d.items {
		count = count.Add(Q(it.Quantity))
	}
	return count
}

// Submit sends the draft to the server.
//
// A draft without vendor or items is refused without contacting the server.
// On success the draft is reset. On failure the draft is kept and the error
// message is recorded in the state, the error is returned as well.
func (d *Draft) Submit(ctx context.Context, poster PurchasePoster) (*Purchase, error) {
	d.mu.Lock()
	if d.submitting {
		d.mu.Unlock()
		return nil, ErrSubmitting
	}
	sub, err := Assemble(d.header(), d.items, d.tables.Currencies)
	if err != nil {
		d.submitErr = UserMessage(err)
		d.mu.Unlock()
		return nil, err
	}
	d.submitting = true
	d.mu.Unlock()

	purchase, err := sub.Post(ctx, poster)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.submitting = false
	if err != nil {
		d.submitErr = UserMessage(err)
		return nil, err
	}
	d.reset()
	return purchase, nil
}

// header returns the state Assemble needs. Called under lock.
func (d *Draft) header() DraftState {
	return DraftState{
		VendorID:   d.vendorID,
		CurrencyID: d.currencyID,
		Notes:      d.notes,
		Payment:    d.payment,
		Items:      len(d.items),
	}
}

// Reset drops the draft content, as after a successful submission.
func (d *Draft) Reset() error {
	return d.mutate(func() error {
		d.reset()
		return nil
	})
}

// UserMessage returns the text to show for err. It prefers the message of
// the first error in the chain that provides one (like server errors), and
// falls back to err.Error().
func UserMessage(err error) string {
	var m interface{ UserMessage() string }
	if errors.As(err, &m) {
		if msg := m.UserMessage(); msg != "" {
			return msg
		}
	}
	return err.Error()
}

// cloneItem returns a copy of it that shares no mutable memory with it.
// Decimals are immutable values and can be shared.
func cloneItem(it DraftItem) DraftItem {
	it.Product.Variants = slices.Clone(it.Product.Variants)
	for i, v := range it.Product.Variants {
		if v.Image != nil {
			img := *v.Image
			img.Content = slices.Clone(img.Content)
			it.Product.Variants[i].Image = &img
		}
	}
	return it
}
