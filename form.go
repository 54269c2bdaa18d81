package backoffice

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/etnz/backoffice/date"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// BarcodeService is the part of the catalog API the form needs.
type BarcodeService interface {
	CheckBarcode(ctx context.Context, barcode string) (unique bool, err error)
	GenerateBarcode(ctx context.Context, exclude []string) (string, error)
}

// ItemFields are the raw values of the item form. Numbers are kept as typed
// text until the item is added, like any form input.
type ItemFields struct {
	Name              string `validate:"required"`
	DepartmentID      int    `validate:"gte=0"`
	CategoryID        int    `validate:"gt=0"`
	BaseUnitID        int    `validate:"gt=0"`
	Description       string
	ReorderLevel      string `validate:"omitempty,amount"`
	VariantName       string
	Barcode           string `validate:"max=64"`
	CostPrice         string `validate:"required,amount"`
	CostCurrencyID    int    `validate:"gt=0"`
	SellingPrice      string `validate:"required,amount"`
	SellingCurrencyID int    `validate:"gt=0"`
	Quantity          string `validate:"required,positive"`
	ExpiryDate        string `validate:"omitempty,date"`
	SupplierBatchRef  string `validate:"max=64"`
	Image             *Image `validate:"-"`
	ImageURL          string `validate:"-"`
}

// Field names accepted by Form.Set.
const (
	FieldName             = "name"
	FieldDepartment       = "department"
	FieldCategory         = "category"
	FieldBaseUnit         = "base_unit"
	FieldDescription      = "description"
	FieldReorderLevel     = "reorder_level"
	FieldVariantName      = "variant_name"
	FieldBarcode          = "barcode"
	FieldCostPrice        = "cost_price"
	FieldCostCurrency     = "cost_currency"
	FieldSellingPrice     = "selling_price"
	FieldSellingCurrency  = "selling_currency"
	FieldQuantity         = "quantity"
	FieldExpiryDate       = "expiry_date"
	FieldSupplierBatchRef = "supplier_batch_ref"
)

// FieldImage is the product picture, changed with Form.SetImage.
const FieldImage = "image"

// fieldNames maps the struct fields reported by the validator to form field names.
var fieldNames = map[string]string{
	"Name":              FieldName,
	"DepartmentID":      FieldDepartment,
	"CategoryID":        FieldCategory,
	"BaseUnitID":        FieldBaseUnit,
	"Description":       FieldDescription,
	"ReorderLevel":      FieldReorderLevel,
	"VariantName":       FieldVariantName,
	"Barcode":           FieldBarcode,
	"CostPrice":         FieldCostPrice,
	"CostCurrencyID":    FieldCostCurrency,
	"SellingPrice":      FieldSellingPrice,
	"SellingCurrencyID": FieldSellingCurrency,
	"Quantity":          FieldQuantity,
	"ExpiryDate":        FieldExpiryDate,
	"SupplierBatchRef":  FieldSupplierBatchRef,
}

// lockedFields cannot diverge from the catalog when purchasing an existing product.
var lockedFields = map[string]bool{
	FieldName:            true,
	FieldDepartment:      true,
	FieldCategory:        true,
	FieldBaseUnit:        true,
	FieldDescription:     true,
	FieldReorderLevel:    true,
	FieldVariantName:     true,
	FieldBarcode:         true,
	FieldSellingPrice:    true,
	FieldSellingCurrency: true,
	FieldImage:           true,
}

// FormMode tells whether the form defines a new product or purchases an existing one.
type FormMode int

const (
	NewProductMode FormMode = iota
	ExistingProductMode
)

func (m FormMode) String() string {
	if m == ExistingProductMode {
		return "existing product"
	}
	return "new product"
}

// BarcodeStatus is the state of the barcode uniqueness checks.
type BarcodeStatus struct {
	Barcode    string // barcode the status is about
	Checked    bool   // a uniqueness answer is known
	Unique     bool
	Checking   bool
	Generating bool
	Error      string
}

// newValidator returns the form schema validator, with the custom rules
// used by ItemFields.
func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("amount", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(strings.TrimSpace(fl.Field().String()))
		return err == nil && !d.IsNegative()
	})
	_ = v.RegisterValidation("positive", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(strings.TrimSpace(fl.Field().String()))
		return err == nil && d.IsPositive()
	})
	_ = v.RegisterValidation("date", func(fl validator.FieldLevel) bool {
		_, err := date.Parse(fl.Field().String())
		return err == nil
	})
	return v
}

// Form is the item entry form of the purchase screen. It turns typed fields
// into draft items, and checks barcodes against the draft and the catalog.
//
// Form is safe for concurrent use: barcode checks may complete after the
// barcode has been changed, their result is then ignored.
type Form struct {
	draft    *Draft
	tables   *Tables
	barcodes BarcodeService
	validate *validator.Validate

	mu        sync.Mutex
	fields    ItemFields
	mode      FormMode
	variantID int // catalog variant in ExistingProductMode
	editing   int // draft item loaded by EditItem, 0 when adding
	status    BarcodeStatus
	gen       uint64 // bumped on every barcode change
}

// NewForm returns an empty form feeding draft.
func NewForm(draft *Draft, tables *Tables, barcodes BarcodeService) *Form {
	f := &Form{
		draft:    draft,
		tables:   tables,
		barcodes: barcodes,
		validate: newValidator(),
	}
	f.clear(NewProductMode)
	return f
}

// clear resets every field for the given mode. Called under lock.
func (f *Form) clear(mode FormMode) {
	cur := f.tables.DefaultCurrency().ID
	f.fields = ItemFields{
		CostCurrencyID:    cur,
		SellingCurrencyID: cur,
		Quantity:          "1",
		ReorderLevel:      "0",
	}
	f.mode = mode
	f.variantID = 0
	f.editing = 0
	f.draft.ClearEditing()
	f.resetBarcodeStatus()
}

// resetBarcodeStatus forgets any barcode answer and invalidates the pending ones.
func (f *Form) resetBarcodeStatus() {
	f.gen++
	f.status = BarcodeStatus{Barcode: f.fields.Barcode}
}

// Fields returns the current field values.
func (f *Form) Fields() ItemFields {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fields
}

// Mode returns the current form mode.
func (f *Form) Mode() FormMode {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mode
}

// Locked reports whether field follows the catalog product and cannot be set.
func (f *Form) Locked(field string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mode == ExistingProductMode && lockedFields[field]
}

// Set changes a field from its text value.
func (f *Form) Set(field, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mode == ExistingProductMode && lockedFields[field] {
		return fmt.Errorf("%s: %w", field, ErrFieldLocked)
	}
	atoi := func() (int, error) {
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return 0, &ValidationError{Field: field, Reason: fmt.Sprintf("invalid id %q", value)}
		}
		return n, nil
	}
	var err error
	switch field {
	case FieldName:
		f.fields.Name = value
	case FieldDepartment:
		f.fields.DepartmentID, err = atoi()
	case FieldCategory:
		f.fields.CategoryID, err = atoi()
	case FieldBaseUnit:
		f.fields.BaseUnitID, err = atoi()
	case FieldDescription:
		f.fields.Description = value
	case FieldReorderLevel:
		f.fields.ReorderLevel = value
	case FieldVariantName:
		f.fields.VariantName = value
	case FieldBarcode:
		f.fields.Barcode = strings.TrimSpace(value)
		f.resetBarcodeStatus()
	case FieldCostPrice:
		f.fields.CostPrice = value
	case FieldCostCurrency:
		f.fields.CostCurrencyID, err = atoi()
	case FieldSellingPrice:
		f.fields.SellingPrice = value
	case FieldSellingCurrency:
		f.fields.SellingCurrencyID, err = atoi()
	case FieldQuantity:
		f.fields.Quantity = value
	case FieldExpiryDate:
		f.fields.ExpiryDate = value
	case FieldSupplierBatchRef:
		f.fields.SupplierBatchRef = value
	default:
		return &ValidationError{Field: field, Reason: "unknown field"}
	}
	return err
}

// SetImage sets the picture of a new product.
func (f *Form) SetImage(img *Image) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mode == ExistingProductMode && lockedFields[FieldImage] {
		return fmt.Errorf("%s: %w", FieldImage, ErrFieldLocked)
	}
	f.fields.Image = img
	return nil
}

// Validate checks the fields against the form schema.
func (f *Form) Validate() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.check()
}

// check validates the fields. Called under lock.
func (f *Form) check() error {
	err := f.validate.Struct(f.fields)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fe := make(FieldErrors, len(verrs))
		for _, e := range verrs {
			name, ok := fieldNames[e.StructField()]
			if !ok {
				name = e.StructField()
			}
			fe[name] = e.Tag()
		}
		return fe
	}
	if err != nil {
		return err
	}
	if _, err := f.tables.Category(f.fields.CategoryID); err != nil {
		return FieldErrors{FieldCategory: "unknown"}
	}
	if _, err := f.tables.Unit(f.fields.BaseUnitID); err != nil {
		return FieldErrors{FieldBaseUnit: "unknown"}
	}
	return nil
}

// BarcodeStatus returns the state of the barcode checks.
func (f *Form) BarcodeStatus() BarcodeStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

// CheckBarcodeUniqueness checks that barcode is not used yet.
//
// An empty barcode clears the status. A barcode already used in the draft is
// reported as not unique without asking the server. Otherwise the catalog is
// asked; its answer is recorded only if the barcode field still holds
// barcode by then. Server failures are recorded in the status, and returned.
// The item being edited does not conflict with itself.
func (f *Form) CheckBarcodeUniqueness(ctx context.Context, barcode string) error {
	barcode = strings.TrimSpace(barcode)
	f.mu.Lock()
	except := f.editing
	if f.fields.Barcode != barcode {
		f.fields.Barcode = barcode
		f.resetBarcodeStatus()
	}
	if barcode == "" {
		f.status = BarcodeStatus{}
		f.mu.Unlock()
		return nil
	}
	f.mu.Unlock()

	if f.draft.HasBarcode(barcode, except) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.fields.Barcode == barcode {
			f.status = BarcodeStatus{Barcode: barcode, Checked: true, Unique: false}
		}
		return nil
	}

	f.mu.Lock()
	f.gen++
	gen := f.gen
	f.status = BarcodeStatus{Barcode: barcode, Checking: true}
	f.mu.Unlock()

	unique, err := f.barcodes.CheckBarcode(ctx, barcode)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.gen != gen || f.fields.Barcode != barcode {
		return nil // stale answer
	}
	f.status.Checking = false
	if err != nil {
		f.status.Error = UserMessage(err)
		return err
	}
	f.status.Checked = true
	f.status.Unique = unique
	return nil
}

// GenerateBarcode asks the catalog for a new barcode, unused in the catalog
// and in the draft, and sets it in the form. The answer is dropped with
// ErrStaleAnswer if the barcode field was changed meanwhile.
func (f *Form) GenerateBarcode(ctx context.Context) (string, error) {
	f.mu.Lock()
	if f.mode == ExistingProductMode {
		f.mu.Unlock()
		return "", fmt.Errorf("%s: %w", FieldBarcode, ErrFieldLocked)
	}
	f.gen++
	gen := f.gen
	f.status.Generating = true
	f.status.Error = ""
	f.mu.Unlock()

	barcode, err := f.barcodes.GenerateBarcode(ctx, f.draft.Barcodes())

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.gen != gen {
		return "", ErrStaleAnswer
	}
	f.status.Generating = false
	if err != nil {
		f.status.Error = UserMessage(err)
		return "", err
	}
	f.fields.Barcode = barcode
	f.gen++
	f.status = BarcodeStatus{Barcode: barcode, Checked: true, Unique: true}
	return barcode, nil
}

// SelectExistingProduct fills the form from a catalog product, whose default
// variant is purchased. Fields following the catalog get locked.
func (f *Form) SelectExistingProduct(p Product) error {
	v, ok := p.DefaultVariant()
	if !ok {
		return &ValidationError{Field: "product", Reason: fmt.Sprintf("product %q has no variant", p.Name)}
	}
	dept, _ := f.tables.DepartmentOf(p.CategoryID)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.clear(ExistingProductMode)
	f.variantID = v.ID
	f.fields = ItemFields{
		Name:              p.Name,
		DepartmentID:      dept.ID,
		CategoryID:        p.CategoryID,
		BaseUnitID:        p.BaseUnitID,
		Description:       p.Description,
		ReorderLevel:      p.ReorderLevel.String(),
		VariantName:       v.Name,
		Barcode:           v.Barcode,
		CostPrice:         v.CostPrice.String(),
		CostCurrencyID:    v.CostCurrencyID,
		SellingPrice:      v.SellingPrice.String(),
		SellingCurrencyID: v.SellingCurrencyID,
		Quantity:          "1",
		ImageURL:          v.Image,
	}
	// the catalog owns this barcode.
	f.status = BarcodeStatus{Barcode: v.Barcode, Checked: true, Unique: true}
	return nil
}

// NewProduct switches the form to define a new product, from empty fields.
func (f *Form) NewProduct() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clear(NewProductMode)
}

// item builds the draft item from the fields, its barcode may be shared
// with the draft item except. Called under lock.
func (f *Form) item(except int) (DraftItem, error) {
	if err := f.check(); err != nil {
		return DraftItem{}, err
	}
	if f.mode == NewProductMode && f.fields.Barcode != "" {
		if f.draft.HasBarcode(f.fields.Barcode, except) ||
			(f.status.Barcode == f.fields.Barcode && f.status.Checked && !f.status.Unique) {
			return DraftItem{}, fmt.Errorf("%s %q: %w", FieldBarcode, f.fields.Barcode, ErrDuplicateBarcode)
		}
	}
	fl := f.fields
	dec := func(s string) decimal.Decimal {
		d, _ := decimal.NewFromString(strings.TrimSpace(s)) // validated
		return d
	}
	variantName := fl.VariantName
	if variantName == "" {
		variantName = fl.Name
	}
	cost := dec(fl.CostPrice)
	item := DraftItem{
		VariantID: f.variantID,
		Product: ProductData{
			Name:         fl.Name,
			CategoryID:   fl.CategoryID,
			BaseUnitID:   fl.BaseUnitID,
			Description:  fl.Description,
			ReorderLevel: dec(fl.ReorderLevel),
			Variants: []VariantData{{
				Name:              variantName,
				IsDefault:         true,
				Barcode:           fl.Barcode,
				CostPrice:         cost,
				CostCurrencyID:    fl.CostCurrencyID,
				SellingPrice:      dec(fl.SellingPrice),
				SellingCurrencyID: fl.SellingCurrencyID,
			}},
		},
		Quantity:         dec(fl.Quantity),
		UnitCost:         cost,
		ExpiryDate:       expiry(fl.ExpiryDate),
		SupplierBatchRef: strings.TrimSpace(fl.SupplierBatchRef),
	}
	if f.mode == NewProductMode {
		item.Product.Variants[0].Image = fl.Image
	} else {
		item.Product.Variants[0].ImageURL = fl.ImageURL
	}
	return item, nil
}

// AddItem validates the fields, adds the item to the draft and clears the
// form. A new product whose barcode is known to be taken is refused with
// ErrDuplicateBarcode. Adding ends any edition in progress: the item is
// always a new one.
func (f *Form) AddItem() (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, err := f.item(0)
	if err != nil {
		return 0, err
	}
	id, err := f.draft.AddItem(item)
	if err != nil {
		return 0, err
	}
	f.clear(NewProductMode)
	return id, nil
}

// expiry returns the expiry date in its canonical form, or "".
// s has been validated.
func expiry(s string) string {
	d, err := date.Parse(strings.TrimSpace(s))
	if err != nil {
		return ""
	}
	return d.String()
}

// EditItem loads a draft item into the form and marks it as edited.
func (f *Form) EditItem(id int) error {
	it, err := f.draft.Item(id)
	if err != nil {
		return err
	}
	dept, _ := f.tables.DepartmentOf(it.Product.CategoryID)
	v := it.Variant()

	f.mu.Lock()
	defer f.mu.Unlock()
	mode := NewProductMode
	if it.IsExisting() {
		mode = ExistingProductMode
	}
	f.clear(mode)
	if err := f.draft.SetEditingItem(id); err != nil {
		return err
	}
	f.editing = id
	f.variantID = it.VariantID
	f.fields = ItemFields{
		Name:              it.Product.Name,
		DepartmentID:      dept.ID,
		CategoryID:        it.Product.CategoryID,
		BaseUnitID:        it.Product.BaseUnitID,
		Description:       it.Product.Description,
		ReorderLevel:      it.Product.ReorderLevel.String(),
		VariantName:       v.Name,
		Barcode:           v.Barcode,
		CostPrice:         it.UnitCost.String(),
		CostCurrencyID:    v.CostCurrencyID,
		SellingPrice:      v.SellingPrice.String(),
		SellingCurrencyID: v.SellingCurrencyID,
		Quantity:          it.Quantity.String(),
		ExpiryDate:        it.ExpiryDate,
		SupplierBatchRef:  it.SupplierBatchRef,
		Image:             v.Image,
		ImageURL:          v.ImageURL,
	}
	// an item already in the draft passed the checks with this barcode.
	f.status = BarcodeStatus{Barcode: v.Barcode, Checked: v.Barcode != "", Unique: v.Barcode != ""}
	return nil
}

// UpdateItem saves the fields into the draft item being edited, and clears the form.
func (f *Form) UpdateItem() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.editing == 0 {
		return ErrNotEditing
	}
	item, err := f.item(f.editing)
	if err != nil {
		return err
	}
	if err := f.draft.UpdateItem(f.editing, Replace(item)); err != nil {
		return err
	}
	f.clear(NewProductMode)
	return nil
}

// Editing returns the draft item loaded by EditItem.
func (f *Form) Editing() (int, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.editing, f.editing != 0
}

// CancelEdit leaves the edition without saving, and clears the form.
func (f *Form) CancelEdit() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clear(NewProductMode)
}

// VendorBalance is the projection of a vendor balance after the purchase,
// in the base currency.
type VendorBalance struct {
	Vendor   Vendor
	Current  Money
	Purchase Money
	New      Money
}

// VendorBalance projects the selected vendor balance after the draft purchase.
// Nothing is changed: the real balance moves on the server once submitted.
func (f *Form) VendorBalance() (VendorBalance, error) {
	state := f.draft.State()
	if state.VendorID == 0 {
		return VendorBalance{}, &ValidationError{Field: "vendor", Reason: "no vendor selected"}
	}
	vendor, err := f.tables.Vendor(state.VendorID)
	if err != nil {
		return VendorBalance{}, err
	}
	total, err := f.draft.TotalPurchaseAmount()
	if err != nil {
		return VendorBalance{}, err
	}
	base := f.tables.Currencies.Base()
	purchase, err := f.tables.Currencies.ConvertMoney(total.Decimal(), state.CurrencyID, base.ID)
	if err != nil {
		return VendorBalance{}, err
	}
	current := M(vendor.Balance, base.Code)
	return VendorBalance{
		Vendor:   vendor,
		Current:  current,
		Purchase: purchase,
		New:      current.Add(purchase),
	}, nil
}
