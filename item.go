package backoffice

import (
	"github.com/shopspring/decimal"
)

// Image is a product picture picked locally, to be uploaded with the purchase.
type Image struct {
	Filename string
	Content  []byte
}

// VariantData describes the single variant of a purchased product.
type VariantData struct {
	Name              string
	IsDefault         bool
	Image             *Image // only for products not yet in the catalog
	ImageURL          string // catalog image of an existing product
	Barcode           string
	CostPrice         decimal.Decimal
	CostCurrencyID    int
	SellingPrice      decimal.Decimal
	SellingCurrencyID int
}

// ProductData describes the product of a draft item. Variants always holds
// exactly one variant, flagged as default.
type ProductData struct {
	Name         string
	CategoryID   int
	BaseUnitID   int
	Description  string
	ReorderLevel decimal.Decimal
	Variants     []VariantData
}

// DraftItem is a line of the purchase draft.
//
// ID is local to the draft that created it. VariantID is the catalog variant
// purchased, or 0 when the item defines a new product. UnitCost is expressed
// in the variant cost currency, not in the draft currency.
type DraftItem struct {
	ID               int
	VariantID        int
	Product          ProductData
	Quantity         decimal.Decimal
	UnitCost         decimal.Decimal
	ExpiryDate       string
	SupplierBatchRef string
}

// IsExisting reports whether the item references a catalog variant.
func (it DraftItem) IsExisting() bool { return it.VariantID != 0 }

// Variant returns the item's single variant.
func (it DraftItem) Variant() VariantData {
	if len(it.Product.Variants) == 0 {
		return VariantData{}
	}
	return it.Product.Variants[0]
}

// CostCurrencyID is the currency UnitCost is expressed in.
func (it DraftItem) CostCurrencyID() int { return it.Variant().CostCurrencyID }

// Barcode of the item's variant.
func (it DraftItem) Barcode() string { return it.Variant().Barcode }

// ItemPatch is a partial update of a DraftItem.
//
// The merge is shallow: every non nil field replaces the whole matching
// field of the item. In particular Product replaces the nested product data
// and its variant wholesale, callers editing a variant must pass the complete
// product.
type ItemPatch struct {
	VariantID        *int
	Product          *ProductData
	Quantity         *decimal.Decimal
	UnitCost         *decimal.Decimal
	ExpiryDate       *string
	SupplierBatchRef *string
}

// Replace returns a patch replacing every field of an item with the ones of it.
func Replace(it DraftItem) ItemPatch {
	return ItemPatch{
		VariantID:        &it.VariantID,
		Product:          &it.Product,
		Quantity:         &it.Quantity,
		UnitCost:         &it.UnitCost,
		ExpiryDate:       &it.ExpiryDate,
		SupplierBatchRef: &it.SupplierBatchRef,
	}
}

func (p ItemPatch) apply(it DraftItem) DraftItem {
	if p.VariantID != nil {
		it.VariantID = *p.VariantID
	}
	if p.Product != nil {
		it.Product = *p.Product
	}
	if p.Quantity != nil {
		it.Quantity = *p.Quantity
	}
	if p.UnitCost != nil {
		it.UnitCost = *p.UnitCost
	}
	if p.ExpiryDate != nil {
		it.ExpiryDate = *p.ExpiryDate
	}
	if p.SupplierBatchRef != nil {
		it.SupplierBatchRef = *p.SupplierBatchRef
	}
	return it
}

// Product is a catalog product as returned by the product search.
type Product struct {
	ID           int             `json:"id"`
	Name         string          `json:"name"`
	CategoryID   int             `json:"category"`
	BaseUnitID   int             `json:"base_unit"`
	Description  string          `json:"description"`
	ReorderLevel decimal.Decimal `json:"reorder_level"`
	Variants     []Variant       `json:"variants"`
}

// Variant is a catalog product variant.
type Variant struct {
	ID                int             `json:"id"`
	Name              string          `json:"name"`
	IsDefault         bool            `json:"is_default"`
	Image             string          `json:"image"`
	Barcode           string          `json:"barcode"`
	CostPrice         decimal.Decimal `json:"cost_price"`
	CostCurrencyID    int             `json:"cost_currency"`
	SellingPrice      decimal.Decimal `json:"selling_price"`
	SellingCurrencyID int             `json:"selling_currency"`
}

// DefaultVariant returns the variant flagged as default, or the first one.
func (p Product) DefaultVariant() (Variant, bool) {
	for _, v := range p.Variants {
		if v.IsDefault {
			return v, true
		}
	}
	if len(p.Variants) > 0 {
		return p.Variants[0], true
	}
	return Variant{}, false
}

// Purchase is the purchase record created by the server.
type Purchase struct {
	ID          int             `json:"id"`
	Reference   string          `json:"reference"`
	VendorID    int             `json:"vendor"`
	CurrencyID  int             `json:"currency"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Notes       string          `json:"notes"`
	CreatedAt   string          `json:"created_at"`
}
