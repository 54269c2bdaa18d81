package backoffice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/shopspring/decimal"
)

// Submission is a draft ready to be sent to the purchase creation endpoint.
type Submission struct {
	VendorID   int
	CurrencyID int
	Notes      string
	Items      []SubmissionItem
	Payment    PaymentMethod
}

// SubmissionItem is the wire form of a draft item.
//
// Items of an existing variant only carry the variant id, the quantity and
// the cost converted to the purchase currency. Items of a new product carry
// the product data; their picture travels as a separate multipart file.
type SubmissionItem struct {
	VariantID        int
	Product          *ProductData
	Quantity         decimal.Decimal
	UnitCost         decimal.Decimal
	ExpiryDate       string
	SupplierBatchRef string
	Image            *Image
}

// Assemble turns the draft content into a Submission.
func Assemble(state DraftState, items []DraftItem, currencies *Currencies) (*Submission, error) {
	if state.VendorID == 0 {
		return nil, &ValidationError{Field: "vendor", Reason: "select a vendor before submitting"}
	}
	if len(items) == 0 {
		return nil, &ValidationError{Field: "items", Reason: "add at least one item before submitting"}
	}
	if state.Payment == nil {
		return nil, &ValidationError{Field: "payment_method", Reason: "missing payment method"}
	}
	sub := &Submission{
		VendorID:   state.VendorID,
		CurrencyID: state.CurrencyID,
		Notes:      state.Notes,
		Payment:    state.Payment,
		Items:      make([]SubmissionItem, 0, len(items)),
	}
	for _, it := range items {
		si := SubmissionItem{
			VariantID:        it.VariantID,
			Quantity:         it.Quantity,
			UnitCost:         it.UnitCost,
			ExpiryDate:       it.ExpiryDate,
			SupplierBatchRef: it.SupplierBatchRef,
		}
		if it.IsExisting() {
			cost, err := currencies.Convert(it.UnitCost, it.CostCurrencyID(), state.CurrencyID)
			if err != nil {
				return nil, fmt.Errorf("item %d: %w", it.ID, err)
			}
			si.UnitCost = cost
		} else {
			product := it.Product
			product.Variants = make([]VariantData, len(it.Product.Variants))
			for i, v := range it.Product.Variants {
				if v.Image != nil {
					si.Image = v.Image
				}
				v.Image = nil
				product.Variants[i] = v
			}
			si.Product = &product
		}
		sub.Items = append(sub.Items, si)
	}
	return sub, nil
}

func (it SubmissionItem) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Optional("variant_id", it.VariantID)
	w.Append("quantity", it.Quantity)
	w.Append("unit_cost", it.UnitCost)
	w.Optional("expiry_date", it.ExpiryDate)
	w.Optional("supplier_batch_ref", it.SupplierBatchRef)
	if it.Product != nil {
		w.Append("product_data", productJSON(*it.Product))
	}
	return w.MarshalJSON()
}

// productJSON is the wire form of a new product.
func productJSON(p ProductData) json.Marshaler {
	var w jsonObjectWriter
	w.Append("name", p.Name)
	w.Append("category", p.CategoryID)
	w.Append("base_unit", p.BaseUnitID)
	w.Optional("description", p.Description)
	w.Append("reorder_level", p.ReorderLevel)
	variants := make([]json.Marshaler, len(p.Variants))
	for i, v := range p.Variants {
		var vw jsonObjectWriter
		vw.Append("name", v.Name)
		vw.Append("is_default", v.IsDefault)
		vw.Optional("barcode", v.Barcode)
		vw.Append("cost_price", v.CostPrice)
		vw.Append("cost_currency", v.CostCurrencyID)
		vw.Append("selling_price", v.SellingPrice)
		vw.Append("selling_currency", v.SellingCurrencyID)
		variants[i] = &vw
	}
	w.Append("variants", variants)
	return &w
}

// ImageField is the multipart field name of the picture of the i-th item.
func ImageField(i int) string { return "image_" + strconv.Itoa(i) }

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// WriteMultipart writes the submission as a multipart/form-data body and
// returns its content type.
func (s *Submission) WriteMultipart(w io.Writer) (contentType string, err error) {
	mw := multipart.NewWriter(w)

	items, err := json.Marshal(s.Items)
	if err != nil {
		return "", fmt.Errorf("cannot encode items: %w", err)
	}
	payment, err := json.Marshal(s.Payment)
	if err != nil {
		return "", fmt.Errorf("cannot encode payment method: %w", err)
	}
	fields := []struct{ name, value string }{
		{"vendor", strconv.Itoa(s.VendorID)},
		{"currency", strconv.Itoa(s.CurrencyID)},
		{"notes", s.Notes},
		{"items", string(items)},
		{"payment_method", string(payment)},
	}
	for _, f := range fields {
		if err := mw.WriteField(f.name, f.value); err != nil {
			return "", fmt.Errorf("cannot write field %q: %w", f.name, err)
		}
	}

	for i, it := range s.Items {
		if it.Image == nil || len(it.Image.Content) == 0 {
			continue
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			ImageField(i), quoteEscaper.Replace(it.Image.Filename)))
		h.Set("Content-Type", mimetype.Detect(it.Image.Content).String())
		part, err := mw.CreatePart(h)
		if err != nil {
			return "", fmt.Errorf("cannot create image part %d: %w", i, err)
		}
		if _, err := part.Write(it.Image.Content); err != nil {
			return "", fmt.Errorf("cannot write image part %d: %w", i, err)
		}
	}

	if err := mw.Close(); err != nil {
		return "", err
	}
	return mw.FormDataContentType(), nil
}

// Post encodes the submission and sends it with poster.
func (s *Submission) Post(ctx context.Context, poster PurchasePoster) (*Purchase, error) {
	var body bytes.Buffer
	contentType, err := s.WriteMultipart(&body)
	if err != nil {
		return nil, err
	}
	return poster.CreatePurchase(ctx, contentType, &body)
}
