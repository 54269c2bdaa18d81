package api

import (
	"context"
	"net/url"

	"github.com/etnz/backoffice"
	"github.com/pkg/errors"
)

// GenerateBarcode asks the server for a barcode unused in the catalog and
// not in exclude.
func (c *Client) GenerateBarcode(ctx context.Context, exclude []string) (string, error) {
	if exclude == nil {
		exclude = []string{}
	}
	in := struct {
		ExistingBarcodes []string `json:"existingBarcodes"`
	}{exclude}
	var out struct {
		Barcode string `json:"barcode"`
	}
	if err := c.post(ctx, "/catalog/generate-barcode", in, &out); err != nil {
		return "", err
	}
	if out.Barcode == "" {
		return "", errors.New("server generated an empty barcode")
	}
	return out.Barcode, nil
}

// CheckBarcode reports whether no catalog variant uses barcode.
func (c *Client) CheckBarcode(ctx context.Context, barcode string) (bool, error) {
	in := struct {
		Barcode string `json:"barcode"`
	}{barcode}
	var out struct {
		IsUnique *bool `json:"isUnique"`
	}
	if err := c.post(ctx, "/catalog/check-barcode", in, &out); err != nil {
		return false, err
	}
	if out.IsUnique == nil {
		return false, errors.Errorf("check of barcode %q: missing isUnique in answer", barcode)
	}
	return *out.IsUnique, nil
}

// SearchProducts returns the catalog products matching term.
func (c *Client) SearchProducts(ctx context.Context, term string) ([]backoffice.Product, error) {
	var products []backoffice.Product
	if err := c.getList(ctx, "/catalog/products/search", url.Values{"q": {term}}, &products); err != nil {
		return nil, err
	}
	return products, nil
}
