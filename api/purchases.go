package api

import (
	"context"
	"io"
	"net/http"

	"github.com/etnz/backoffice"
)

// CreatePurchase posts an encoded purchase (see backoffice.Submission) and
// returns the purchase record the server created.
func (c *Client) CreatePurchase(ctx context.Context, contentType string, body io.Reader) (*backoffice.Purchase, error) {
	var p backoffice.Purchase
	if err := c.do(ctx, http.MethodPost, "/vendors/purchases/", nil, contentType, body, &p); err != nil {
		return nil, err
	}
	c.log.WithField("purchase", p.Reference).Info("purchase created")
	return &p, nil
}
