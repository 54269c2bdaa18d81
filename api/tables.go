package api

import (
	"context"

	"github.com/etnz/backoffice"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// LoadTables fetches every reference table concurrently. The first failure
// cancels the other calls.
func (c *Client) LoadTables(ctx context.Context) (*backoffice.Tables, error) {
	var (
		t          backoffice.Tables
		currencies []backoffice.Currency
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return c.getList(ctx, "/currencies/", nil, &currencies) })
	g.Go(func() error { return c.getList(ctx, "/departments/", nil, &t.Departments) })
	g.Go(func() error { return c.getList(ctx, "/units/", nil, &t.Units) })
	g.Go(func() error { return c.getList(ctx, "/vendors/", nil, &t.Vendors) })
	g.Go(func() error { return c.getList(ctx, "/locations/", nil, &t.Locations) })
	g.Go(func() error { return c.getList(ctx, "/cash-drawers/", nil, &t.CashDrawers) })
	g.Go(func() error { return c.get(ctx, "/settings/", nil, &t.Settings) })
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, "cannot load reference tables")
	}

	cs, err := backoffice.NewCurrencies(currencies...)
	if err != nil {
		return nil, errors.Wrap(err, "invalid currency table")
	}
	t.Currencies = cs
	c.log.WithFields(logrus.Fields{
		"currencies": len(currencies),
		"vendors":    len(t.Vendors),
		"units":      len(t.Units),
	}).Debug("reference tables loaded")
	return &t, nil
}

// Currencies fetches the currency table alone.
func (c *Client) Currencies(ctx context.Context) (*backoffice.Currencies, error) {
	var currencies []backoffice.Currency
	if err := c.getList(ctx, "/currencies/", nil, &currencies); err != nil {
		return nil, err
	}
	cs, err := backoffice.NewCurrencies(currencies...)
	if err != nil {
		return nil, errors.Wrap(err, "invalid currency table")
	}
	return cs, nil
}
