package backoffice

import (
	"errors"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"
)

// ErrCurrencyNotFound is returned when a currency id is not part of the currency table.
var ErrCurrencyNotFound = errors.New("currency not found")

// Currency is an entry of the currency table.
//
// Rate is the value of one unit of this currency expressed in the base
// currency. The base currency has a rate of exactly 1.
type Currency struct {
	ID     int             `json:"id"`
	Code   string          `json:"code"`
	Name   string          `json:"name"`
	Symbol string          `json:"symbol"`
	Rate   decimal.Decimal `json:"exchange_rate"`
	IsBase bool            `json:"is_base_currency"`
}

// Currencies is the read-mostly currency table, loaded once at startup.
type Currencies struct {
	list []Currency
	byID map[int]int // id -> index in list
	base int         // base currency id, valid once the table is built
}

// NewCurrencies builds the table. Exactly one currency must be flagged as
// base, and carry a rate of 1; every rate must be positive.
func NewCurrencies(currencies ...Currency) (*Currencies, error) {
	if len(currencies) == 0 {
		return nil, errors.New("invalid currency table: empty")
	}
	c := &Currencies{byID: make(map[int]int, len(currencies))}
	var errs []error
	hasBase := false
	for _, cur := range currencies {
		if _, exists := c.byID[cur.ID]; exists {
			errs = append(errs, fmt.Errorf("duplicate currency id %d", cur.ID))
			continue
		}
		if !cur.Rate.IsPositive() {
			errs = append(errs, fmt.Errorf("currency %s: rate must be positive, got %v", cur.Code, cur.Rate))
		}
		if cur.IsBase {
			if hasBase {
				errs = append(errs, fmt.Errorf("currency %s: base currency already set to id %d", cur.Code, c.base))
			}
			if !cur.Rate.Equal(decimal.NewFromInt(1)) {
				errs = append(errs, fmt.Errorf("base currency %s must have a rate of 1, got %v", cur.Code, cur.Rate))
			}
			c.base, hasBase = cur.ID, true
		}
		c.byID[cur.ID] = len(c.list)
		c.list = append(c.list, cur)
	}
	if !hasBase {
		errs = append(errs, errors.New("no base currency in table"))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("invalid currency table: %w", err)
	}
	return c, nil
}

// Get returns the currency with that id.
func (c *Currencies) Get(id int) (Currency, error) {
	i, ok := c.byID[id]
	if !ok {
		return Currency{}, fmt.Errorf("currency id %d: %w", id, ErrCurrencyNotFound)
	}
	return c.list[i], nil
}

// ByCode returns the currency with that ISO code.
func (c *Currencies) ByCode(code string) (Currency, error) {
	i := slices.IndexFunc(c.list, func(cur Currency) bool { return cur.Code == code })
	if i < 0 {
		return Currency{}, fmt.Errorf("currency %q: %w", code, ErrCurrencyNotFound)
	}
	return c.list[i], nil
}

// Base returns the base currency.
func (c *Currencies) Base() Currency {
	cur, _ := c.Get(c.base)
	return cur
}

// All returns the currencies in table order.
func (c *Currencies) All() []Currency { return slices.Clone(c.list) }

// Convert converts amount from one currency to another.
//
// The conversion always pivots through the base currency, so that converting
// along any path gives the same result. Converting a currency to itself
// returns amount untouched.
func (c *Currencies) Convert(amount decimal.Decimal, from, to int) (decimal.Decimal, error) {
	src, err := c.Get(from)
	if err != nil {
		return decimal.Decimal{}, err
	}
	dst, err := c.Get(to)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if from == to {
		return amount, nil
	}
	inBase := amount.Mul(src.Rate)
	return inBase.Div(dst.Rate), nil
}

// ConvertMoney converts amount, expressed in currency from, into a Money in currency to.
func (c *Currencies) ConvertMoney(amount decimal.Decimal, from, to int) (Money, error) {
	v, err := c.Convert(amount, from, to)
	if err != nil {
		return Money{}, err
	}
	dst, _ := c.Get(to)
	return M(v, dst.Code), nil
}
