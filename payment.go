package backoffice

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// PaymentMethod is how a purchase is settled with the vendor.
//
// It is a closed set: use Free, Loan or Cash to get one. A cash payment
// cannot exist without its cash drawer and currency.
type PaymentMethod interface {
	// Method is the wire name of the payment method.
	Method() string
	json.Marshaler
	sealed()
}

type freePayment struct{}
type loanPayment struct{}
type cashPayment struct {
	drawer   int
	currency int
}

// Free is a purchase that costs nothing (samples, gifts).
func Free() PaymentMethod { return freePayment{} }

// Loan is a purchase on credit: it increases the vendor balance.
func Loan() PaymentMethod { return loanPayment{} }

// Cash is a purchase paid from a cash drawer, in a given currency.
func Cash(drawerID, currencyID int) (PaymentMethod, error) {
	if drawerID <= 0 {
		return nil, &ValidationError{Field: "cash_drawer", Reason: "a cash payment requires a cash drawer"}
	}
	if currencyID <= 0 {
		return nil, &ValidationError{Field: "currency", Reason: "a cash payment requires a currency"}
	}
	return cashPayment{drawer: drawerID, currency: currencyID}, nil
}

// AsCash returns the cash drawer and currency of a cash payment.
func AsCash(p PaymentMethod) (drawerID, currencyID int, ok bool) {
	c, ok := p.(cashPayment)
	return c.drawer, c.currency, ok
}

func (freePayment) Method() string { return "free" }
func (loanPayment) Method() string { return "loan" }
func (cashPayment) Method() string { return "cash" }

func (freePayment) sealed() {}
func (loanPayment) sealed() {}
func (cashPayment) sealed() {}

func (p freePayment) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	return w.Append("method", p.Method()).MarshalJSON()
}

func (p loanPayment) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	return w.Append("method", p.Method()).MarshalJSON()
}

func (p cashPayment) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("method", p.Method())
	w.Append("cash_drawer", p.drawer)
	w.Append("currency", p.currency)
	return w.MarshalJSON()
}

func (p cashPayment) String() string { return fmt.Sprintf("cash (drawer %d, currency %d)", p.drawer, p.currency) }
func (p freePayment) String() string { return p.Method() }
func (p loanPayment) String() string { return p.Method() }

// ParsePaymentMethod parses "free", "loan" or "cash <drawer> <currency>".
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return nil, &ValidationError{Field: "payment_method", Reason: "missing payment method"}
	}
	switch strings.ToLower(fields[0]) {
	case "free":
		return Free(), nil
	case "loan":
		return Loan(), nil
	case "cash":
		if len(fields) != 3 {
			return nil, &ValidationError{Field: "payment_method", Reason: "want: cash <drawer_id> <currency_id>"}
		}
		drawer, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, &ValidationError{Field: "cash_drawer", Reason: fmt.Sprintf("invalid id %q", fields[1])}
		}
		currency, err := strconv.Atoi(fields[2])
		if err != nil {
			return nil, &ValidationError{Field: "currency", Reason: fmt.Sprintf("invalid id %q", fields[2])}
		}
		return Cash(drawer, currency)
	default:
		return nil, &ValidationError{Field: "payment_method", Reason: fmt.Sprintf("unknown payment method %q", fields[0])}
	}
}
