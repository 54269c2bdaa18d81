package backoffice

import (
	"errors"
	"testing"
)

func TestConvertIdentity(t *testing.T) {
	tables := testTables(t)
	amounts := []string{"0", "1", "25.5", "0.1", "123456789.123456789", "-3.33"}
	for _, cur := range tables.Currencies.All() {
		for _, a := range amounts {
			got, err := tables.Currencies.Convert(D(a), cur.ID, cur.ID)
			if err != nil {
				t.Fatalf("Convert(%s, %s, %s) error = %v", a, cur.Code, cur.Code, err)
			}
			if !got.Equal(D(a)) || got.String() != D(a).String() {
				t.Errorf("Convert(%s, %s, %s) = %v, want exactly %s", a, cur.Code, cur.Code, got, a)
			}
		}
	}
}

func TestConvert(t *testing.T) {
	tables := testTables(t)
	testCases := []struct {
		name     string
		amount   string
		from, to int
		want     string
	}{
		{"EUR to base", "5", eurID, usdID, "5.5"},
		{"base to EUR", "11", usdID, eurID, "10"},
		{"GBP to EUR through base", "22", gbpID, eurID, "25"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tables.Currencies.Convert(D(tc.amount), tc.from, tc.to)
			if err != nil {
				t.Fatalf("Convert() error = %v", err)
			}
			if !got.Equal(D(tc.want)) {
				t.Errorf("Convert(%s, %d, %d) = %v, want %s", tc.amount, tc.from, tc.to, got, tc.want)
			}
		})
	}
}

// Converting along any path gives the same amount as the direct conversion.
func TestConvertIsPathIndependent(t *testing.T) {
	tables := testTables(t)
	c := tables.Currencies
	tolerance := D("0.000000001")
	ids := []int{usdID, eurID, gbpID}
	for _, a := range ids {
		for _, b := range ids {
			for _, cc := range ids {
				x := D("1234.56")
				ab, err := c.Convert(x, a, b)
				if err != nil {
					t.Fatal(err)
				}
				abc, err := c.Convert(ab, b, cc)
				if err != nil {
					t.Fatal(err)
				}
				ac, err := c.Convert(x, a, cc)
				if err != nil {
					t.Fatal(err)
				}
				if abc.Sub(ac).Abs().GreaterThan(tolerance) {
					t.Errorf("convert(convert(x,%d,%d),%d,%d) = %v, convert(x,%d,%d) = %v", a, b, b, cc, abc, a, cc, ac)
				}
			}
		}
	}
}

func TestConvertUnknownCurrency(t *testing.T) {
	tables := testTables(t)
	if _, err := tables.Currencies.Convert(D("1"), 99, usdID); !errors.Is(err, ErrCurrencyNotFound) {
		t.Errorf("Convert(from unknown) error = %v, want ErrCurrencyNotFound", err)
	}
	if _, err := tables.Currencies.Convert(D("1"), usdID, 99); !errors.Is(err, ErrCurrencyNotFound) {
		t.Errorf("Convert(to unknown) error = %v, want ErrCurrencyNotFound", err)
	}
	// identity of an unknown currency is still unknown.
	if _, err := tables.Currencies.Convert(D("1"), 99, 99); !errors.Is(err, ErrCurrencyNotFound) {
		t.Errorf("Convert(unknown, unknown) error = %v, want ErrCurrencyNotFound", err)
	}
}

func TestNewCurrencies(t *testing.T) {
	testCases := []struct {
		name       string
		currencies []Currency
		wantErr    bool
	}{
		{"valid", []Currency{{ID: 1, Code: "USD", Rate: D("1"), IsBase: true}, {ID: 2, Code: "EUR", Rate: D("1.1")}}, false},
		{"empty table", nil, true},
		{"base id 0", []Currency{{ID: 0, Code: "USD", Rate: D("1"), IsBase: true}, {ID: 2, Code: "EUR", Rate: D("1.1")}}, false},
		{"two bases with id 0", []Currency{{ID: 0, Code: "USD", Rate: D("1"), IsBase: true}, {ID: 2, Code: "EUR", Rate: D("1"), IsBase: true}}, true},
		{"no base", []Currency{{ID: 1, Code: "USD", Rate: D("1")}}, true},
		{"two bases", []Currency{{ID: 1, Code: "USD", Rate: D("1"), IsBase: true}, {ID: 2, Code: "EUR", Rate: D("1"), IsBase: true}}, true},
		{"base rate not 1", []Currency{{ID: 1, Code: "USD", Rate: D("2"), IsBase: true}}, true},
		{"zero rate", []Currency{{ID: 1, Code: "USD", Rate: D("1"), IsBase: true}, {ID: 2, Code: "EUR", Rate: D("0")}}, true},
		{"duplicate id", []Currency{{ID: 1, Code: "USD", Rate: D("1"), IsBase: true}, {ID: 1, Code: "EUR", Rate: D("1.1")}}, true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewCurrencies(tc.currencies...)
			if (err != nil) != tc.wantErr {
				t.Errorf("NewCurrencies() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestCurrencyLookup(t *testing.T) {
	c := testTables(t).Currencies
	if got := c.Base(); got.Code != "USD" {
		t.Errorf("Base() = %v, want USD", got.Code)
	}
	eur, err := c.ByCode("EUR")
	if err != nil || eur.ID != eurID {
		t.Errorf("ByCode(EUR) = %v, %v, want id %d", eur.ID, err, eurID)
	}
	if _, err := c.ByCode("JPY"); !errors.Is(err, ErrCurrencyNotFound) {
		t.Errorf("ByCode(JPY) error = %v, want ErrCurrencyNotFound", err)
	}
	m, err := c.ConvertMoney(D("10"), eurID, usdID)
	if err != nil {
		t.Fatal(err)
	}
	if want := M(11, "USD"); !m.Equal(want) {
		t.Errorf("ConvertMoney() = %v, want %v", m, want)
	}
}
