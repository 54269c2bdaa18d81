package date

import (
	"testing"
)

// TestTime assert that the time() is cannonical and gives comparable times.
func TestTime(t *testing.T) {
	d1 := New(2025, 7, 31)
	d2 := New(2025, 7, 31)

	if d1.time() != d2.time() {
		t.Errorf("invalid time() function same day gives two different time")
	}
}

func TestParse(t *testing.T) {
	testCases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"2026-03-01", "2026-03-01", false},
		{"2026-3-1", "2026-03-01", false},
		{"2026-02-30", "", true},
		{"01/03/2026", "", true},
		{"", "", true},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			d, err := Parse(tc.in)
			if (err != nil) != tc.wantErr {
				t.Fatalf("Parse(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
			}
			if err == nil && d.String() != tc.want {
				t.Errorf("Parse(%q) = %v, want %v", tc.in, d, tc.want)
			}
		})
	}
}

func TestDaysUntil(t *testing.T) {
	d := New(2026, 12, 30)
	if got := d.DaysUntil(New(2027, 1, 2)); got != 3 {
		t.Errorf("DaysUntil() = %d, want 3", got)
	}
	if got := d.DaysUntil(New(2026, 12, 20)); got != -10 {
		t.Errorf("DaysUntil() = %d, want -10", got)
	}
}
