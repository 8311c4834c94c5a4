package sink

import (
	"errors"
	"testing"

	"github.com/etnz/folio"
)

func TestColumnName(t *testing.T) {
	for col, want := range map[int]string{0: "A", 4: "E", 10: "K", 25: "Z", 26: "AA", 51: "AZ", 52: "BA", 701: "ZZ", 702: "AAA"} {
		if got := ColumnName(col); got != want {
			t.Errorf("ColumnName(%d) = %q want %q", col, got, want)
		}
		c, err := ParseCell(want + "1")
		if err != nil || c.Col != col {
			t.Errorf("ParseCell(%s1) = %v, %v want column %d", want, c, err, col)
		}
	}
}

func TestParseRegion(t *testing.T) {
	testCases := []struct {
		in   string
		want Region
	}{
		{"Dashboard", Region{Tab: "Dashboard", Whole: true}},
		{"Dashboard!A1", Region{Tab: "Dashboard", From: Cell{0, 0}, To: Cell{0, 0}}},
		{"Dashboard!K9", Region{Tab: "Dashboard", From: Cell{8, 10}, To: Cell{8, 10}}},
		{"Correlation Analysis!E1:Z50", Region{Tab: "Correlation Analysis", From: Cell{0, 4}, To: Cell{49, 25}}},
		{"'Correlation Analysis'!z50:e1", Region{Tab: "Correlation Analysis", From: Cell{0, 4}, To: Cell{49, 25}}},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseRegion(tc.in)
			if err != nil {
				t.Fatalf("ParseRegion() unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("ParseRegion() = %+v want %+v", got, tc.want)
			}
		})
	}
}

func TestParseRegion_Errors(t *testing.T) {
	for _, in := range []string{"", "!A1", "Tab!", "Tab!A0", "Tab!1A", "Tab!A1:", "Tab!A1:B"} {
		if _, err := ParseRegion(in); !errors.Is(err, folio.ErrConfiguration) {
			t.Errorf("ParseRegion(%q) error = %v want ErrConfiguration", in, err)
		}
	}
}

func TestRegionString(t *testing.T) {
	for _, in := range []string{"Dashboard", "Dashboard!K1", "Correlation Analysis!E1:Z50"} {
		r, err := ParseRegion(in)
		if err != nil {
			t.Fatal(err)
		}
		if got := r.String(); got != in {
			t.Errorf("String() = %q want %q", got, in)
		}
	}
}
