package utils

import (
	"image/color"
	"testing"
	"time"
)

func TestUtils_ParseColor(t *testing.T) {
	testCases := []struct {
		in   string
		want color.NRGBA
		err  bool
	}{
		{in: "white", want: color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}},
		{in: "#f00", want: color.NRGBA{R: 0xff, A: 0xff}},
		{in: "#00ff0080", want: color.NRGBA{G: 0xff, A: 0x80}},
		{in: "transparent", want: color.NRGBA{}},
		{in: "#12", err: true},
		{in: "not-a-color", err: true},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseColor(tc.in)
			if tc.err {
				if err == nil {
					t.Errorf("expected an error for %q", tc.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("got %v want %v", got, tc.want)
			}
		})
	}
}

func TestUtils_Math(t *testing.T) {
	if Min(3, 7) != 3 || Max(3, 7) != 7 {
		t.Errorf("Min/Max returned wrong values")
	}
	if Clamp(300, 0, 255) != 255 || Clamp(-1, 0, 255) != 0 {
		t.Errorf("Clamp returned wrong values")
	}
}

func TestUtils_FormatTime(t *testing.T) {
	if got := FormatTime(1500 * time.Millisecond); got != "1.50s" {
		t.Errorf("got %s want 1.50s", got)
	}
	if got := FormatTime(61 * time.Second); got != "1m 1.00s" {
		t.Errorf("got %s want 1m 1.00s", got)
	}
}
