package timefmt

import "testing"

func TestFormat(t *testing.T) {
	cases := []struct {
		ms   int64
		want string
	}{
		{5_400, "5.4"},
		{-500, "0"},
		{-1_500, "-1"},
		{65_000, "1:05"},
		{3_665_000, "1:01:05"},
		{0, "0.0"},
		{9_999, "9.9"},
		{10_000, "10"},
		{42_000, "42"},
		{-1, "0"},
		{-999, "0"},
		{-1_000, "-1"},
		{-9_999, "-9"},
		{-42_000, "-42"},
		{-65_000, "-1:05"},
		{600_000, "10:00"},
		{36_000_000, "10:00:00"},
	}
	for _, tc := range cases {
		if got := Format(tc.ms); got != tc.want {
			t.Fatalf("Format(%d) = %q, want %q", tc.ms, got, tc.want)
		}
	}
}

func TestFormatIsStable(t *testing.T) {
	for ms := int64(-70_000); ms <= 70_000; ms += 37 {
		if a, b := Format(ms), Format(ms); a != b {
			t.Fatalf("Format(%d) not stable: %q vs %q", ms, a, b)
		}
	}
}

func TestFormatGap(t *testing.T) {
	cases := []struct {
		ms   int64
		want string
	}{
		{0, ""},
		{499, ""},
		{-499, ""},
		{500, "+1"},
		{700, "+1"},
		{-2_400, "-2"},
		{12_300, "+12"},
		{-65_400, "-1:05"},
	}
	for _, tc := range cases {
		if got := FormatGap(tc.ms); got != tc.want {
			t.Fatalf("FormatGap(%d) = %q, want %q", tc.ms, got, tc.want)
		}
	}
}
