package service

import "testing"

func TestNormalizeAccount(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"U-3452", "U3452"},
		{"R-17", "R17"},
		{"s-901", "S901"},
		{"3452", "U3452"},
		{"U3452", "U3452"},
		{"r123", "R123"},
		{"  U-3452  ", "U3452"},
		{"", "U0"},
		{"   ", "U0"},
		{"abc", "Uabc"},
		{"U-12a", "UU-12a"},
		{"X-99", "UX-99"},
	}

	for _, tc := range cases {
		if got := NormalizeAccount(tc.in); got != tc.want {
			t.Errorf("NormalizeAccount(%q) = %q; want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeAccountIdempotent(t *testing.T) {
	inputs := []string{"U-3452", "3452", "r17", ""}
	for _, in := range inputs {
		once := NormalizeAccount(in)
		twice := NormalizeAccount(once)
		if once != twice {
			t.Errorf("NormalizeAccount not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}
