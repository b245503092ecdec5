package expiry

import (
	"testing"
	"time"
)

func TestParseTokenValid(t *testing.T) {
	cases := []struct {
		token string
		want  time.Duration
	}{
		{"30i", 30 * time.Minute},
		{"1i", time.Minute},
		{"2h", 2 * time.Hour},
		{"2hr", 2 * time.Hour},
		{"2hours", 2 * time.Hour},
		{"30d", 30 * 24 * time.Hour},
		{"30day", 30 * 24 * time.Hour},
		{"1o", 30 * 24 * time.Hour},
		{"2y", 2 * 365 * 24 * time.Hour},
		{"  2h  ", 2 * time.Hour},
		{"2H", 2 * time.Hour},
	}
	for _, tc := range cases {
		if got := ParseToken(tc.token); got != tc.want {
			t.Errorf("ParseToken(%q) = %v, want %v", tc.token, got, tc.want)
		}
	}
}

func TestParseTokenInvalid(t *testing.T) {
	cases := []string{
		"",
		"h",
		"2",
		"42",
		"2x",
		"1min", // minutes are 'i', 'm' is reserved
		"x2h",
		"-2h",
		"2 h",
		"9999999999999999999h",
	}
	for _, token := range cases {
		if got := ParseToken(token); got != 0 {
			t.Errorf("ParseToken(%q) = %v, want 0", token, got)
		}
	}
}

func TestParseTokenMillisMatchUnitTable(t *testing.T) {
	units := map[string]int64{"i": 60, "h": 3600, "d": 86400, "o": 30 * 86400, "y": 365 * 86400}
	for unit, secs := range units {
		d := ParseToken("7" + unit)
		if d.Milliseconds() != 7*secs*1000 {
			t.Errorf("unit %q: got %d ms, want %d ms", unit, d.Milliseconds(), 7*secs*1000)
		}
	}
}
