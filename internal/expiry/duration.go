package expiry

import (
	"strings"
	"time"
)

// unitSeconds maps a duration unit letter to its length in seconds. Minutes
// are encoded as 'i' so that 'm' stays free for a possible month unit; months
// are fixed 30 days and years fixed 365 days.
var unitSeconds = map[byte]int64{
	'i': 60,
	'h': 3600,
	'd': 86400,
	'o': 30 * 86400,
	'y': 365 * 86400,
}

// ParseToken parses a duration token of the form "<integer><unit>", where the
// unit is keyed by the first letter of the alphabetic suffix ("2h", "2hr" and
// "30d", "30day" are equivalent). Any malformed token, unknown unit or
// non-digit prefix yields zero, which callers treat as invalid.
func ParseToken(token string) time.Duration {
	t := strings.ToLower(strings.TrimSpace(token))
	if len(t) < 2 {
		return 0
	}

	i := 0
	for i < len(t) && t[i] >= '0' && t[i] <= '9' {
		i++
	}
	if i == 0 || i == len(t) {
		return 0
	}

	var value int64
	for _, c := range t[:i] {
		value = value*10 + int64(c-'0')
		if value > 1<<40 {
			return 0
		}
	}

	secs, ok := unitSeconds[t[i]]
	if !ok {
		return 0
	}
	return time.Duration(value*secs) * time.Second
}
