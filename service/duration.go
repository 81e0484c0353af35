package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MaxGiveawayDuration bounds parsed durations
const MaxGiveawayDuration = 365 * 24 * time.Hour

var durationUnits = map[byte]time.Duration{
	'd': 24 * time.Hour,
	'h': time.Hour,
	'm': time.Minute,
}

// ParseGiveawayDuration parses whitespace separated <int><unit> tokens
// such as "1d 12h" or "30m". Units are d, h and m.
func ParseGiveawayDuration(text string) (time.Duration, error) {
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return 0, fmt.Errorf("%w: empty", ErrInvalidDuration)
	}

	var total time.Duration
	for _, tok := range tokens {
		unit, ok := durationUnits[tok[len(tok)-1]]
		if !ok || len(tok) < 2 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, tok)
		}
		n, err := strconv.Atoi(tok[:len(tok)-1])
		if err != nil || n < 0 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, tok)
		}
		if time.Duration(n) > MaxGiveawayDuration/unit {
			return 0, fmt.Errorf("%w: %q is too long", ErrInvalidDuration, tok)
		}
		total += time.Duration(n) * unit
		if total > MaxGiveawayDuration {
			return 0, fmt.Errorf("%w: longer than %s", ErrInvalidDuration, MaxGiveawayDuration)
		}
	}

	if total <= 0 {
		return 0, fmt.Errorf("%w: duration must be longer than zero", ErrInvalidDuration)
	}
	return total, nil
}
