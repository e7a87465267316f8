package youtube

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseISODuration converts an ISO 8601 duration as returned by the Data API
// (for example "PT1H2M3S" or "P1DT2H") into whole seconds.
func ParseISODuration(value string) (int, error) {
	s := strings.TrimSpace(value)
	if !strings.HasPrefix(s, "P") {
		return 0, fmt.Errorf("parse duration %q: missing P prefix", value)
	}
	s = s[1:]

	datePart, timePart, hasTime := strings.Cut(s, "T")
	total := 0

	parse := func(part string, units map[byte]int) error {
		number := ""
		for i := 0; i < len(part); i++ {
			ch := part[i]
			if ch >= '0' && ch <= '9' {
				number += string(ch)
				continue
			}
			multiplier, ok := units[ch]
			if !ok || number == "" {
				return fmt.Errorf("parse duration %q: unexpected %q", value, string(ch))
			}
			n, err := strconv.Atoi(number)
			if err != nil {
				return fmt.Errorf("parse duration %q: %w", value, err)
			}
			total += n * multiplier
			number = ""
		}
		if number != "" {
			return fmt.Errorf("parse duration %q: trailing number", value)
		}
		return nil
	}

	if err := parse(datePart, map[byte]int{'D': 86400, 'W': 604800}); err != nil {
		return 0, err
	}
	if hasTime {
		if err := parse(timePart, map[byte]int{'H': 3600, 'M': 60, 'S': 1}); err != nil {
			return 0, err
		}
	}
	return total, nil
}
