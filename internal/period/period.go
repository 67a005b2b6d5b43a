// Package period formats and parses the calendar months ledgers are bucketed by.
package period

import (
	"fmt"
	"strconv"
	"strings"
)

// Key returns a month key like "2026-01".
func Key(year, month int) string {
	return fmt.Sprintf("%04d-%02d", year, month)
}

// Label returns a display label like "2026年1月".
func Label(year, month int) string {
	return fmt.Sprintf("%d年%d月", year, month)
}

// Parse parses "2026-01" (or "2026-1") into year and month.
func Parse(key string) (year, month int, err error) {
	parts := strings.SplitN(strings.TrimSpace(key), "-", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid month %q: want YYYY-MM", key)
	}

	year, err = strconv.Atoi(parts[0])
	if err != nil || len(parts[0]) != 4 {
		return 0, 0, fmt.Errorf("invalid year in month %q", key)
	}

	month, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid month in %q: %w", key, err)
	}
	if month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("invalid month in %q: %d is out of range", key, month)
	}

	return year, month, nil
}
