package main

import (
	"fmt"
	"strconv"
)

const maxLimit = 1000

// parseLimit reads the limit query value, falling back to def when empty.
func parseLimit(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid limit %q: must be a positive integer", raw)
	}
	if n > maxLimit {
		n = maxLimit
	}
	return n, nil
}
