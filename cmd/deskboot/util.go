package main

import (
	"fmt"
	"strconv"
	"strings"
)

// parseGeometry parses a WxHxD geometry string such as "1440x900x24".
func parseGeometry(s string) (w, h, d int, err error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), "x")
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("geometry %q: want WxHxD", s)
	}
	vals := make([]int, 3)
	for i, p := range parts {
		v, convErr := strconv.Atoi(p)
		if convErr != nil || v <= 0 {
			return 0, 0, 0, fmt.Errorf("geometry %q: bad component %q", s, p)
		}
		vals[i] = v
	}
	return vals[0], vals[1], vals[2], nil
}
