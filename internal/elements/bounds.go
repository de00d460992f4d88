package elements

import (
	"fmt"
	"regexp"
	"strconv"
)

var boundsRe = regexp.MustCompile(`^\[(-?\d+),(-?\d+)\]\[(-?\d+),(-?\d+)\]$`)

// ParseBounds parses "[x1,y1][x2,y2]" into corner coordinates.
func ParseBounds(s string) (x1, y1, x2, y2 int, ok bool) {
	m := boundsRe.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, 0, 0, false
	}
	x1, _ = strconv.Atoi(m[1])
	y1, _ = strconv.Atoi(m[2])
	x2, _ = strconv.Atoi(m[3])
	y2, _ = strconv.Atoi(m[4])
	return x1, y1, x2, y2, true
}

// FormatBounds renders the canonical interchange form. Both platforms emit
// this exact shape regardless of the source rectangle representation.
func FormatBounds(x1, y1, x2, y2 int) string {
	return fmt.Sprintf("[%d,%d][%d,%d]", x1, y1, x2, y2)
}
