package tensor

import (
	"fmt"
	"strconv"
	"strings"
)

var dtypes = []DataType{Float32, Float64, Int32, Int64, Uint8, Bool}

// ParseDType returns the data type named s, as printed by DataType.String.
func ParseDType(s string) (DataType, error) {
	for _, d := range dtypes {
		if d.String() == s {
			return d, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidDType, s)
}

// ParseShape parses a comma separated dimension list such as "2,3".
// An empty string is a scalar.
func ParseShape(s string) (Shape, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Shape{}, nil
	}

	parts := strings.Split(s, ",")
	shape := make(Shape, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: dimension %q", ErrInvalidShape, p)
		}
		shape = append(shape, n)
	}
	return shape, nil
}
