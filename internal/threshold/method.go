package threshold

import (
	"fmt"
	"image"
	"strings"
)

// Method names a thresholding algorithm.
type Method int

const (
	// MethodBalanced is balanced histogram thresholding.
	MethodBalanced Method = iota
	// MethodFirstValley is first-valley thresholding on a coarse histogram.
	MethodFirstValley
	// MethodManual uses a caller-supplied value.
	MethodManual
)

// String returns the configuration name of the method.
func (m Method) String() string {
	switch m {
	case MethodBalanced:
		return "balanced"
	case MethodFirstValley:
		return "first-valley"
	case MethodManual:
		return "manual"
	default:
		return fmt.Sprintf("method(%d)", int(m))
	}
}

// ParseMethod parses a configuration name. Matching is case-insensitive and
// accepts "valley" as shorthand for "first-valley".
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "balanced", "":
		return MethodBalanced, nil
	case "first-valley", "valley", "firstvalley":
		return MethodFirstValley, nil
	case "manual":
		return MethodManual, nil
	default:
		return 0, fmt.Errorf("unknown threshold method %q", s)
	}
}

// Selection is a thresholding method plus its manual value.
// Value is ignored unless Method is MethodManual.
type Selection struct {
	Method Method
	Value  uint8
}

// Balanced selects balanced histogram thresholding.
func Balanced() Selection { return Selection{Method: MethodBalanced} }

// FirstValley selects first-valley thresholding.
func FirstValley() Selection { return Selection{Method: MethodFirstValley} }

// Manual selects a fixed threshold.
func Manual(v uint8) Selection { return Selection{Method: MethodManual, Value: v} }

// Cut applies the selection to a histogram.
func (s Selection) Cut(h Histogram) (uint8, error) {
	switch s.Method {
	case MethodBalanced:
		return BalancedCut(h)
	case MethodFirstValley:
		return FirstValleyCut(h)
	case MethodManual:
		return s.Value, nil
	default:
		return 0, fmt.Errorf("unknown threshold method %v", s.Method)
	}
}

// Result is a computed threshold with the histogram it was derived from.
type Result struct {
	Method    Method
	Value     uint8
	Histogram Histogram
}

// Compute builds the histogram of g and applies the selection.
func Compute(g *image.Gray, s Selection) (Result, error) {
	h := NewHistogram(g)
	v, err := s.Cut(h)
	if err != nil {
		return Result{}, err
	}
	return Result{Method: s.Method, Value: v, Histogram: h}, nil
}
