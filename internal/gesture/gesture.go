package gesture

import (
	"fmt"
	"strings"
)

// Kind is a classified press pattern.
type Kind int

// Gesture kinds, as delivered by the press classifier.
const (
	SinglePress Kind = iota + 1
	DoublePress
	LongPress
	VeryLongPress
)

// String returns the wire name of the kind.
func (k Kind) String() string {
	switch k {
	case SinglePress:
		return "single"
	case DoublePress:
		return "double"
	case LongPress:
		return "long"
	case VeryLongPress:
		return "very_long"
	default:
		return "unknown"
	}
}

// ParseKind reads a gesture name. "hold" and "very-long" are accepted as
// aliases.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "single", "single_press":
		return SinglePress, nil
	case "double", "double_press":
		return DoublePress, nil
	case "long", "long_press", "hold":
		return LongPress, nil
	case "very_long", "very-long", "very_long_press":
		return VeryLongPress, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// Gesture is one classified event from a physical control.
type Gesture struct {
	Control string
	Kind    Kind
}

// Binding keys the dispatch table.
type Binding struct {
	Control string
	Kind    Kind
}
