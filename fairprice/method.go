package fairprice

import (
	"fmt"
	"strings"
)

type MethodKind int

const (
	MidPrice MethodKind = iota
	VolumeWeighted
	MicroPrice
)

// Method is the closed set of fair-price estimators. Levels is only
// meaningful for VolumeWeighted.
type Method struct {
	Kind   MethodKind
	Levels int
}

const defaultVolumeWeightedLevels = 5

// ParseMethod maps a configuration string to a method. Unrecognized input
// falls back to mid-price.
func ParseMethod(s string) Method {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mid-price":
		return Method{Kind: MidPrice}
	case "volume-weighted":
		return Method{Kind: VolumeWeighted, Levels: defaultVolumeWeightedLevels}
	case "micro-price":
		return Method{Kind: MicroPrice}
	default:
		return Method{Kind: MidPrice}
	}
}

func (m Method) String() string {
	switch m.Kind {
	case VolumeWeighted:
		return fmt.Sprintf("Volume-Weighted (top %d levels)", m.Levels)
	case MicroPrice:
		return "Micro-Price"
	default:
		return "Mid-Price"
	}
}
