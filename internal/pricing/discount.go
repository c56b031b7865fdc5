// Package pricing holds pure price calculations.
package pricing

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument is returned when an input is outside its allowed range.
var ErrInvalidArgument = errors.New("invalid argument")

// Discount bounds, in percent.
const (
	MinDiscountPercent = 0
	MaxDiscountPercent = 100
)

// CalculateDiscount returns price reduced by percent, where percent must lie
// in [0, 100]. No rounding is applied.
func CalculateDiscount(price, percent float64) (float64, error) {
	if percent < MinDiscountPercent || percent > MaxDiscountPercent {
		return 0, fmt.Errorf("%w: discount must be between %d and %d, got %v",
			ErrInvalidArgument, MinDiscountPercent, MaxDiscountPercent, percent)
	}

	return price * (1 - percent/100), nil
}
