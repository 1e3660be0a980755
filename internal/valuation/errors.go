// Package valuation implements conservative intrinsic-value estimation:
// owner earnings normalization, earnings-power value, asset-based value,
// a capped-growth DCF and confidence-weighted triangulation. All functions
// are pure and deterministic.
package valuation

import "errors"

var (
	// ErrInsufficientData means too few statement periods exist for a method.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrAllMethodsFailed means no valuation method produced a usable value.
	ErrAllMethodsFailed = errors.New("all valuation methods failed")
)
