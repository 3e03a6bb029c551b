// Package currency converts and formats amounts between USD and ARS using
// exchange-rate snapshots. Conversion is pure over a snapshot; the Converter
// service binds the pure functions to a live rate cache.
package currency

import (
	"context"
	"errors"
	"fmt"

	"fintrack/internal/core"
	"fintrack/internal/rates"
)

const (
	Blue     RateType = "blue"
	Official RateType = "official"
)

type RateType string

var (
	ErrUnsupportedCurrency = errors.New("unsupported currency pair")
	ErrUnknownRateType     = errors.New("unknown rate type")
)

func (rt RateType) Valid() bool {
	return rt == Blue || rt == Official
}

// Convert translates amount between USD and ARS using the snapshot's average
// rate for rateType. Same-currency conversion is the identity and needs no
// rate. Intermediate values are not rounded.
func Convert(amount float64, from, to core.Currency, rateType RateType, snap rates.Snapshot) (float64, error) {
	if from == to {
		return amount, nil
	}
	if !rateType.Valid() {
		return 0, fmt.Errorf("%w: %q", ErrUnknownRateType, rateType)
	}

	avg := snap.Blue.Avg
	if rateType == Official {
		avg = snap.Official.Avg
	}

	switch {
	case from == core.USD && to == core.ARS:
		return amount * avg, nil
	case from == core.ARS && to == core.USD:
		return amount / avg, nil
	default:
		return 0, fmt.Errorf("%w: %s -> %s", ErrUnsupportedCurrency, from, to)
	}
}

// Format renders an amount with its currency symbol and two decimals.
func Format(amount float64, currency core.Currency) string {
	if currency == core.USD {
		return fmt.Sprintf("$%.2f", amount)
	}
	return fmt.Sprintf("ARS %.2f", amount)
}

// Converter resolves conversions against the live rate cache.
type Converter struct {
	cache *rates.Cache
}

func NewConverter(cache *rates.Cache) *Converter {
	return &Converter{cache: cache}
}

// Convert fetches (or reuses) a rate snapshot and converts amount.
func (c *Converter) Convert(ctx context.Context, amount float64, from, to core.Currency, rateType RateType) (float64, error) {
	if from == to {
		return amount, nil
	}
	snap, err := c.cache.Rates(ctx, true)
	if err != nil {
		return 0, fmt.Errorf("convert %s to %s: %w", from, to, err)
	}
	return Convert(amount, from, to, rateType, snap)
}

// DisplayAmount converts amount into the display currency and returns both
// the numeric value and its formatted rendering.
func (c *Converter) DisplayAmount(ctx context.Context, amount float64, original, display core.Currency, rateType RateType) (float64, string, error) {
	converted, err := c.Convert(ctx, amount, original, display, rateType)
	if err != nil {
		return 0, "", err
	}
	return converted, Format(converted, display), nil
}
