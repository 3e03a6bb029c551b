package currency

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/rates"
)

func testSnapshot() rates.Snapshot {
	return rates.Snapshot{
		Blue:      rates.Quote{Avg: 1150, Buy: 1140, Sell: 1160},
		Official:  rates.Quote{Avg: 1000, Buy: 990, Sell: 1010},
		FetchedAt: time.Now(),
	}
}

func TestConvert(t *testing.T) {
	snap := testSnapshot()

	tests := []struct {
		name     string
		amount   float64
		from, to core.Currency
		rateType RateType
		want     float64
	}{
		{"identity usd", 50, core.USD, core.USD, Blue, 50},
		{"identity ars", 50, core.ARS, core.ARS, Blue, 50},
		{"usd to ars blue", 10, core.USD, core.ARS, Blue, 11500},
		{"usd to ars official", 10, core.USD, core.ARS, Official, 10000},
		{"ars to usd blue", 11500, core.ARS, core.USD, Blue, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Convert(tt.amount, tt.from, tt.to, tt.rateType, snap)
			if err != nil {
				t.Fatalf("Convert() error: %v", err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Convert() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConvertUnsupportedPair(t *testing.T) {
	snap := testSnapshot()
	if _, err := Convert(10, "eur", core.ARS, Blue, snap); !errors.Is(err, ErrUnsupportedCurrency) {
		t.Errorf("expected ErrUnsupportedCurrency, got %v", err)
	}
	if _, err := Convert(10, core.USD, core.ARS, "mep", snap); !errors.Is(err, ErrUnknownRateType) {
		t.Errorf("expected ErrUnknownRateType, got %v", err)
	}
}

func TestConvertRoundTrip(t *testing.T) {
	snap := testSnapshot()
	for _, amount := range []float64{0.01, 1, 42.5, 1200, 987654.32} {
		ars, err := Convert(amount, core.USD, core.ARS, Blue, snap)
		if err != nil {
			t.Fatalf("Convert() error: %v", err)
		}
		back, err := Convert(ars, core.ARS, core.USD, Blue, snap)
		if err != nil {
			t.Fatalf("Convert() error: %v", err)
		}
		if math.Abs(back-amount) > 1e-9*amount {
			t.Errorf("round trip of %v came back as %v", amount, back)
		}
	}
}

func TestFormat(t *testing.T) {
	if got := Format(1234.5, core.USD); got != "$1234.50" {
		t.Errorf("Format(usd) = %q, want %q", got, "$1234.50")
	}
	if got := Format(1234.567, core.ARS); got != "ARS 1234.57" {
		t.Errorf("Format(ars) = %q, want %q", got, "ARS 1234.57")
	}
}

type staticFetcher struct{ snap rates.Snapshot }

func (f staticFetcher) Fetch(ctx context.Context) (rates.Snapshot, error) {
	return f.snap, nil
}

func TestConverterDisplayAmount(t *testing.T) {
	cache := rates.NewCache(staticFetcher{snap: testSnapshot()}, time.Minute)
	conv := NewConverter(cache)

	amount, formatted, err := conv.DisplayAmount(context.Background(), 10, core.USD, core.ARS, Blue)
	if err != nil {
		t.Fatalf("DisplayAmount() error: %v", err)
	}
	if amount != 11500 {
		t.Errorf("amount = %v, want 11500", amount)
	}
	if formatted != "ARS 11500.00" {
		t.Errorf("formatted = %q, want %q", formatted, "ARS 11500.00")
	}
}
