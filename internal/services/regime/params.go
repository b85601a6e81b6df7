package regime

import "fmt"

// Params tunes the detector. Zero values are replaced by defaults in NewDetector.
type Params struct {
	VolSpikeMult           float64
	RangeSpikeMult         float64
	LowRangeMult           float64
	AccumulationWindowBars int
	ReversalWindowBars     int
	// ReversalFraction is the share of the spike range a close must retrace.
	ReversalFraction float64
	// AccumulationFraction is the low-range share above which a bar is accumulation.
	AccumulationFraction float64
	// FillLimitBars bounds forward and backward gap filling. Zero selects the
	// default; a negative value disables filling.
	FillLimitBars int
}

// DefaultParams returns the reference thresholds.
func DefaultParams() Params {
	return Params{
		VolSpikeMult:           3.0,
		RangeSpikeMult:         2.5,
		LowRangeMult:           0.8,
		AccumulationWindowBars: 24,
		ReversalWindowBars:     6,
		ReversalFraction:       0.3,
		AccumulationFraction:   0.75,
		FillLimitBars:          2,
	}
}

// withDefaults fills unset fields.
func (p Params) withDefaults() Params {
	d := DefaultParams()
	if p.VolSpikeMult == 0 {
		p.VolSpikeMult = d.VolSpikeMult
	}
	if p.RangeSpikeMult == 0 {
		p.RangeSpikeMult = d.RangeSpikeMult
	}
	if p.LowRangeMult == 0 {
		p.LowRangeMult = d.LowRangeMult
	}
	if p.AccumulationWindowBars == 0 {
		p.AccumulationWindowBars = d.AccumulationWindowBars
	}
	if p.ReversalWindowBars == 0 {
		p.ReversalWindowBars = d.ReversalWindowBars
	}
	if p.ReversalFraction == 0 {
		p.ReversalFraction = d.ReversalFraction
	}
	if p.AccumulationFraction == 0 {
		p.AccumulationFraction = d.AccumulationFraction
	}
	switch {
	case p.FillLimitBars == 0:
		p.FillLimitBars = d.FillLimitBars
	case p.FillLimitBars < 0:
		p.FillLimitBars = 0
	}
	return p
}

// Validate checks the parameters are usable.
func (p Params) Validate() error {
	if p.VolSpikeMult < 0 || p.RangeSpikeMult < 0 || p.LowRangeMult < 0 {
		return fmt.Errorf("multipliers must be non-negative")
	}
	if p.AccumulationWindowBars < 1 {
		return fmt.Errorf("accumulation_window_bars must be at least 1")
	}
	if p.ReversalWindowBars < 1 {
		return fmt.Errorf("reversal_window_bars must be at least 1")
	}
	if p.ReversalFraction < 0 {
		return fmt.Errorf("reversal_fraction must be non-negative")
	}
	if p.AccumulationFraction < 0 || p.AccumulationFraction > 1 {
		return fmt.Errorf("accumulation_fraction must be within [0, 1]")
	}
	return nil
}
