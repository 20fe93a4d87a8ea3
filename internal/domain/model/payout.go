package model

// FeeSchedule holds the platform's cut and the processor's pricing in integer
// form. Rates are basis points (1/100th of a percent) so the split can be
// computed entirely in minor-unit integer arithmetic.
type FeeSchedule struct {
	CommissionBps        int64 `yaml:"commission_bps"`         // platform commission, e.g. 1500 = 15%
	ProcessingBps        int64 `yaml:"processing_bps"`         // processor rate, e.g. 290 = 2.9%
	ProcessingFixedCents int64 `yaml:"processing_fixed_cents"` // processor fixed fee per charge
}

// PayoutSplit is the three-way division of a gross charge. The parts always
// sum back to the gross amount.
type PayoutSplit struct {
	PlatformFee  int64
	ProcessorFee int64
	NetPayout    int64
}

// roundBps applies a basis-point rate to a minor-unit amount, rounding
// half-up. Applied exactly once per fee so no cent is lost or invented.
func roundBps(amount, bps int64) int64 {
	return (amount*bps + 5000) / 10000
}

// ComputeSplit divides grossCents between platform fee, processor fee and net
// payout. Invariant: PlatformFee + ProcessorFee + NetPayout == grossCents for
// every non-negative input.
func ComputeSplit(grossCents int64, fs FeeSchedule) PayoutSplit {
	processor := roundBps(grossCents, fs.ProcessingBps) + fs.ProcessingFixedCents
	platform := roundBps(grossCents, fs.CommissionBps)
	return PayoutSplit{
		PlatformFee:  platform,
		ProcessorFee: processor,
		NetPayout:    grossCents - platform - processor,
	}
}
