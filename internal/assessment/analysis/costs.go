// internal/assessment/analysis/costs.go
package analysis

import (
	"math"

	"print-advisor/internal/models"
)

// Per-page baselines for the incumbent fleet, EUR. Older hardware and
// contract-free setups run more expensive, modelled below.
const (
	baseMonoPerPage   = 0.015
	baseColourPerPage = 0.060
	agePenaltyPerYear = 0.0015
	maxAgePenalty     = 0.012
)

// estimateCurrentCost models what the incumbent setup costs per month, broken
// down into consumables, service, equipment and energy.
func estimateCurrentCost(req *models.AnalysisRequest) models.CostEstimate {
	total := req.PrintVolume.TotalMonthly()
	colourShare := float64(req.PrintVolume.ColourPercent) / 100
	monoPages := float64(total) * (1 - colourShare)
	colourPages := float64(total) * colourShare

	penalty := req.CurrentSetup.AgeYears * agePenaltyPerYear
	if penalty > maxAgePenalty {
		penalty = maxAgePenalty
	}
	monoRate := baseMonoPerPage + penalty
	colourRate := baseColourPerPage + 2*penalty

	consumables := monoPages*monoRate + colourPages*colourRate

	service := 45.0
	switch req.CurrentSetup.ContractType {
	case models.ContractCostPerPage:
		// Service is folded into the page rate.
		service = 0
	case models.ContractNone:
		// Break-fix callouts run well above a service contract.
		service = 85
	}

	equipment := 60.0
	if req.CurrentSetup.ContractType == models.ContractLease {
		equipment = 95
	}

	energy := 8 + float64(total)/4000

	breakdown := []models.CostCategory{
		{Category: "consumables", Monthly: round2(consumables)},
		{Category: "service", Monthly: round2(service)},
		{Category: "equipment", Monthly: round2(equipment)},
		{Category: "energy", Monthly: round2(energy)},
	}

	monthly := round2(consumables + service + equipment + energy)
	return models.CostEstimate{
		MonthlyTotal: monthly,
		AnnualTotal:  round2(monthly * 12),
		Breakdown:    breakdown,
	}
}

// proposedMonthlyCost is the expected monthly spend on a given product at the
// customer's volume: midpoint of the device cost plus click charges.
func proposedMonthlyCost(p Product, req *models.AnalysisRequest) float64 {
	total := req.PrintVolume.TotalMonthly()
	colourShare := float64(req.PrintVolume.ColourPercent) / 100
	monoPages := float64(total) * (1 - colourShare)
	colourPages := float64(total) * colourShare

	device := (p.MonthlyCost.MinMonthly + p.MonthlyCost.MaxMonthly) / 2
	return round2(device + monoPages*p.CostPerPageMono + colourPages*p.CostPerPageColour)
}

// estimateSavings compares the incumbent cost against the primary proposal.
// Savings never go negative; an upgrade that costs more reports zero.
func estimateSavings(current models.CostEstimate, p Product, req *models.AnalysisRequest) models.SavingsEstimate {
	proposed := proposedMonthlyCost(p, req)
	monthly := current.MonthlyTotal - proposed
	if monthly < 0 {
		monthly = 0
	}
	pct := 0.0
	if current.MonthlyTotal > 0 {
		pct = round2(monthly / current.MonthlyTotal * 100)
	}
	return models.SavingsEstimate{
		Monthly:    round2(monthly),
		Annual:     round2(monthly * 12),
		Percentage: pct,
	}
}

// switchoverCost approximates one-off migration spend: delivery, install,
// driver rollout and user training, scaled by device tier.
func switchoverCost(p Product) float64 {
	return 250 + float64(p.Tier)*150
}

func estimateROI(savings models.SavingsEstimate, p Product) models.ROIProjection {
	if savings.Monthly <= 0 {
		return models.ROIProjection{}
	}
	oneOff := switchoverCost(p)
	breakeven := int(math.Ceil(oneOff / savings.Monthly))

	threeYear := round2(savings.Monthly*36 - oneOff)
	fiveYear := round2(savings.Monthly*60 - oneOff)
	if threeYear < 0 {
		threeYear = 0
	}
	if fiveYear < 0 {
		fiveYear = 0
	}

	annualSpend := (p.MonthlyCost.MinMonthly + p.MonthlyCost.MaxMonthly) / 2 * 12
	roi := 0.0
	if annualSpend > 0 {
		roi = round2(savings.Annual / annualSpend * 100)
	}

	return models.ROIProjection{
		BreakevenMonths:  breakeven,
		ThreeYearSavings: threeYear,
		FiveYearSavings:  fiveYear,
		AnnualizedROI:    roi,
	}
}

// paybackMonths is the per-recommendation breakeven horizon shown on cards.
func paybackMonths(p Product, total int) int {
	// A rough signal, not the full ROI model: assume the device claws back
	// 1.5 cents per page against the incumbent fleet.
	monthlyGain := float64(total) * 0.015
	if monthlyGain <= 0 {
		return 0
	}
	months := int(math.Ceil(switchoverCost(p) / monthlyGain))
	if months > 60 {
		months = 60
	}
	return months
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
