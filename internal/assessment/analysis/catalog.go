// internal/assessment/analysis/catalog.go
package analysis

import "print-advisor/internal/models"

// Product is one catalog entry. Bands are monthly page volumes the device is
// designed for; Tier orders the lineup by capacity.
type Product struct {
	ID                string
	Name              string
	MinMonthlyVolume  int
	MaxMonthlyVolume  int
	SupportsA3        bool
	SecurityTier      string
	Tier              int
	MonthlyCost       models.CostRange
	CostPerPageMono   float64
	CostPerPageColour float64
}

// Band reports whether a total monthly volume falls inside the product band.
func (p Product) InBand(total int) bool {
	return total >= p.MinMonthlyVolume && total <= p.MaxMonthlyVolume
}

// Catalog is the fixed reseller lineup the matcher selects from.
var Catalog = []Product{
	{
		ID:                "ap-240",
		Name:              "AccessPrint 240",
		MinMonthlyVolume:  500,
		MaxMonthlyVolume:  8000,
		SupportsA3:        false,
		SecurityTier:      models.SecurityStandard,
		Tier:              1,
		MonthlyCost:       models.CostRange{MinMonthly: 79, MaxMonthly: 119},
		CostPerPageMono:   0.011,
		CostPerPageColour: 0.055,
	},
	{
		ID:                "ap-360",
		Name:              "AccessPrint 360w",
		MinMonthlyVolume:  5000,
		MaxMonthlyVolume:  20000,
		SupportsA3:        false,
		SecurityTier:      models.SecurityHigh,
		Tier:              2,
		MonthlyCost:       models.CostRange{MinMonthly: 129, MaxMonthly: 189},
		CostPerPageMono:   0.010,
		CostPerPageColour: 0.050,
	},
	{
		ID:                "mx-450",
		Name:              "MultiMax 450 A3",
		MinMonthlyVolume:  8000,
		MaxMonthlyVolume:  30000,
		SupportsA3:        true,
		SecurityTier:      models.SecurityHigh,
		Tier:              3,
		MonthlyCost:       models.CostRange{MinMonthly: 219, MaxMonthly: 329},
		CostPerPageMono:   0.009,
		CostPerPageColour: 0.045,
	},
	{
		ID:                "mx-700",
		Name:              "MultiMax 700 A3",
		MinMonthlyVolume:  20000,
		MaxMonthlyVolume:  60000,
		SupportsA3:        true,
		SecurityTier:      models.SecurityEnterprise,
		Tier:              4,
		MonthlyCost:       models.CostRange{MinMonthly: 349, MaxMonthly: 499},
		CostPerPageMono:   0.008,
		CostPerPageColour: 0.040,
	},
	{
		ID:                "pr-900",
		Name:              "ProRun 900",
		MinMonthlyVolume:  50000,
		MaxMonthlyVolume:  150000,
		SupportsA3:        true,
		SecurityTier:      models.SecurityEnterprise,
		Tier:              5,
		MonthlyCost:       models.CostRange{MinMonthly: 899, MaxMonthly: 1499},
		CostPerPageMono:   0.006,
		CostPerPageColour: 0.032,
	},
}

var securityRank = map[string]int{
	models.SecurityBasic:      1,
	models.SecurityStandard:   2,
	models.SecurityHigh:       3,
	models.SecurityEnterprise: 4,
}

// budgetCeiling maps a stated bracket to its upper bound in EUR/month.
var budgetCeiling = map[string]float64{
	models.BudgetUnder100: 100,
	models.Budget100To250: 250,
	models.Budget250To500: 500,
	models.Budget500To1K:  1000,
	models.BudgetOver1K:   2500,
}
