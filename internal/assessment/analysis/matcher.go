// internal/assessment/analysis/matcher.go
package analysis

import (
	"fmt"
	"sort"

	"print-advisor/internal/models"
)

// nearBandTolerance widens a product band by 25% on each edge when deciding
// eligibility. A volume just outside a band is still a workable fit.
const nearBandTolerance = 0.25

// scored pairs a catalog product with its computed match score and the
// reasoning that produced it.
type scored struct {
	product Product
	score   int
	reasons []string
	inBand  bool
}

// matchProducts ranks the catalog against the request and returns the
// recommendation set: exactly one primary, at most one alternative, and an
// optional budget option. The result is never empty.
func matchProducts(req *models.AnalysisRequest) []models.Recommendation {
	total := req.PrintVolume.TotalMonthly()
	needsA3 := req.PrintVolume.MonthlyA3 > 0

	candidates := eligibleProducts(total, needsA3)
	if len(candidates) == 0 {
		// Nothing covers this volume. Fall back to the closest-fitting
		// device rather than returning an empty set.
		return []models.Recommendation{closestFit(req, total, needsA3)}
	}

	ranked := make([]scored, 0, len(candidates))
	for _, p := range candidates {
		ranked = append(ranked, scoreProduct(req, p, total))
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		// Equal scores: prefer the smaller device, never over-spec.
		return ranked[i].product.Tier < ranked[j].product.Tier
	})

	recs := []models.Recommendation{toRecommendation(ranked[0], models.PriorityPrimary, total)}
	if len(ranked) > 1 {
		recs = append(recs, toRecommendation(ranked[1], models.PriorityAlternative, total))
	}
	if budget := budgetOption(req, ranked); budget != nil {
		recs = append(recs, *budget)
	}
	return recs
}

// eligibleProducts applies the two hard filters: format support and volume
// band (with the near-band tolerance).
func eligibleProducts(total int, needsA3 bool) []Product {
	var out []Product
	for _, p := range Catalog {
		if needsA3 && !p.SupportsA3 {
			continue
		}
		if !withinTolerance(p, total) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func withinTolerance(p Product, total int) bool {
	lo := float64(p.MinMonthlyVolume) * (1 - nearBandTolerance)
	hi := float64(p.MaxMonthlyVolume) * (1 + nearBandTolerance)
	return float64(total) >= lo && float64(total) <= hi
}

// scoreProduct computes a 0-100 weighted match score. Volume fit dominates;
// format, security and budget fit contribute the remainder.
func scoreProduct(req *models.AnalysisRequest, p Product, total int) scored {
	s := scored{product: p, inBand: p.InBand(total)}

	volumeScore := volumeFit(p, total)
	formatScore := formatFit(req, p)
	securityScore := securityFit(req, p)
	budgetScore := budgetFit(req, p)

	s.score = clampScore(
		int(float64(volumeScore)*0.5 +
			float64(formatScore)*0.2 +
			float64(securityScore)*0.15 +
			float64(budgetScore)*0.15),
	)

	if s.inBand {
		s.reasons = append(s.reasons, fmt.Sprintf(
			"Monthly volume of %d pages sits within the %d-%d page design band",
			total, p.MinMonthlyVolume, p.MaxMonthlyVolume))
	} else {
		s.reasons = append(s.reasons, fmt.Sprintf(
			"Monthly volume of %d pages is close to the %d-%d page design band",
			total, p.MinMonthlyVolume, p.MaxMonthlyVolume))
	}
	if req.PrintVolume.MonthlyA3 > 0 && p.SupportsA3 {
		s.reasons = append(s.reasons, "Handles the A3 output your organisation produces")
	}
	if securityScore >= 100 {
		s.reasons = append(s.reasons, fmt.Sprintf(
			"Security features cover the '%s' level you require", req.WorkflowNeeds.SecurityLevel))
	}
	if budgetScore >= 100 {
		s.reasons = append(s.reasons, "Estimated monthly cost fits your stated budget bracket")
	}

	return s
}

// volumeFit scores how well the total volume sits in the band. Mid-band usage
// scores highest; edge-of-band and near-band fits score progressively lower,
// so the smallest comfortable device always wins over an oversized one.
func volumeFit(p Product, total int) int {
	if p.InBand(total) {
		span := p.MaxMonthlyVolume - p.MinMonthlyVolume
		if span <= 0 {
			return 100
		}
		usage := float64(total-p.MinMonthlyVolume) / float64(span)
		if usage >= 0.25 && usage <= 0.75 {
			return 100
		}
		return 90
	}
	if withinTolerance(p, total) {
		return 60
	}
	return 20
}

func formatFit(req *models.AnalysisRequest, p Product) int {
	if req.PrintVolume.MonthlyA3 > 0 {
		if p.SupportsA3 {
			return 100
		}
		return 0 // filtered out before scoring, kept for completeness
	}
	if p.SupportsA3 {
		// A3 capability the customer does not need is paid-for headroom.
		return 80
	}
	return 100
}

func securityFit(req *models.AnalysisRequest, p Product) int {
	required := securityRank[req.WorkflowNeeds.SecurityLevel]
	offered := securityRank[p.SecurityTier]
	if offered >= required {
		return 100
	}
	return 55
}

func budgetFit(req *models.AnalysisRequest, p Product) int {
	ceiling, ok := budgetCeiling[req.BudgetTimeline.BudgetBracket]
	if !ok {
		return 80
	}
	switch {
	case p.MonthlyCost.MaxMonthly <= ceiling:
		return 100
	case p.MonthlyCost.MinMonthly <= ceiling:
		return 75
	default:
		return 40
	}
}

// closestFit picks the product with the smallest volume distance when no
// catalog entry is eligible, respecting the A3 filter.
func closestFit(req *models.AnalysisRequest, total int, needsA3 bool) models.Recommendation {
	var best *Product
	bestDist := 0
	for i := range Catalog {
		p := Catalog[i]
		if needsA3 && !p.SupportsA3 {
			continue
		}
		dist := bandDistance(p, total)
		if best == nil || dist < bestDist {
			best = &Catalog[i]
			bestDist = dist
		}
	}
	if best == nil {
		// A3 demand with no A3 device would mean an empty catalog slice;
		// with the current lineup this cannot happen, but guard anyway.
		best = &Catalog[len(Catalog)-1]
		bestDist = bandDistance(*best, total)
	}

	s := scored{
		product: *best,
		score:   clampScore(40 - bestDist/10000),
		reasons: []string{
			fmt.Sprintf("Monthly volume of %d pages is outside every standard band; the %s is the closest capacity match",
				total, best.Name),
			"A tailored configuration consult is recommended for this volume",
		},
	}
	if s.score < 10 {
		s.score = 10
	}
	return toRecommendation(s, models.PriorityPrimary, total)
}

func bandDistance(p Product, total int) int {
	if p.InBand(total) {
		return 0
	}
	if total < p.MinMonthlyVolume {
		return p.MinMonthlyVolume - total
	}
	return total - p.MaxMonthlyVolume
}

// budgetOption proposes a cheaper device when the top pick exceeds the stated
// bracket and a lower-tier candidate fits inside it.
func budgetOption(req *models.AnalysisRequest, ranked []scored) *models.Recommendation {
	ceiling, ok := budgetCeiling[req.BudgetTimeline.BudgetBracket]
	if !ok {
		return nil
	}
	top := ranked[0].product
	if top.MonthlyCost.MinMonthly <= ceiling {
		return nil
	}
	for _, s := range ranked[1:] {
		if s.product.MonthlyCost.MaxMonthly <= ceiling && s.product.Tier < top.Tier {
			rec := toRecommendation(s, models.PriorityBudget, req.PrintVolume.TotalMonthly())
			rec.Reasoning = append(rec.Reasoning,
				"Lower-capacity option that stays inside your stated budget bracket")
			return &rec
		}
	}
	return nil
}

func toRecommendation(s scored, priority string, total int) models.Recommendation {
	return models.Recommendation{
		Priority:      priority,
		ProductID:     s.product.ID,
		ProductName:   s.product.Name,
		MatchScore:    s.score,
		Reasoning:     s.reasons,
		EstimatedCost: s.product.MonthlyCost,
		PaybackMonths: paybackMonths(s.product, total),
	}
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
