// internal/models/analysis.go
package models

// AnalysisRequest carries the five non-contact sections of the draft to the
// analysis client. Contact details never leave the session except through the
// notification pipeline.
type AnalysisRequest struct {
	BusinessProfile BusinessProfile `json:"businessProfile"`
	CurrentSetup    CurrentSetup    `json:"currentSetup"`
	PrintVolume     PrintVolume     `json:"printVolume"`
	WorkflowNeeds   WorkflowNeeds   `json:"workflowNeeds"`
	BudgetTimeline  BudgetTimeline  `json:"budgetTimeline"`
}

// AnalysisRequestFrom extracts the analysis payload from a full draft.
func AnalysisRequestFrom(d *AssessmentDraft) *AnalysisRequest {
	return &AnalysisRequest{
		BusinessProfile: d.BusinessProfile,
		CurrentSetup:    d.CurrentSetup,
		PrintVolume:     d.PrintVolume,
		WorkflowNeeds:   d.WorkflowNeeds,
		BudgetTimeline:  d.BudgetTimeline,
	}
}

// Recommendation priorities
const (
	PriorityPrimary     = "primary"
	PriorityAlternative = "alternative"
	PriorityBudget      = "budget"
)

// Workflow insight impact levels
const (
	ImpactLow    = "low"
	ImpactMedium = "medium"
	ImpactHigh   = "high"
)

// AnalysisResult is produced once per successful submission and is immutable
// once received; a new assessment replaces it wholesale.
type AnalysisResult struct {
	Summary                string            `json:"summary"`
	CurrentCost            CostEstimate      `json:"currentCost"`
	PotentialSavings       SavingsEstimate   `json:"potentialSavings"`
	Recommendations        []Recommendation  `json:"recommendations"`
	WorkflowInsights       []WorkflowInsight `json:"workflowInsights"`
	SecurityConsiderations []string          `json:"securityConsiderations"`
	ROI                    ROIProjection     `json:"roi"`
}

// Primary returns the single primary recommendation, or nil if the contract
// was violated upstream.
func (r *AnalysisResult) Primary() *Recommendation {
	for i := range r.Recommendations {
		if r.Recommendations[i].Priority == PriorityPrimary {
			return &r.Recommendations[i]
		}
	}
	return nil
}

type CostEstimate struct {
	MonthlyTotal float64        `json:"monthlyTotal"`
	AnnualTotal  float64        `json:"annualTotal"`
	Breakdown    []CostCategory `json:"breakdown"`
}

type CostCategory struct {
	Category string  `json:"category"`
	Monthly  float64 `json:"monthly"`
}

type SavingsEstimate struct {
	Monthly    float64 `json:"monthly"`
	Annual     float64 `json:"annual"`
	Percentage float64 `json:"percentage"`
}

type Recommendation struct {
	Priority      string    `json:"priority"` // primary | alternative | budget
	ProductID     string    `json:"productId"`
	ProductName   string    `json:"productName"`
	MatchScore    int       `json:"matchScore"` // 0-100
	Reasoning     []string  `json:"reasoning"`
	EstimatedCost CostRange `json:"estimatedCost"`
	PaybackMonths int       `json:"paybackMonths"`
}

type CostRange struct {
	MinMonthly float64 `json:"minMonthly"`
	MaxMonthly float64 `json:"maxMonthly"`
}

type WorkflowInsight struct {
	Category    string `json:"category"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Impact      string `json:"impact"` // low | medium | high
}

type ROIProjection struct {
	BreakevenMonths  int     `json:"breakevenMonths"`
	ThreeYearSavings float64 `json:"threeYearSavings"`
	FiveYearSavings  float64 `json:"fiveYearSavings"`
	AnnualizedROI    float64 `json:"annualizedRoi"` // percent
}
