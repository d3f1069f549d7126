// internal/models/draft.go
package models

// AssessmentDraft is the working, possibly incomplete set of answers for one
// assessment session. It is only ever mutated by the wizard state machine.
type AssessmentDraft struct {
	BusinessProfile BusinessProfile `json:"businessProfile"`
	CurrentSetup    CurrentSetup    `json:"currentSetup"`
	PrintVolume     PrintVolume     `json:"printVolume"`
	WorkflowNeeds   WorkflowNeeds   `json:"workflowNeeds"`
	BudgetTimeline  BudgetTimeline  `json:"budgetTimeline"`
	ContactInfo     ContactInfo     `json:"contactInfo"`
}

// Clone returns a deep copy so callers can hand the draft across goroutine
// boundaries without sharing slices.
func (d *AssessmentDraft) Clone() *AssessmentDraft {
	if d == nil {
		return nil
	}
	out := *d
	out.CurrentSetup.Issues = cloneStrings(d.CurrentSetup.Issues)
	out.WorkflowNeeds.DocumentTypes = cloneStrings(d.WorkflowNeeds.DocumentTypes)
	return &out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

type BusinessProfile struct {
	Industry      string `json:"industry"`
	OrgSize       string `json:"orgSize"`
	EmployeeCount int    `json:"employeeCount"`
	Location      string `json:"location"`
}

type CurrentSetup struct {
	Brand        string   `json:"brand"`
	Model        string   `json:"model,omitempty"`
	AgeYears     float64  `json:"ageYears"`
	Issues       []string `json:"issues"`
	ContractType string   `json:"contractType"`
}

type PrintVolume struct {
	MonthlyA4       int    `json:"monthlyA4"`
	MonthlyA3       int    `json:"monthlyA3"`
	ColourPercent   int    `json:"colourPercent"`
	PeakPeriodNotes string `json:"peakPeriodNotes,omitempty"`
}

// TotalMonthly returns the combined A4+A3 monthly page volume.
func (p PrintVolume) TotalMonthly() int {
	return p.MonthlyA4 + p.MonthlyA3
}

type WorkflowNeeds struct {
	DocumentTypes    []string `json:"documentTypes"`
	ScanningNeed     string   `json:"scanningNeed"`
	SecurityLevel    string   `json:"securityLevel"`
	CloudIntegration bool     `json:"cloudIntegration"`
	MobilePrinting   bool     `json:"mobilePrinting"`
}

type BudgetTimeline struct {
	BudgetBracket    string `json:"budgetBracket"`
	Urgency          string `json:"urgency"`
	OrganisationType string `json:"organisationType"`
	Acquisition      string `json:"acquisition"`
}

type ContactInfo struct {
	FirstName        string `json:"firstName"`
	LastName         string `json:"lastName"`
	Email            string `json:"email"`
	Phone            string `json:"phone"`
	Company          string `json:"company"`
	JobTitle         string `json:"jobTitle,omitempty"`
	PreferredChannel string `json:"preferredChannel"`
}

// Industry values
const (
	IndustryHealthcare    = "healthcare"
	IndustryLegal         = "legal"
	IndustryEducation     = "education"
	IndustryFinance       = "finance"
	IndustryManufacturing = "manufacturing"
	IndustryRetail        = "retail"
	IndustryGovernment    = "government"
	IndustryOther         = "other"
)

// Organisation sizes
const (
	OrgSizeSmall      = "small"      // 1-10 employees
	OrgSizeMedium     = "medium"     // 11-50
	OrgSizeLarge      = "large"      // 51-250
	OrgSizeEnterprise = "enterprise" // 250+
)

// Incumbent brands
const (
	BrandHP           = "hp"
	BrandCanon        = "canon"
	BrandXerox        = "xerox"
	BrandRicoh        = "ricoh"
	BrandKonicaMinolta = "konica_minolta"
	BrandKyocera      = "kyocera"
	BrandBrother      = "brother"
	BrandEpson        = "epson"
	BrandOther        = "other"
	BrandNone         = "none"
)

// Issue tags for the current setup
const (
	IssuePaperJams          = "paper_jams"
	IssueHighCosts          = "high_costs"
	IssueSlowPrinting       = "slow_printing"
	IssuePoorQuality        = "poor_quality"
	IssueFrequentBreakdowns = "frequent_breakdowns"
	IssueSupplies           = "supplies_availability"
	IssueNoSupport          = "no_support"
)

// Contract types
const (
	ContractLease       = "lease"
	ContractPurchase    = "purchase"
	ContractCostPerPage = "cost_per_page"
	ContractNone        = "none"
)

// Scanning need levels
const (
	ScanningNone       = "none"
	ScanningOccasional = "occasional"
	ScanningFrequent   = "frequent"
	ScanningHeavy      = "heavy"
)

// Security levels
const (
	SecurityBasic      = "basic"
	SecurityStandard   = "standard"
	SecurityHigh       = "high"
	SecurityEnterprise = "enterprise"
)

// Document types
const (
	DocInvoices  = "invoices"
	DocContracts = "contracts"
	DocReports   = "reports"
	DocMarketing = "marketing"
	DocLabels    = "labels"
	DocPlans     = "plans"
)

// Budget brackets (monthly, EUR)
const (
	BudgetUnder100 = "under_100"
	Budget100To250 = "100_250"
	Budget250To500 = "250_500"
	Budget500To1K  = "500_1000"
	BudgetOver1K   = "over_1000"
)

// Urgency values
const (
	UrgencyImmediate     = "immediate"
	UrgencyWithinQuarter = "within_quarter"
	UrgencyWithinYear    = "within_year"
	UrgencyExploring     = "exploring"
)

// Organisation / procurement types
const (
	OrgTypePrivate   = "private"
	OrgTypePublic    = "public_tender"
	OrgTypeNonprofit = "nonprofit"
)

// Acquisition preferences
const (
	AcquisitionLease     = "lease"
	AcquisitionPurchase  = "purchase"
	AcquisitionUndecided = "undecided"
)

// Preferred contact channels
const (
	ChannelEmail  = "email"
	ChannelPhone  = "phone"
	ChannelEither = "either"
)
