// internal/assessment/schema/schema.go
package schema

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"print-advisor/internal/models"
)

// TotalSteps is the fixed number of wizard steps.
const TotalSteps = 6

// Step identifiers, each bound to exactly one field group.
const (
	StepBusinessProfile = 1
	StepCurrentSetup    = 2
	StepPrintVolume     = 3
	StepWorkflowNeeds   = 4
	StepBudgetTimeline  = 5
	StepContactInfo     = 6
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ValidationResult struct {
	Valid  bool         `json:"valid"`
	Errors []FieldError `json:"errors,omitempty"`
}

// GetErrorsForField returns the errors recorded against one field path.
func (vr *ValidationResult) GetErrorsForField(field string) []FieldError {
	var out []FieldError
	for _, e := range vr.Errors {
		if e.Field == field {
			out = append(out, e)
		}
	}
	return out
}

var (
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	// International (+XX...) and local (0-prefixed) forms are both accepted.
	phoneIntlPattern  = regexp.MustCompile(`^\+[0-9][0-9\s\-()]{7,18}$`)
	phoneLocalPattern = regexp.MustCompile(`^0[0-9\s\-()]{8,14}$`)
)

var industries = []string{
	models.IndustryHealthcare, models.IndustryLegal, models.IndustryEducation,
	models.IndustryFinance, models.IndustryManufacturing, models.IndustryRetail,
	models.IndustryGovernment, models.IndustryOther,
}

var orgSizes = []string{
	models.OrgSizeSmall, models.OrgSizeMedium, models.OrgSizeLarge, models.OrgSizeEnterprise,
}

var brands = []string{
	models.BrandHP, models.BrandCanon, models.BrandXerox, models.BrandRicoh,
	models.BrandKonicaMinolta, models.BrandKyocera, models.BrandBrother,
	models.BrandEpson, models.BrandOther, models.BrandNone,
}

var issueTags = []string{
	models.IssuePaperJams, models.IssueHighCosts, models.IssueSlowPrinting,
	models.IssuePoorQuality, models.IssueFrequentBreakdowns, models.IssueSupplies,
	models.IssueNoSupport,
}

var contractTypes = []string{
	models.ContractLease, models.ContractPurchase, models.ContractCostPerPage, models.ContractNone,
}

var scanningNeeds = []string{
	models.ScanningNone, models.ScanningOccasional, models.ScanningFrequent, models.ScanningHeavy,
}

var securityLevels = []string{
	models.SecurityBasic, models.SecurityStandard, models.SecurityHigh, models.SecurityEnterprise,
}

var documentTypes = []string{
	models.DocInvoices, models.DocContracts, models.DocReports,
	models.DocMarketing, models.DocLabels, models.DocPlans,
}

var budgetBrackets = []string{
	models.BudgetUnder100, models.Budget100To250, models.Budget250To500,
	models.Budget500To1K, models.BudgetOver1K,
}

var urgencies = []string{
	models.UrgencyImmediate, models.UrgencyWithinQuarter, models.UrgencyWithinYear, models.UrgencyExploring,
}

var organisationTypes = []string{
	models.OrgTypePrivate, models.OrgTypePublic, models.OrgTypeNonprofit,
}

var acquisitions = []string{
	models.AcquisitionLease, models.AcquisitionPurchase, models.AcquisitionUndecided,
}

var contactChannels = []string{
	models.ChannelEmail, models.ChannelPhone, models.ChannelEither,
}

// fieldValidator checks one field path against the draft. Pure.
type fieldValidator func(d *models.AssessmentDraft) *FieldError

// stepFields is the single authority on which field belongs to which step,
// in presentation order.
var stepFields = map[int][]string{
	StepBusinessProfile: {
		"businessProfile.industry",
		"businessProfile.orgSize",
		"businessProfile.employeeCount",
		"businessProfile.location",
	},
	StepCurrentSetup: {
		"currentSetup.brand",
		"currentSetup.ageYears",
		"currentSetup.issues",
		"currentSetup.contractType",
	},
	StepPrintVolume: {
		"printVolume.monthlyA4",
		"printVolume.monthlyA3",
		"printVolume.colourPercent",
	},
	StepWorkflowNeeds: {
		"workflowNeeds.documentTypes",
		"workflowNeeds.scanningNeed",
		"workflowNeeds.securityLevel",
	},
	StepBudgetTimeline: {
		"budgetTimeline.budgetBracket",
		"budgetTimeline.urgency",
		"budgetTimeline.organisationType",
		"budgetTimeline.acquisition",
	},
	StepContactInfo: {
		"contactInfo.firstName",
		"contactInfo.lastName",
		"contactInfo.email",
		"contactInfo.phone",
		"contactInfo.company",
		"contactInfo.preferredChannel",
	},
}

var validators = map[string]fieldValidator{
	"businessProfile.industry": func(d *models.AssessmentDraft) *FieldError {
		return enumError("businessProfile.industry", d.BusinessProfile.Industry, industries)
	},
	"businessProfile.orgSize": func(d *models.AssessmentDraft) *FieldError {
		return enumError("businessProfile.orgSize", d.BusinessProfile.OrgSize, orgSizes)
	},
	"businessProfile.employeeCount": func(d *models.AssessmentDraft) *FieldError {
		if d.BusinessProfile.EmployeeCount <= 0 {
			return &FieldError{
				Field:   "businessProfile.employeeCount",
				Message: "employee count must be a positive integer",
				Code:    "MINIMUM_VIOLATION",
			}
		}
		return nil
	},
	"businessProfile.location": func(d *models.AssessmentDraft) *FieldError {
		return requiredStringError("businessProfile.location", d.BusinessProfile.Location)
	},
	"currentSetup.brand": func(d *models.AssessmentDraft) *FieldError {
		return enumError("currentSetup.brand", d.CurrentSetup.Brand, brands)
	},
	"currentSetup.ageYears": func(d *models.AssessmentDraft) *FieldError {
		v := d.CurrentSetup.AgeYears
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return &FieldError{
				Field:   "currentSetup.ageYears",
				Message: "age must be a non-negative number",
				Code:    "MINIMUM_VIOLATION",
			}
		}
		return nil
	},
	"currentSetup.issues": func(d *models.AssessmentDraft) *FieldError {
		// The issue set may be empty, but every tag must be known.
		for _, tag := range d.CurrentSetup.Issues {
			if !contains(issueTags, tag) {
				return &FieldError{
					Field:   "currentSetup.issues",
					Message: fmt.Sprintf("unknown issue tag %q", tag),
					Code:    "INVALID_ENUM_VALUE",
				}
			}
		}
		return nil
	},
	"currentSetup.contractType": func(d *models.AssessmentDraft) *FieldError {
		return enumError("currentSetup.contractType", d.CurrentSetup.ContractType, contractTypes)
	},
	"printVolume.monthlyA4": func(d *models.AssessmentDraft) *FieldError {
		if d.PrintVolume.MonthlyA4 < 0 {
			return &FieldError{
				Field:   "printVolume.monthlyA4",
				Message: "monthly A4 volume must be >= 0",
				Code:    "MINIMUM_VIOLATION",
			}
		}
		return nil
	},
	"printVolume.monthlyA3": func(d *models.AssessmentDraft) *FieldError {
		if d.PrintVolume.MonthlyA3 < 0 {
			return &FieldError{
				Field:   "printVolume.monthlyA3",
				Message: "monthly A3 volume must be >= 0",
				Code:    "MINIMUM_VIOLATION",
			}
		}
		return nil
	},
	"printVolume.colourPercent": func(d *models.AssessmentDraft) *FieldError {
		if d.PrintVolume.ColourPercent < 0 || d.PrintVolume.ColourPercent > 100 {
			return &FieldError{
				Field:   "printVolume.colourPercent",
				Message: "colour percentage must be between 0 and 100",
				Code:    "RANGE_VIOLATION",
			}
		}
		return nil
	},
	"workflowNeeds.documentTypes": func(d *models.AssessmentDraft) *FieldError {
		if len(d.WorkflowNeeds.DocumentTypes) == 0 {
			return &FieldError{
				Field:   "workflowNeeds.documentTypes",
				Message: "at least one document type is required",
				Code:    "REQUIRED_FIELD_MISSING",
			}
		}
		for _, dt := range d.WorkflowNeeds.DocumentTypes {
			if !contains(documentTypes, dt) {
				return &FieldError{
					Field:   "workflowNeeds.documentTypes",
					Message: fmt.Sprintf("unknown document type %q", dt),
					Code:    "INVALID_ENUM_VALUE",
				}
			}
		}
		return nil
	},
	"workflowNeeds.scanningNeed": func(d *models.AssessmentDraft) *FieldError {
		return enumError("workflowNeeds.scanningNeed", d.WorkflowNeeds.ScanningNeed, scanningNeeds)
	},
	"workflowNeeds.securityLevel": func(d *models.AssessmentDraft) *FieldError {
		return enumError("workflowNeeds.securityLevel", d.WorkflowNeeds.SecurityLevel, securityLevels)
	},
	"budgetTimeline.budgetBracket": func(d *models.AssessmentDraft) *FieldError {
		return enumError("budgetTimeline.budgetBracket", d.BudgetTimeline.BudgetBracket, budgetBrackets)
	},
	"budgetTimeline.urgency": func(d *models.AssessmentDraft) *FieldError {
		return enumError("budgetTimeline.urgency", d.BudgetTimeline.Urgency, urgencies)
	},
	"budgetTimeline.organisationType": func(d *models.AssessmentDraft) *FieldError {
		return enumError("budgetTimeline.organisationType", d.BudgetTimeline.OrganisationType, organisationTypes)
	},
	"budgetTimeline.acquisition": func(d *models.AssessmentDraft) *FieldError {
		return enumError("budgetTimeline.acquisition", d.BudgetTimeline.Acquisition, acquisitions)
	},
	"contactInfo.firstName": func(d *models.AssessmentDraft) *FieldError {
		return requiredStringError("contactInfo.firstName", d.ContactInfo.FirstName)
	},
	"contactInfo.lastName": func(d *models.AssessmentDraft) *FieldError {
		return requiredStringError("contactInfo.lastName", d.ContactInfo.LastName)
	},
	"contactInfo.email": func(d *models.AssessmentDraft) *FieldError {
		if !emailPattern.MatchString(strings.TrimSpace(d.ContactInfo.Email)) {
			return &FieldError{
				Field:   "contactInfo.email",
				Message: "a valid email address is required",
				Code:    "PATTERN_MISMATCH",
			}
		}
		return nil
	},
	"contactInfo.phone": func(d *models.AssessmentDraft) *FieldError {
		phone := strings.TrimSpace(d.ContactInfo.Phone)
		if !phoneIntlPattern.MatchString(phone) && !phoneLocalPattern.MatchString(phone) {
			return &FieldError{
				Field:   "contactInfo.phone",
				Message: "a valid phone number is required (international or local format)",
				Code:    "PATTERN_MISMATCH",
			}
		}
		return nil
	},
	"contactInfo.company": func(d *models.AssessmentDraft) *FieldError {
		return requiredStringError("contactInfo.company", d.ContactInfo.Company)
	},
	"contactInfo.preferredChannel": func(d *models.AssessmentDraft) *FieldError {
		return enumError("contactInfo.preferredChannel", d.ContactInfo.PreferredChannel, contactChannels)
	},
}

// StepFields returns the ordered field paths belonging to a step, or nil for
// an unknown step.
func StepFields(step int) []string {
	fields, ok := stepFields[step]
	if !ok {
		return nil
	}
	out := make([]string, len(fields))
	copy(out, fields)
	return out
}

// ValidateStep validates only the fields belonging to the given step. Fields
// of other steps are ignored even if currently invalid.
func ValidateStep(d *models.AssessmentDraft, step int) *ValidationResult {
	errs := []FieldError{}
	for _, field := range stepFields[step] {
		if fe := validators[field](d); fe != nil {
			errs = append(errs, *fe)
		}
	}
	return &ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

// ValidateDraft validates the full draft across all steps, in step order.
func ValidateDraft(d *models.AssessmentDraft) *ValidationResult {
	errs := []FieldError{}
	for step := 1; step <= TotalSteps; step++ {
		if r := ValidateStep(d, step); !r.Valid {
			errs = append(errs, r.Errors...)
		}
	}
	return &ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

// Defaults returns the documented default draft a fresh session starts from.
func Defaults() *models.AssessmentDraft {
	return &models.AssessmentDraft{
		CurrentSetup: models.CurrentSetup{
			Issues: []string{},
		},
		PrintVolume: models.PrintVolume{
			MonthlyA3:     0,
			ColourPercent: 20,
		},
		WorkflowNeeds: models.WorkflowNeeds{
			DocumentTypes: []string{},
			ScanningNeed:  models.ScanningOccasional,
			SecurityLevel: models.SecurityStandard,
		},
		BudgetTimeline: models.BudgetTimeline{
			OrganisationType: models.OrgTypePrivate,
			Acquisition:      models.AcquisitionUndecided,
		},
		ContactInfo: models.ContactInfo{
			PreferredChannel: models.ChannelEmail,
		},
	}
}

func enumError(field, value string, allowed []string) *FieldError {
	if contains(allowed, value) {
		return nil
	}
	return &FieldError{
		Field:   field,
		Message: fmt.Sprintf("value must be one of %v", allowed),
		Code:    "INVALID_ENUM_VALUE",
	}
}

func requiredStringError(field, value string) *FieldError {
	if strings.TrimSpace(value) == "" {
		return &FieldError{
			Field:   field,
			Message: "required field missing",
			Code:    "REQUIRED_FIELD_MISSING",
		}
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
