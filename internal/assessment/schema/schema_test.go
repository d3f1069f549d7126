// internal/assessment/schema/schema_test.go
package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"print-advisor/internal/models"
)

func validDraft() *models.AssessmentDraft {
	d := Defaults()
	d.BusinessProfile = models.BusinessProfile{
		Industry:      models.IndustryLegal,
		OrgSize:       models.OrgSizeMedium,
		EmployeeCount: 35,
		Location:      "Utrecht",
	}
	d.CurrentSetup = models.CurrentSetup{
		Brand:        models.BrandXerox,
		Model:        "VersaLink C405",
		AgeYears:     4.5,
		Issues:       []string{models.IssueHighCosts, models.IssuePaperJams},
		ContractType: models.ContractLease,
	}
	d.PrintVolume = models.PrintVolume{
		MonthlyA4:     12000,
		MonthlyA3:     500,
		ColourPercent: 30,
	}
	d.WorkflowNeeds = models.WorkflowNeeds{
		DocumentTypes:    []string{models.DocContracts, models.DocInvoices},
		ScanningNeed:     models.ScanningFrequent,
		SecurityLevel:    models.SecurityHigh,
		CloudIntegration: true,
	}
	d.BudgetTimeline = models.BudgetTimeline{
		BudgetBracket:    models.Budget250To500,
		Urgency:          models.UrgencyWithinQuarter,
		OrganisationType: models.OrgTypePrivate,
		Acquisition:      models.AcquisitionLease,
	}
	d.ContactInfo = models.ContactInfo{
		FirstName:        "Anna",
		LastName:         "de Vries",
		Email:            "anna@devries-advocaten.nl",
		Phone:            "+31 30 123 4567",
		Company:          "De Vries Advocaten",
		PreferredChannel: models.ChannelEmail,
	}
	return d
}

func TestStepFields(t *testing.T) {
	seen := map[string]bool{}
	for step := 1; step <= TotalSteps; step++ {
		fields := StepFields(step)
		assert.NotEmpty(t, fields, "step %d has no fields", step)
		for _, f := range fields {
			assert.False(t, seen[f], "field %s bound to more than one step", f)
			seen[f] = true
		}
	}
	assert.Nil(t, StepFields(0))
	assert.Nil(t, StepFields(7))
}

func TestValidateDraft_Valid(t *testing.T) {
	result := ValidateDraft(validDraft())
	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
}

func TestValidateStep_IgnoresOtherSteps(t *testing.T) {
	d := validDraft()
	// Break a step-6 field; steps 1-5 must stay valid.
	d.ContactInfo.Email = "not-an-email"

	for step := 1; step <= 5; step++ {
		assert.True(t, ValidateStep(d, step).Valid, "step %d", step)
	}

	result := ValidateStep(d, StepContactInfo)
	assert.False(t, result.Valid)
	assert.Len(t, result.GetErrorsForField("contactInfo.email"), 1)
}

func TestValidateStep_Deterministic(t *testing.T) {
	// A freshly-defaulted draft must report the same invalidity set on
	// repeated calls.
	d := Defaults()
	for step := 1; step <= TotalSteps; step++ {
		first := ValidateStep(d, step)
		second := ValidateStep(d, step)
		assert.Equal(t, first, second, "step %d", step)
	}
}

func TestValidateStep_FieldRules(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(d *models.AssessmentDraft)
		step    int
		field   string
		code    string
	}{
		{
			name:   "unknown industry",
			mutate: func(d *models.AssessmentDraft) { d.BusinessProfile.Industry = "aerospace" },
			step:   StepBusinessProfile,
			field:  "businessProfile.industry",
			code:   "INVALID_ENUM_VALUE",
		},
		{
			name:   "zero employee count",
			mutate: func(d *models.AssessmentDraft) { d.BusinessProfile.EmployeeCount = 0 },
			step:   StepBusinessProfile,
			field:  "businessProfile.employeeCount",
			code:   "MINIMUM_VIOLATION",
		},
		{
			name:   "whitespace-only location",
			mutate: func(d *models.AssessmentDraft) { d.BusinessProfile.Location = "   " },
			step:   StepBusinessProfile,
			field:  "businessProfile.location",
			code:   "REQUIRED_FIELD_MISSING",
		},
		{
			name:   "negative device age",
			mutate: func(d *models.AssessmentDraft) { d.CurrentSetup.AgeYears = -1 },
			step:   StepCurrentSetup,
			field:  "currentSetup.ageYears",
			code:   "MINIMUM_VIOLATION",
		},
		{
			name:   "unknown issue tag",
			mutate: func(d *models.AssessmentDraft) { d.CurrentSetup.Issues = []string{"haunted"} },
			step:   StepCurrentSetup,
			field:  "currentSetup.issues",
			code:   "INVALID_ENUM_VALUE",
		},
		{
			name:   "negative A3 volume",
			mutate: func(d *models.AssessmentDraft) { d.PrintVolume.MonthlyA3 = -10 },
			step:   StepPrintVolume,
			field:  "printVolume.monthlyA3",
			code:   "MINIMUM_VIOLATION",
		},
		{
			name:   "colour percent above 100",
			mutate: func(d *models.AssessmentDraft) { d.PrintVolume.ColourPercent = 130 },
			step:   StepPrintVolume,
			field:  "printVolume.colourPercent",
			code:   "RANGE_VIOLATION",
		},
		{
			name:   "empty document types",
			mutate: func(d *models.AssessmentDraft) { d.WorkflowNeeds.DocumentTypes = nil },
			step:   StepWorkflowNeeds,
			field:  "workflowNeeds.documentTypes",
			code:   "REQUIRED_FIELD_MISSING",
		},
		{
			name:   "unknown budget bracket",
			mutate: func(d *models.AssessmentDraft) { d.BudgetTimeline.BudgetBracket = "free" },
			step:   StepBudgetTimeline,
			field:  "budgetTimeline.budgetBracket",
			code:   "INVALID_ENUM_VALUE",
		},
		{
			name:   "invalid email",
			mutate: func(d *models.AssessmentDraft) { d.ContactInfo.Email = "anna@" },
			step:   StepContactInfo,
			field:  "contactInfo.email",
			code:   "PATTERN_MISMATCH",
		},
		{
			name:   "invalid phone",
			mutate: func(d *models.AssessmentDraft) { d.ContactInfo.Phone = "12" },
			step:   StepContactInfo,
			field:  "contactInfo.phone",
			code:   "PATTERN_MISMATCH",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDraft()
			tt.mutate(d)

			result := ValidateStep(d, tt.step)
			assert.False(t, result.Valid)

			fieldErrs := result.GetErrorsForField(tt.field)
			if assert.NotEmpty(t, fieldErrs) {
				assert.Equal(t, tt.code, fieldErrs[0].Code)
			}
		})
	}
}

func TestValidatePhone_Formats(t *testing.T) {
	tests := []struct {
		phone string
		valid bool
	}{
		{"+31 30 123 4567", true},
		{"+4915112345678", true},
		{"030-123-4567", true},
		{"0301234567", true},
		{"1234567890", false}, // neither +international nor 0-prefixed local
		{"06 1234 5678", true},
		{"abc", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.phone, func(t *testing.T) {
			d := validDraft()
			d.ContactInfo.Phone = tt.phone
			result := ValidateStep(d, StepContactInfo)
			assert.Equal(t, tt.valid, len(result.GetErrorsForField("contactInfo.phone")) == 0)
		})
	}
}

func TestDefaults(t *testing.T) {
	d := Defaults()

	assert.Equal(t, 0, d.PrintVolume.MonthlyA3)
	assert.Equal(t, 20, d.PrintVolume.ColourPercent)
	assert.Equal(t, models.ScanningOccasional, d.WorkflowNeeds.ScanningNeed)
	assert.Equal(t, models.SecurityStandard, d.WorkflowNeeds.SecurityLevel)
	assert.Equal(t, models.ChannelEmail, d.ContactInfo.PreferredChannel)
	assert.NotNil(t, d.CurrentSetup.Issues)
	assert.Empty(t, d.CurrentSetup.Issues)

	// A fresh default draft is not submittable.
	assert.False(t, ValidateDraft(d).Valid)
}
