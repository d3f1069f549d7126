// internal/assessment/analysis/insights.go
package analysis

import (
	"fmt"

	"print-advisor/internal/models"
)

// workflowInsights derives process-improvement observations from the stated
// document mix and workflow needs.
func workflowInsights(req *models.AnalysisRequest) []models.WorkflowInsight {
	var out []models.WorkflowInsight

	switch req.WorkflowNeeds.ScanningNeed {
	case models.ScanningHeavy:
		out = append(out, models.WorkflowInsight{
			Category:    "capture",
			Title:       "Batch scanning workflows",
			Description: "Heavy scanning volume justifies single-pass duplex capture with automated routing to your document system.",
			Impact:      models.ImpactHigh,
		})
	case models.ScanningFrequent:
		out = append(out, models.WorkflowInsight{
			Category:    "capture",
			Title:       "Scan-to-folder shortcuts",
			Description: "Frequent scanning benefits from preset destinations and searchable PDF output.",
			Impact:      models.ImpactMedium,
		})
	}

	if req.WorkflowNeeds.CloudIntegration {
		out = append(out, models.WorkflowInsight{
			Category:    "integration",
			Title:       "Direct cloud connectors",
			Description: "Printing and scanning straight to your cloud storage removes the intermediate file-share hop.",
			Impact:      models.ImpactMedium,
		})
	}
	if req.WorkflowNeeds.MobilePrinting {
		out = append(out, models.WorkflowInsight{
			Category:    "mobility",
			Title:       "Mobile release printing",
			Description: "Staff can submit from phones and release jobs at any device, cutting abandoned print-outs.",
			Impact:      models.ImpactMedium,
		})
	}

	if containsStr(req.WorkflowNeeds.DocumentTypes, models.DocInvoices) {
		out = append(out, models.WorkflowInsight{
			Category:    "automation",
			Title:       "Invoice capture automation",
			Description: "Invoice volume is a candidate for OCR-based capture feeding your accounting workflow.",
			Impact:      models.ImpactHigh,
		})
	}

	if containsStr(req.CurrentSetup.Issues, models.IssueFrequentBreakdowns) ||
		containsStr(req.CurrentSetup.Issues, models.IssuePaperJams) {
		out = append(out, models.WorkflowInsight{
			Category:    "reliability",
			Title:       "Downtime reduction",
			Description: "Reported reliability issues point to lost staff time; a service-level agreement with next-day response closes that gap.",
			Impact:      models.ImpactHigh,
		})
	}

	if len(out) == 0 {
		out = append(out, models.WorkflowInsight{
			Category:    "baseline",
			Title:       "Standardised print environment",
			Description: "A single managed device simplifies supplies, support and user training.",
			Impact:      models.ImpactLow,
		})
	}
	return out
}

// securityConsiderations lists the controls the proposal should include given
// the stated security level and industry.
func securityConsiderations(req *models.AnalysisRequest) []string {
	var out []string

	switch req.WorkflowNeeds.SecurityLevel {
	case models.SecurityEnterprise:
		out = append(out,
			"Card-authenticated pull printing so output never sits unattended in trays",
			"Full audit logging of print, copy and scan activity",
			"Hard-disk encryption with end-of-lease data erasure certification")
	case models.SecurityHigh:
		out = append(out,
			"PIN or badge release for confidential output",
			"Encrypted hard disk with overwrite on job completion")
	default:
		out = append(out, "Standard network isolation and firmware update policy")
	}

	switch req.BusinessProfile.Industry {
	case models.IndustryHealthcare:
		out = append(out, "Patient data handling requires GDPR-compliant processing agreements with the service provider")
	case models.IndustryLegal:
		out = append(out, "Client-confidential documents call for per-user access control on scan destinations")
	case models.IndustryFinance:
		out = append(out, "Financial records retention policies should extend to scanned document archives")
	case models.IndustryGovernment:
		out = append(out, fmt.Sprintf("Public-sector procurement (%s) typically mandates certified data-wipe procedures", req.BudgetTimeline.OrganisationType))
	}

	return out
}

func containsStr(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
