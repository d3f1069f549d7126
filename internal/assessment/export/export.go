// internal/assessment/export/export.go
package export

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	stderrors "print-advisor/internal/common/errors"
	"print-advisor/internal/common/logger"
	"print-advisor/internal/common/metrics"
	"print-advisor/internal/models"
)

// Artifact is a downloadable report built from a completed assessment.
type Artifact struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Data        []byte `json:"-"`
}

// Exporter renders a completed assessment into a downloadable artifact.
// Export is repeatable: it reads the stored draft and result only and never
// triggers re-analysis.
type Exporter interface {
	Export(draft *models.AssessmentDraft, result *models.AnalysisResult) (*Artifact, error)
}

// ReportExporter produces a JSON advisory report.
type ReportExporter struct {
	logger logger.Logger
	now    func() time.Time
}

func NewReportExporter(log logger.Logger) *ReportExporter {
	return &ReportExporter{
		logger: log.WithFields(map[string]interface{}{"component": "report-exporter"}),
		now:    time.Now,
	}
}

// report is the exported document layout. Contact details are included: the
// artifact is handed to the very person who typed them in.
type report struct {
	GeneratedAt string                 `json:"generatedAt"`
	Company     string                 `json:"company"`
	Contact     models.ContactInfo     `json:"contact"`
	Assessment  models.AnalysisRequest `json:"assessment"`
	Result      models.AnalysisResult  `json:"result"`
}

func (e *ReportExporter) Export(draft *models.AssessmentDraft, result *models.AnalysisResult) (*Artifact, error) {
	if draft == nil || result == nil {
		err := stderrors.NewExportFailedError(fmt.Errorf("missing draft or result"))
		metrics.ExportsTotal.WithLabelValues("failed").Inc()
		return nil, err
	}

	doc := report{
		GeneratedAt: e.now().UTC().Format(time.RFC3339),
		Company:     draft.ContactInfo.Company,
		Contact:     draft.ContactInfo,
		Assessment:  *models.AnalysisRequestFrom(draft),
		Result:      *result,
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		metrics.ExportsTotal.WithLabelValues("failed").Inc()
		return nil, stderrors.NewExportFailedError(err)
	}

	artifact := &Artifact{
		Filename:    e.filename(draft.ContactInfo.Company),
		ContentType: "application/json",
		Data:        data,
	}

	metrics.ExportsTotal.WithLabelValues("success").Inc()
	e.logger.Info("report exported", map[string]interface{}{
		"filename": artifact.Filename,
		"bytes":    len(data),
	})
	return artifact, nil
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-z0-9-]+`)

// filename derives "print-assessment-<company>-<date>.json" from the company
// name, lowercased with unsafe characters collapsed to hyphens.
func (e *ReportExporter) filename(company string) string {
	slug := strings.ToLower(strings.TrimSpace(company))
	slug = unsafeFilenameChars.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = "assessment"
	}
	return fmt.Sprintf("print-assessment-%s-%s.json", slug, e.now().UTC().Format("2006-01-02"))
}
