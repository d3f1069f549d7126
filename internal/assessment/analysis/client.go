// internal/assessment/analysis/client.go
package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"

	stderrors "print-advisor/internal/common/errors"
	"print-advisor/internal/common/logger"
	"print-advisor/internal/common/metrics"
	"print-advisor/internal/models"
)

// Client turns a completed assessment into an analysis result. Implementations
// must be deterministic for identical requests, except for the summary text.
type Client interface {
	Analyze(ctx context.Context, req *models.AnalysisRequest) (*models.AnalysisResult, error)
}

// Engine is the in-process analysis client: catalog matching, cost modelling
// and an optional narrative generator for the summary paragraph.
type Engine struct {
	narrative Generator
	logger    logger.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithNarrative attaches a remote summary generator. Without one the engine
// composes summaries locally.
func WithNarrative(g Generator) EngineOption {
	return func(e *Engine) { e.narrative = g }
}

func NewEngine(log logger.Logger, opts ...EngineOption) *Engine {
	e := &Engine{
		logger: log.WithFields(map[string]interface{}{"component": "analysis-engine"}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Analyze(ctx context.Context, req *models.AnalysisRequest) (*models.AnalysisResult, error) {
	start := time.Now()
	if req == nil {
		return nil, stderrors.NewAnalysisFailedError(fmt.Errorf("nil analysis request"))
	}
	if req.PrintVolume.MonthlyA4 < 0 || req.PrintVolume.MonthlyA3 < 0 {
		return nil, stderrors.NewAnalysisFailedError(fmt.Errorf("negative print volume"))
	}

	recs := matchProducts(req)

	currentCost := estimateCurrentCost(req)
	primaryProduct, ok := productByID(recs[0].ProductID)
	if !ok {
		return nil, stderrors.NewAnalysisContractViolationError(
			fmt.Sprintf("recommended product %q not in catalog", recs[0].ProductID))
	}
	savings := estimateSavings(currentCost, primaryProduct, req)

	result := &models.AnalysisResult{
		CurrentCost:            currentCost,
		PotentialSavings:       savings,
		Recommendations:        recs,
		WorkflowInsights:       workflowInsights(req),
		SecurityConsiderations: securityConsiderations(req),
		ROI:                    estimateROI(savings, primaryProduct),
	}
	result.Summary = e.summarize(ctx, req, recs, savings)

	if err := ValidateResult(result); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, stderrors.NewAnalysisFailedError(err)
	}

	metrics.AnalysisDuration.Observe(time.Since(start).Seconds())
	e.logger.Info("analysis completed", map[string]interface{}{
		"primary":         recs[0].ProductID,
		"matchScore":      recs[0].MatchScore,
		"recommendations": len(recs),
		"durationMs":      time.Since(start).Milliseconds(),
	})
	return result, nil
}

func (e *Engine) summarize(ctx context.Context, req *models.AnalysisRequest, recs []models.Recommendation, savings models.SavingsEstimate) string {
	if e.narrative != nil {
		summary, err := e.narrative.Generate(ctx, req, recs)
		if err == nil {
			return summary
		}
		e.logger.Warn("narrative generation failed, using local summary", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return localSummary(req, recs, savings)
}

func productByID(id string) (Product, bool) {
	for _, p := range Catalog {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}

// ==========================
// Result contract validation
// ==========================

// resultSchema is the structural contract every result must satisfy before it
// reaches the wizard. Semantic rules (exactly one primary) are checked in code.
const resultSchema = `{
  "type": "object",
  "required": ["summary", "currentCost", "potentialSavings", "recommendations", "roi"],
  "properties": {
    "summary": {"type": "string", "minLength": 1},
    "currentCost": {
      "type": "object",
      "required": ["monthlyTotal", "annualTotal"],
      "properties": {
        "monthlyTotal": {"type": "number", "minimum": 0},
        "annualTotal": {"type": "number", "minimum": 0}
      }
    },
    "potentialSavings": {
      "type": "object",
      "required": ["monthly", "annual", "percentage"],
      "properties": {
        "monthly": {"type": "number", "minimum": 0},
        "annual": {"type": "number", "minimum": 0},
        "percentage": {"type": "number", "minimum": 0, "maximum": 100}
      }
    },
    "recommendations": {
      "type": "array",
      "minItems": 1,
      "maxItems": 3,
      "items": {
        "type": "object",
        "required": ["priority", "productId", "productName", "matchScore", "reasoning"],
        "properties": {
          "priority": {"enum": ["primary", "alternative", "budget"]},
          "productId": {"type": "string", "minLength": 1},
          "productName": {"type": "string", "minLength": 1},
          "matchScore": {"type": "integer", "minimum": 0, "maximum": 100},
          "reasoning": {"type": "array", "minItems": 1, "items": {"type": "string"}}
        }
      }
    },
    "roi": {
      "type": "object",
      "required": ["breakevenMonths", "threeYearSavings", "fiveYearSavings"]
    }
  }
}`

var resultSchemaLoader = gojsonschema.NewStringLoader(resultSchema)

// ValidateResult enforces the analysis result contract: schema-valid payload,
// exactly one primary recommendation, at most one of each other priority.
func ValidateResult(result *models.AnalysisResult) error {
	if result == nil {
		return stderrors.NewAnalysisContractViolationError("nil result")
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return stderrors.NewAnalysisContractViolationError("unmarshalable result: " + err.Error())
	}

	validation, err := gojsonschema.Validate(resultSchemaLoader, gojsonschema.NewBytesLoader(payload))
	if err != nil {
		return stderrors.NewAnalysisContractViolationError("schema validation error: " + err.Error())
	}
	if !validation.Valid() {
		var msgs []string
		for _, desc := range validation.Errors() {
			msgs = append(msgs, desc.String())
		}
		return stderrors.NewAnalysisContractViolationError(strings.Join(msgs, "; "))
	}

	counts := map[string]int{}
	for _, rec := range result.Recommendations {
		counts[rec.Priority]++
	}
	if counts[models.PriorityPrimary] != 1 {
		return stderrors.NewAnalysisContractViolationError(
			fmt.Sprintf("expected exactly 1 primary recommendation, got %d", counts[models.PriorityPrimary]))
	}
	if counts[models.PriorityAlternative] > 1 || counts[models.PriorityBudget] > 1 {
		return stderrors.NewAnalysisContractViolationError("duplicate alternative or budget recommendation")
	}
	return nil
}
