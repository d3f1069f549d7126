// internal/assessment/analysis/narrative.go
package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	stderrors "print-advisor/internal/common/errors"
	httpclient "print-advisor/internal/common/http"
	"print-advisor/internal/common/logger"
	"print-advisor/internal/models"
)

// Generator produces the human-readable summary paragraph for a result. The
// engine falls back to a locally composed summary when generation fails, so
// implementations may error freely.
type Generator interface {
	Generate(ctx context.Context, req *models.AnalysisRequest, recs []models.Recommendation) (string, error)
}

// HTTPGenerator calls an external narrative service.
type HTTPGenerator struct {
	baseURL string
	apiKey  string
	client  *httpclient.Client
	logger  logger.Logger
}

func NewHTTPGenerator(baseURL, apiKey string, timeout time.Duration, log logger.Logger) *HTTPGenerator {
	return &HTTPGenerator{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  httpclient.NewClient(timeout),
		logger:  log.WithFields(map[string]interface{}{"component": "narrative-client"}),
	}
}

type narrativeRequest struct {
	Request         *models.AnalysisRequest `json:"request"`
	Recommendations []models.Recommendation `json:"recommendations"`
}

type narrativeResponse struct {
	Summary string `json:"summary"`
}

func (g *HTTPGenerator) Generate(ctx context.Context, req *models.AnalysisRequest, recs []models.Recommendation) (string, error) {
	payload, err := json.Marshal(narrativeRequest{Request: req, Recommendations: recs})
	if err != nil {
		return "", stderrors.NewNarrativeUnavailableError("marshal narrative request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/narrative", bytes.NewReader(payload))
	if err != nil {
		return "", stderrors.NewNarrativeUnavailableError("build narrative request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return "", stderrors.NewNarrativeUnavailableError("narrative service unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		g.logger.Warn("narrative service returned non-200", map[string]interface{}{
			"status": resp.StatusCode,
			"body":   string(body),
		})
		return "", stderrors.NewNarrativeUnavailableError(
			fmt.Sprintf("narrative service status %d", resp.StatusCode), nil)
	}

	var out narrativeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", stderrors.NewNarrativeUnavailableError("decode narrative response", err)
	}
	if strings.TrimSpace(out.Summary) == "" {
		return "", stderrors.NewNarrativeUnavailableError("narrative service returned empty summary", nil)
	}
	return out.Summary, nil
}

// localSummary composes a deterministic summary from the match outcome. Used
// when no generator is configured or the remote one fails.
func localSummary(req *models.AnalysisRequest, recs []models.Recommendation, savings models.SavingsEstimate) string {
	var b strings.Builder

	total := req.PrintVolume.TotalMonthly()
	fmt.Fprintf(&b, "Based on a monthly volume of %d pages", total)
	if req.PrintVolume.MonthlyA3 > 0 {
		fmt.Fprintf(&b, " (including %d A3 pages)", req.PrintVolume.MonthlyA3)
	}

	for _, rec := range recs {
		if rec.Priority == models.PriorityPrimary {
			fmt.Fprintf(&b, ", the %s is the strongest fit for your organisation with a match score of %d/100.",
				rec.ProductName, rec.MatchScore)
			break
		}
	}

	if savings.Monthly > 0 {
		fmt.Fprintf(&b, " Switching could save an estimated EUR %.0f per month (%.0f%% of current spend).",
			savings.Monthly, savings.Percentage)
	} else {
		b.WriteString(" Current spend is already competitive; the proposal focuses on capability and reliability gains.")
	}

	if len(recs) > 1 {
		b.WriteString(" Alternative configurations are included for comparison.")
	}
	return b.String()
}
