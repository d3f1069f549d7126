// internal/assessment/wizard/machine.go
package wizard

import (
	"context"
	"strconv"
	"sync"
	"time"

	"print-advisor/internal/assessment/analysis"
	"print-advisor/internal/assessment/export"
	"print-advisor/internal/assessment/notify"
	"print-advisor/internal/assessment/schema"
	"print-advisor/internal/assessment/store"
	stderrors "print-advisor/internal/common/errors"
	"print-advisor/internal/common/logger"
	"print-advisor/internal/common/metrics"
	"print-advisor/internal/models"
)

// State is the wizard lifecycle phase.
type State string

const (
	StateEditing   State = "editing"
	StateAnalyzing State = "analyzing"
	StateCompleted State = "completed"
)

// Snapshot is a consistent read of the machine for API responses.
type Snapshot struct {
	SessionID   string                   `json:"sessionId"`
	State       State                    `json:"state"`
	CurrentStep int                      `json:"currentStep"`
	HighestStep int                      `json:"highestStep"`
	TotalSteps  int                      `json:"totalSteps"`
	Draft       *models.AssessmentDraft  `json:"draft"`
	Result      *models.AnalysisResult   `json:"result,omitempty"`
	Validation  *schema.ValidationResult `json:"validation,omitempty"`
	LastError   string                   `json:"lastError,omitempty"`
}

// Machine drives one assessment session through the six steps, submission and
// completion. All public methods are safe for concurrent use; internally the
// machine is a single logical thread of control.
//
// The lock is released around the analysis call so Reset and status reads stay
// responsive; a monotonic submission id guards against a stale analysis
// response landing after a Reset.
type Machine struct {
	mu sync.Mutex

	sessionID   string
	state       State
	currentStep int
	highestStep int
	draft       *models.AssessmentDraft
	result      *models.AnalysisResult
	lastError   string

	analyzing     bool
	submissionSeq uint64

	store           store.Store
	analysisClient  analysis.Client
	notifier        notify.Notifier
	exporter        export.Exporter
	logger          logger.Logger
	analysisTimeout time.Duration
	now             func() time.Time
}

type Deps struct {
	Store           store.Store
	AnalysisClient  analysis.Client
	Notifier        notify.Notifier
	Exporter        export.Exporter
	Logger          logger.Logger
	AnalysisTimeout time.Duration
}

func NewMachine(sessionID string, deps Deps) *Machine {
	timeout := deps.AnalysisTimeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Machine{
		sessionID:       sessionID,
		state:           StateEditing,
		currentStep:     1,
		highestStep:     1,
		draft:           schema.Defaults(),
		store:           deps.Store,
		analysisClient:  deps.AnalysisClient,
		notifier:        deps.Notifier,
		exporter:        deps.Exporter,
		logger:          deps.Logger.WithFields(map[string]interface{}{"sessionId": sessionID}),
		analysisTimeout: timeout,
		now:             time.Now,
	}
}

// Resume replaces the fresh draft with stored progress when a valid snapshot
// exists. Reports whether anything was restored.
func (m *Machine) Resume(ctx context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateEditing || m.analyzing {
		return false
	}

	record := m.store.Load(ctx)
	if record == nil {
		return false
	}

	step := record.CurrentStep
	if step < 1 {
		step = 1
	}
	if step > schema.TotalSteps {
		step = schema.TotalSteps
	}

	m.draft = record.Data.Clone()
	m.currentStep = step
	m.highestStep = step
	m.lastError = ""

	m.logger.Info("session resumed from stored progress", map[string]interface{}{
		"step":    step,
		"savedAt": record.SavedAt(),
	})
	return true
}

// Snapshot returns a consistent copy of the machine state.
func (m *Machine) Snapshot() *Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	state := m.state
	if m.analyzing {
		state = StateAnalyzing
	}
	return &Snapshot{
		SessionID:   m.sessionID,
		State:       state,
		CurrentStep: m.currentStep,
		HighestStep: m.highestStep,
		TotalSteps:  schema.TotalSteps,
		Draft:       m.draft.Clone(),
		Result:      m.result,
		LastError:   m.lastError,
	}
}

// ==========================
// Navigation
// ==========================

// GoToStep jumps to any previously reached step. Clears a lingering error.
func (m *Machine) GoToStep(ctx context.Context, step int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.requireEditing("goToStep"); err != nil {
		return err
	}
	if step < 1 || step > m.highestStep {
		return stderrors.NewInvalidStateForCallError("goToStep",
			"step "+strconv.Itoa(step)+" not yet reached")
	}

	m.currentStep = step
	m.lastError = ""
	m.persist(ctx)
	return nil
}

// NextStep validates the current step and advances. On the final step it
// delegates to Submit.
func (m *Machine) NextStep(ctx context.Context) (*schema.ValidationResult, error) {
	m.mu.Lock()

	if err := m.requireEditing("nextStep"); err != nil {
		m.mu.Unlock()
		return nil, err
	}

	vr := schema.ValidateStep(m.draft, m.currentStep)
	if !vr.Valid {
		metrics.StepValidationFailures.WithLabelValues(strconv.Itoa(m.currentStep)).Inc()
		m.mu.Unlock()
		return vr, nil
	}

	if m.currentStep == schema.TotalSteps {
		m.mu.Unlock()
		return vr, m.Submit(ctx)
	}

	m.currentStep++
	if m.currentStep > m.highestStep {
		m.highestStep = m.currentStep
	}
	m.lastError = ""
	m.persist(ctx)
	m.mu.Unlock()
	return vr, nil
}

// PrevStep moves back one step without validating; partial answers are kept.
func (m *Machine) PrevStep(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.requireEditing("prevStep"); err != nil {
		return err
	}
	if m.currentStep > 1 {
		m.currentStep--
		m.persist(ctx)
	}
	return nil
}

// ==========================
// Draft mutation
// ==========================

func (m *Machine) SetBusinessProfile(ctx context.Context, v models.BusinessProfile) error {
	return m.mutate(ctx, "setBusinessProfile", func(d *models.AssessmentDraft) {
		d.BusinessProfile = v
	})
}

func (m *Machine) SetCurrentSetup(ctx context.Context, v models.CurrentSetup) error {
	return m.mutate(ctx, "setCurrentSetup", func(d *models.AssessmentDraft) {
		d.CurrentSetup = v
	})
}

func (m *Machine) SetPrintVolume(ctx context.Context, v models.PrintVolume) error {
	return m.mutate(ctx, "setPrintVolume", func(d *models.AssessmentDraft) {
		d.PrintVolume = v
	})
}

func (m *Machine) SetWorkflowNeeds(ctx context.Context, v models.WorkflowNeeds) error {
	return m.mutate(ctx, "setWorkflowNeeds", func(d *models.AssessmentDraft) {
		d.WorkflowNeeds = v
	})
}

func (m *Machine) SetBudgetTimeline(ctx context.Context, v models.BudgetTimeline) error {
	return m.mutate(ctx, "setBudgetTimeline", func(d *models.AssessmentDraft) {
		d.BudgetTimeline = v
	})
}

func (m *Machine) SetContactInfo(ctx context.Context, v models.ContactInfo) error {
	return m.mutate(ctx, "setContactInfo", func(d *models.AssessmentDraft) {
		d.ContactInfo = v
	})
}

func (m *Machine) mutate(ctx context.Context, op string, apply func(*models.AssessmentDraft)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.requireEditing(op); err != nil {
		return err
	}
	apply(m.draft)
	m.persist(ctx)
	return nil
}

// ==========================
// Submission
// ==========================

// Submit runs the two-phase pipeline: full validation, bounded analysis call,
// then fire-and-forget notification. Only legal while editing the final step.
// On success the machine completes and the persisted progress is purged; on
// failure the draft is retained and the machine returns to editing.
func (m *Machine) Submit(ctx context.Context) error {
	m.mu.Lock()

	if m.state == StateCompleted {
		m.mu.Unlock()
		return stderrors.NewInvalidStateForCallError("submit", string(StateCompleted))
	}
	if m.analyzing {
		m.mu.Unlock()
		return stderrors.NewSubmissionInFlightError()
	}
	if m.currentStep != schema.TotalSteps {
		m.mu.Unlock()
		return stderrors.NewInvalidStateForCallError("submit",
			"editing step "+strconv.Itoa(m.currentStep)+" of "+strconv.Itoa(schema.TotalSteps))
	}

	if vr := schema.ValidateDraft(m.draft); !vr.Valid {
		m.mu.Unlock()
		metrics.SubmissionsTotal.WithLabelValues("validation_failed").Inc()
		return stderrors.NewValidationFailedError(
			strconv.Itoa(len(vr.Errors)) + " field(s) failed validation")
	}

	m.analyzing = true
	m.submissionSeq++
	seq := m.submissionSeq
	req := models.AnalysisRequestFrom(m.draft)
	draftCopy := m.draft.Clone()
	finalStep := m.currentStep
	m.mu.Unlock()

	start := m.now()
	actx, cancel := context.WithTimeout(ctx, m.analysisTimeout)
	result, err := m.analysisClient.Analyze(actx, req)
	cancel()
	if err != nil && actx.Err() == context.DeadlineExceeded {
		err = stderrors.NewAnalysisTimeoutError(m.analysisTimeout)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if seq != m.submissionSeq {
		// The session was reset while analysis was in flight. The response
		// belongs to a dead submission and must not touch the machine.
		m.logger.Info("discarding stale analysis response", map[string]interface{}{
			"submission": seq,
		})
		return stderrors.NewInvalidStateForCallError("submit", "session reset during analysis")
	}
	m.analyzing = false

	if err != nil {
		m.state = StateEditing
		m.currentStep = finalStep
		m.lastError = userFacingSubmitError(err)
		metrics.SubmissionsTotal.WithLabelValues("failed").Inc()
		m.logger.WithError(err).Error("submission failed", map[string]interface{}{
			"durationMs": m.now().Sub(start).Milliseconds(),
		})
		return err
	}

	m.result = result
	m.state = StateCompleted
	m.lastError = ""
	metrics.SubmissionsTotal.WithLabelValues("success").Inc()

	if m.notifier != nil {
		m.notifier.Enqueue(&notify.Message{
			SessionID:   m.sessionID,
			SubmittedAt: m.now(),
			Draft:       draftCopy,
			Result:      result,
		})
	}
	m.store.Clear(ctx)

	m.logger.Info("assessment completed", map[string]interface{}{
		"durationMs": m.now().Sub(start).Milliseconds(),
		"primary":    primaryID(result),
	})
	return nil
}

// Reset returns the machine to a fresh Editing(1) with default answers. Legal
// in every state; an in-flight analysis response is invalidated.
func (m *Machine) Reset(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.submissionSeq++
	m.analyzing = false
	m.state = StateEditing
	m.currentStep = 1
	m.highestStep = 1
	m.draft = schema.Defaults()
	m.result = nil
	m.lastError = ""
	m.store.Clear(ctx)

	m.logger.Info("session reset", nil)
}

// ExportReport renders the completed assessment. Only legal in Completed;
// failures are retryable and leave the state untouched.
func (m *Machine) ExportReport(ctx context.Context) (*export.Artifact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateCompleted {
		return nil, stderrors.NewInvalidStateForCallError("exportReport", string(m.state))
	}

	return m.exporter.Export(m.draft, m.result)
}

// ==========================
// Internals
// ==========================

// requireEditing rejects operations outside the editing phase. Callers hold
// the lock.
func (m *Machine) requireEditing(op string) error {
	if m.analyzing {
		return stderrors.NewSubmissionInFlightError()
	}
	if m.state != StateEditing {
		return stderrors.NewInvalidStateForCallError(op, string(m.state))
	}
	return nil
}

// persist snapshots the draft. Failures are absorbed by the store; the wizard
// never learns about them. Callers hold the lock.
func (m *Machine) persist(ctx context.Context) {
	m.store.Save(ctx, m.draft.Clone(), m.currentStep)
}

func userFacingSubmitError(err error) string {
	switch stderrors.CodeOf(err) {
	case stderrors.ErrCodeAnalysisTimeout:
		return "The analysis took too long. Your answers are saved; please try again."
	case stderrors.ErrCodeAnalysisContractViolation:
		return "We could not produce a reliable recommendation. Your answers are saved; please try again later."
	default:
		return "The analysis failed. Your answers are saved; please try again."
	}
}

func primaryID(result *models.AnalysisResult) string {
	if p := result.Primary(); p != nil {
		return p.ProductID
	}
	return ""
}
