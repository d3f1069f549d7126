// internal/assessment/wizard/machine_test.go
package wizard

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"print-advisor/internal/assessment/analysis"
	"print-advisor/internal/assessment/export"
	"print-advisor/internal/assessment/notify"
	"print-advisor/internal/assessment/schema"
	stderrors "print-advisor/internal/common/errors"
	"print-advisor/internal/common/logger"
	"print-advisor/internal/models"
)

// ==========================
// Fakes
// ==========================

// memStore is an in-memory Store with call counters.
type memStore struct {
	mu     sync.Mutex
	record *models.StoredProgress
	saves  int
	clears int
}

func (s *memStore) Save(_ context.Context, draft *models.AssessmentDraft, step int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	s.record = &models.StoredProgress{
		Data:        draft,
		CurrentStep: step,
		Timestamp:   time.Now().UnixMilli(),
	}
}

func (s *memStore) Load(_ context.Context) *models.StoredProgress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record
}

func (s *memStore) Clear(_ context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clears++
	s.record = nil
}

func (s *memStore) saveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

func (s *memStore) stored() *models.StoredProgress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record
}

// countingAnalysis wraps the real engine and counts Analyze calls. When gate
// is set, Analyze blocks until the gate closes.
type countingAnalysis struct {
	engine *analysis.Engine
	calls  atomic.Int64
	gate   chan struct{}
	err    error
}

func (c *countingAnalysis) Analyze(ctx context.Context, req *models.AnalysisRequest) (*models.AnalysisResult, error) {
	c.calls.Add(1)
	if c.gate != nil {
		select {
		case <-c.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if c.err != nil {
		return nil, c.err
	}
	return c.engine.Analyze(ctx, req)
}

type recordingNotifier struct {
	mu   sync.Mutex
	msgs []*notify.Message
}

func (n *recordingNotifier) Enqueue(msg *notify.Message) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, msg)
	return true
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.msgs)
}

type testHarness struct {
	machine  *Machine
	store    *memStore
	analysis *countingAnalysis
	notifier *recordingNotifier
}

func newHarness(t *testing.T) *testHarness {
	st := &memStore{}
	an := &countingAnalysis{engine: analysis.NewEngine(logger.NewTestLogger(t))}
	no := &recordingNotifier{}

	m := NewMachine("sess-test", Deps{
		Store:           st,
		AnalysisClient:  an,
		Notifier:        no,
		Exporter:        export.NewReportExporter(logger.NewTestLogger(t)),
		Logger:          logger.NewTestLogger(t),
		AnalysisTimeout: 5 * time.Second,
	})
	return &testHarness{machine: m, store: st, analysis: an, notifier: no}
}

func fillValidDraft(t *testing.T, m *Machine) {
	ctx := context.Background()
	require.NoError(t, m.SetBusinessProfile(ctx, models.BusinessProfile{
		Industry:      models.IndustryLegal,
		OrgSize:       models.OrgSizeSmall,
		EmployeeCount: 9,
		Location:      "Utrecht",
	}))
	require.NoError(t, m.SetCurrentSetup(ctx, models.CurrentSetup{
		Brand:        models.BrandCanon,
		AgeYears:     6,
		Issues:       []string{models.IssueHighCosts},
		ContractType: models.ContractPurchase,
	}))
	require.NoError(t, m.SetPrintVolume(ctx, models.PrintVolume{
		MonthlyA4:     4000,
		MonthlyA3:     0,
		ColourPercent: 20,
	}))
	require.NoError(t, m.SetWorkflowNeeds(ctx, models.WorkflowNeeds{
		DocumentTypes: []string{models.DocContracts},
		ScanningNeed:  models.ScanningFrequent,
		SecurityLevel: models.SecurityHigh,
	}))
	require.NoError(t, m.SetBudgetTimeline(ctx, models.BudgetTimeline{
		BudgetBracket:    models.Budget100To250,
		Urgency:          models.UrgencyWithinQuarter,
		OrganisationType: models.OrgTypePrivate,
		Acquisition:      models.AcquisitionLease,
	}))
	require.NoError(t, m.SetContactInfo(ctx, models.ContactInfo{
		FirstName:        "Eva",
		LastName:         "Jansen",
		Email:            "eva@jansenlaw.nl",
		Phone:            "+31 6 1122 3344",
		Company:          "Jansen Law",
		PreferredChannel: models.ChannelEmail,
	}))
}

// advanceToFinalStep walks a fully-filled draft forward to the last step
// without triggering submission.
func advanceToFinalStep(t *testing.T, m *Machine) {
	ctx := context.Background()
	for i := 0; i < schema.TotalSteps-1; i++ {
		vr, err := m.NextStep(ctx)
		require.NoError(t, err)
		require.True(t, vr.Valid, "step %d must validate", i+1)
	}
	require.Equal(t, schema.TotalSteps, m.Snapshot().CurrentStep)
}

// ==========================
// Lifecycle
// ==========================

func TestMachine_InitialState(t *testing.T) {
	h := newHarness(t)

	snap := h.machine.Snapshot()
	assert.Equal(t, StateEditing, snap.State)
	assert.Equal(t, 1, snap.CurrentStep)
	assert.Equal(t, schema.TotalSteps, snap.TotalSteps)
	assert.Equal(t, schema.Defaults(), snap.Draft)
	assert.Nil(t, snap.Result)
}

func TestMachine_NextStepValidatesBeforeAdvancing(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	// Step 1 is empty: validation errors, step unchanged.
	vr, err := h.machine.NextStep(ctx)
	require.NoError(t, err)
	require.NotNil(t, vr)
	assert.False(t, vr.Valid)
	assert.Equal(t, 1, h.machine.Snapshot().CurrentStep)

	require.NoError(t, h.machine.SetBusinessProfile(ctx, models.BusinessProfile{
		Industry:      models.IndustryRetail,
		OrgSize:       models.OrgSizeMedium,
		EmployeeCount: 25,
		Location:      "Breda",
	}))

	vr, err = h.machine.NextStep(ctx)
	require.NoError(t, err)
	assert.True(t, vr.Valid)
	assert.Equal(t, 2, h.machine.Snapshot().CurrentStep)
}

func TestMachine_PrevStepSkipsValidation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	fillValidDraft(t, h.machine)

	_, err := h.machine.NextStep(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, h.machine.Snapshot().CurrentStep)

	// Break step 2, then go back: allowed, partial answers kept.
	require.NoError(t, h.machine.SetCurrentSetup(ctx, models.CurrentSetup{Brand: "not-a-brand"}))
	require.NoError(t, h.machine.PrevStep(ctx))
	snap := h.machine.Snapshot()
	assert.Equal(t, 1, snap.CurrentStep)
	assert.Equal(t, "not-a-brand", snap.Draft.CurrentSetup.Brand)
}

func TestMachine_GoToStepBoundedByHighestReached(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	fillValidDraft(t, h.machine)

	for i := 0; i < 3; i++ {
		_, err := h.machine.NextStep(ctx)
		require.NoError(t, err)
	}
	require.Equal(t, 4, h.machine.Snapshot().CurrentStep)

	require.NoError(t, h.machine.GoToStep(ctx, 2))
	assert.Equal(t, 2, h.machine.Snapshot().CurrentStep)

	// Forward to the highest reached step is allowed, beyond it is not.
	require.NoError(t, h.machine.GoToStep(ctx, 4))
	err := h.machine.GoToStep(ctx, 5)
	require.Error(t, err)
	assert.Equal(t, stderrors.ErrCodeInvalidStateForCall, stderrors.CodeOf(err))
}

func TestMachine_EveryMutationPersists(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	before := h.store.saveCount()
	require.NoError(t, h.machine.SetPrintVolume(ctx, models.PrintVolume{MonthlyA4: 100}))
	_, err := h.machine.NextStep(ctx) // invalid, no save
	require.NoError(t, err)
	require.NoError(t, h.machine.PrevStep(ctx)) // step 1, no-op move but state save on >1 only

	assert.Greater(t, h.store.saveCount(), before)
	stored := h.store.stored()
	require.NotNil(t, stored)
	assert.Equal(t, 100, stored.Data.PrintVolume.MonthlyA4)
}

// ==========================
// Resume
// ==========================

func TestMachine_ResumeRestoresDraftAndStep(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	fillValidDraft(t, h.machine)
	_, err := h.machine.NextStep(ctx)
	require.NoError(t, err)
	_, err = h.machine.NextStep(ctx)
	require.NoError(t, err)

	// New machine over the same store, as after a page reload.
	fresh := NewMachine("sess-test", Deps{
		Store:          h.store,
		AnalysisClient: h.analysis,
		Notifier:       h.notifier,
		Exporter:       export.NewReportExporter(logger.NewNoOpLogger()),
		Logger:         logger.NewNoOpLogger(),
	})

	require.True(t, fresh.Resume(ctx))
	snap := fresh.Snapshot()
	assert.Equal(t, 3, snap.CurrentStep)
	assert.Equal(t, "Jansen Law", snap.Draft.ContactInfo.Company)
}

func TestMachine_ResumeWithoutStoredProgress(t *testing.T) {
	h := newHarness(t)
	assert.False(t, h.machine.Resume(context.Background()))
	assert.Equal(t, schema.Defaults(), h.machine.Snapshot().Draft)
}

// ==========================
// Submission
// ==========================

func TestMachine_SubmitCompletesAndNotifies(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	fillValidDraft(t, h.machine)
	advanceToFinalStep(t, h.machine)

	require.NoError(t, h.machine.Submit(ctx))

	snap := h.machine.Snapshot()
	assert.Equal(t, StateCompleted, snap.State)
	require.NotNil(t, snap.Result)
	assert.NotNil(t, snap.Result.Primary())

	assert.Equal(t, 1, h.notifier.count())
	assert.Nil(t, h.store.stored(), "completed submission must purge stored progress")
}

func TestMachine_SubmitRequiresFinalStep(t *testing.T) {
	h := newHarness(t)
	fillValidDraft(t, h.machine)

	// A complete draft is not enough; submission is bound to the last step.
	err := h.machine.Submit(context.Background())
	require.Error(t, err)
	assert.Equal(t, stderrors.ErrCodeInvalidStateForCall, stderrors.CodeOf(err))
	assert.Equal(t, int64(0), h.analysis.calls.Load())
	assert.Equal(t, StateEditing, h.machine.Snapshot().State)
}

func TestMachine_SubmitRejectsInvalidDraft(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	fillValidDraft(t, h.machine)
	advanceToFinalStep(t, h.machine)

	// Break an earlier answer after reaching the last step.
	require.NoError(t, h.machine.SetContactInfo(ctx, models.ContactInfo{
		FirstName: "Eva",
		LastName:  "Jansen",
		Email:     "not-an-email",
	}))

	err := h.machine.Submit(ctx)
	require.Error(t, err)
	assert.Equal(t, stderrors.ErrCodeValidationFailed, stderrors.CodeOf(err))
	assert.Equal(t, int64(0), h.analysis.calls.Load())
	assert.Equal(t, StateEditing, h.machine.Snapshot().State)
}

func TestMachine_AnalysisFailureReturnsToEditing(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	fillValidDraft(t, h.machine)
	advanceToFinalStep(t, h.machine)
	h.analysis.err = stderrors.NewAnalysisFailedError(assert.AnError)

	err := h.machine.Submit(ctx)
	require.Error(t, err)
	assert.True(t, stderrors.IsRetryable(err))

	snap := h.machine.Snapshot()
	assert.Equal(t, StateEditing, snap.State)
	assert.Equal(t, "Jansen Law", snap.Draft.ContactInfo.Company, "draft must survive a failed analysis")
	assert.NotEmpty(t, snap.LastError)
	assert.Equal(t, 0, h.notifier.count())

	// Retry after the outage succeeds.
	h.analysis.err = nil
	require.NoError(t, h.machine.Submit(ctx))
	assert.Equal(t, StateCompleted, h.machine.Snapshot().State)
}

func TestMachine_DoubleSubmitRunsOneAnalysis(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	fillValidDraft(t, h.machine)
	advanceToFinalStep(t, h.machine)
	h.analysis.gate = make(chan struct{})

	firstDone := make(chan error, 1)
	go func() { firstDone <- h.machine.Submit(ctx) }()

	require.Eventually(t, func() bool {
		return h.machine.Snapshot().State == StateAnalyzing
	}, 2*time.Second, 5*time.Millisecond)

	err := h.machine.Submit(ctx)
	require.Error(t, err)
	assert.Equal(t, stderrors.ErrCodeSubmissionInFlight, stderrors.CodeOf(err))

	close(h.analysis.gate)
	require.NoError(t, <-firstDone)

	assert.Equal(t, int64(1), h.analysis.calls.Load(), "exactly one analysis call for a double submit")
	assert.Equal(t, StateCompleted, h.machine.Snapshot().State)
	assert.Equal(t, 1, h.notifier.count())
}

func TestMachine_ResetDuringAnalysisDiscardsStaleResult(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	fillValidDraft(t, h.machine)
	advanceToFinalStep(t, h.machine)
	h.analysis.gate = make(chan struct{})

	submitDone := make(chan error, 1)
	go func() { submitDone <- h.machine.Submit(ctx) }()

	require.Eventually(t, func() bool {
		return h.machine.Snapshot().State == StateAnalyzing
	}, 2*time.Second, 5*time.Millisecond)

	h.machine.Reset(ctx)
	close(h.analysis.gate)

	err := <-submitDone
	require.Error(t, err, "stale analysis response must not complete a reset session")

	snap := h.machine.Snapshot()
	assert.Equal(t, StateEditing, snap.State)
	assert.Equal(t, 1, snap.CurrentStep)
	assert.Equal(t, schema.Defaults(), snap.Draft)
	assert.Nil(t, snap.Result)
	assert.Equal(t, 0, h.notifier.count())
}

func TestMachine_SubmitViaFinalNextStep(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	fillValidDraft(t, h.machine)

	for i := 0; i < schema.TotalSteps-1; i++ {
		_, err := h.machine.NextStep(ctx)
		require.NoError(t, err)
	}
	require.Equal(t, schema.TotalSteps, h.machine.Snapshot().CurrentStep)

	_, err := h.machine.NextStep(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, h.machine.Snapshot().State)
	assert.Equal(t, int64(1), h.analysis.calls.Load())
}

// ==========================
// Completed state
// ==========================

func TestMachine_CompletedRejectsEditsAndResubmit(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	fillValidDraft(t, h.machine)
	advanceToFinalStep(t, h.machine)
	require.NoError(t, h.machine.Submit(ctx))

	err := h.machine.SetPrintVolume(ctx, models.PrintVolume{MonthlyA4: 1})
	require.Error(t, err)
	assert.Equal(t, stderrors.ErrCodeInvalidStateForCall, stderrors.CodeOf(err))

	_, err = h.machine.NextStep(ctx)
	assert.Error(t, err)

	err = h.machine.Submit(ctx)
	require.Error(t, err)
	assert.Equal(t, stderrors.ErrCodeInvalidStateForCall, stderrors.CodeOf(err))
}

func TestMachine_ExportRepeatableWithoutReanalysis(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	fillValidDraft(t, h.machine)
	advanceToFinalStep(t, h.machine)
	require.NoError(t, h.machine.Submit(ctx))
	callsAfterSubmit := h.analysis.calls.Load()

	first, err := h.machine.ExportReport(ctx)
	require.NoError(t, err)
	second, err := h.machine.ExportReport(ctx)
	require.NoError(t, err)

	assert.Equal(t, first.Filename, second.Filename)
	assert.NotEmpty(t, first.Data)
	assert.Equal(t, callsAfterSubmit, h.analysis.calls.Load(), "export must never re-run analysis")
	assert.Equal(t, StateCompleted, h.machine.Snapshot().State)
}

func TestMachine_ExportBeforeCompletionRejected(t *testing.T) {
	h := newHarness(t)

	_, err := h.machine.ExportReport(context.Background())
	require.Error(t, err)
	assert.Equal(t, stderrors.ErrCodeInvalidStateForCall, stderrors.CodeOf(err))
}

func TestMachine_ResetFromCompleted(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	fillValidDraft(t, h.machine)
	advanceToFinalStep(t, h.machine)
	require.NoError(t, h.machine.Submit(ctx))

	h.machine.Reset(ctx)

	snap := h.machine.Snapshot()
	assert.Equal(t, StateEditing, snap.State)
	assert.Equal(t, 1, snap.CurrentStep)
	assert.Equal(t, schema.Defaults(), snap.Draft)
	assert.Nil(t, snap.Result)
	assert.Nil(t, h.store.stored())
}
