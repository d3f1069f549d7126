// internal/assessment/notify/notify_test.go
package notify

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"print-advisor/internal/common/logger"
	"print-advisor/internal/models"
)

func sampleMessage() *Message {
	return &Message{
		SessionID:   "sess-123",
		SubmittedAt: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
		Draft: &models.AssessmentDraft{
			BusinessProfile: models.BusinessProfile{
				Industry: models.IndustryLegal,
				OrgSize:  models.OrgSizeSmall,
			},
			PrintVolume: models.PrintVolume{MonthlyA4: 4000},
			BudgetTimeline: models.BudgetTimeline{
				BudgetBracket: models.Budget100To250,
				Urgency:       models.UrgencyImmediate,
			},
			ContactInfo: models.ContactInfo{
				FirstName: "Jan",
				LastName:  "de Boer",
				Email:     "jan@deboerlegal.nl",
				Phone:     "+31 6 9876 5432",
				Company:   "De Boer Legal",
			},
		},
		Result: &models.AnalysisResult{
			Summary: "summary",
			Recommendations: []models.Recommendation{{
				Priority:    models.PriorityPrimary,
				ProductID:   "ap-240",
				ProductName: "AccessPrint 240",
				MatchScore:  95,
				Reasoning:   []string{"fits"},
			}},
			PotentialSavings: models.SavingsEstimate{Monthly: 42},
		},
	}
}

// ==========================
// Lead record sink
// ==========================

func TestLeadRecordSink_InsertsRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO leads").
		WithArgs(
			"sess-123",
			sqlmock.AnyArg(),
			"De Boer Legal",
			"Jan de Boer",
			"jan@deboerlegal.nl",
			"+31 6 9876 5432",
			models.IndustryLegal,
			models.OrgSizeSmall,
			4000,
			"ap-240",
			95,
			sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	sink := NewLeadRecordSink(db)
	require.NoError(t, sink.Deliver(context.Background(), sampleMessage()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeadRecordSink_InsertFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO leads").WillReturnError(assert.AnError)

	sink := NewLeadRecordSink(db)
	assert.Error(t, sink.Deliver(context.Background(), sampleMessage()))
}

// ==========================
// Email and SNS sinks
// ==========================

type fakeEmailSender struct {
	mu     sync.Mutex
	inputs []*ses.SendEmailInput
	err    error
}

func (f *fakeEmailSender) SendEmail(_ context.Context, input *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inputs = append(f.inputs, input)
	if f.err != nil {
		return nil, f.err
	}
	return &ses.SendEmailOutput{}, nil
}

func TestEmailSink_ComposesLeadSummary(t *testing.T) {
	sender := &fakeEmailSender{}
	sink := NewEmailSink(sender, "noreply@printadvisor.nl", "sales@printadvisor.nl")

	require.NoError(t, sink.Deliver(context.Background(), sampleMessage()))
	require.Len(t, sender.inputs, 1)

	input := sender.inputs[0]
	assert.Equal(t, "noreply@printadvisor.nl", *input.Source)
	assert.Equal(t, []string{"sales@printadvisor.nl"}, input.Destination.ToAddresses)
	assert.Contains(t, *input.Message.Subject.Data, "De Boer Legal")

	body := *input.Message.Body.Text.Data
	assert.Contains(t, body, "jan@deboerlegal.nl")
	assert.Contains(t, body, "AccessPrint 240")
	assert.Contains(t, body, "4000 pages")
}

func TestEmailSink_SendFailure(t *testing.T) {
	sender := &fakeEmailSender{err: assert.AnError}
	sink := NewEmailSink(sender, "noreply@printadvisor.nl", "sales@printadvisor.nl")
	assert.Error(t, sink.Deliver(context.Background(), sampleMessage()))
}

type fakePublisher struct {
	mu     sync.Mutex
	inputs []*sns.PublishInput
	err    error
}

func (f *fakePublisher) Publish(_ context.Context, input *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inputs = append(f.inputs, input)
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{}, nil
}

func TestSNSSink_PublishesLeadEvent(t *testing.T) {
	publisher := &fakePublisher{}
	sink := NewSNSSink(publisher, "arn:aws:sns:eu-west-1:123:leads")

	require.NoError(t, sink.Deliver(context.Background(), sampleMessage()))
	require.Len(t, publisher.inputs, 1)

	input := publisher.inputs[0]
	assert.Equal(t, "arn:aws:sns:eu-west-1:123:leads", *input.TopicArn)
	assert.Contains(t, *input.Message, `"product":"ap-240"`)
	assert.Contains(t, *input.Message, `"sessionId":"sess-123"`)
}

// ==========================
// Dispatcher
// ==========================

type recordingSink struct {
	name string
	mu   sync.Mutex
	got  []*Message
	err  error
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Deliver(_ context.Context, msg *Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, msg)
	return s.err
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.got)
}

func TestDispatcher_DeliversToAllSinks(t *testing.T) {
	first := &recordingSink{name: "first"}
	second := &recordingSink{name: "second"}

	d := NewDispatcher(4, []Sink{first, second}, logger.NewTestLogger(t))
	d.Start()
	defer d.Stop()

	require.True(t, d.Enqueue(sampleMessage()))

	assert.Eventually(t, func() bool {
		return first.count() == 1 && second.count() == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestDispatcher_SinkFailureDoesNotStopOthers(t *testing.T) {
	failing := &recordingSink{name: "failing", err: assert.AnError}
	healthy := &recordingSink{name: "healthy"}

	d := NewDispatcher(4, []Sink{failing, healthy}, logger.NewTestLogger(t))
	d.Start()
	defer d.Stop()

	require.True(t, d.Enqueue(sampleMessage()))

	assert.Eventually(t, func() bool {
		return healthy.count() == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestDispatcher_EnqueueNeverBlocksWhenFull(t *testing.T) {
	// No worker started: the queue fills and further enqueues are dropped.
	d := NewDispatcher(1, nil, logger.NewTestLogger(t))

	assert.True(t, d.Enqueue(sampleMessage()))

	done := make(chan bool, 1)
	go func() { done <- d.Enqueue(sampleMessage()) }()

	select {
	case accepted := <-done:
		assert.False(t, accepted, "second enqueue must be dropped, not queued")
	case <-time.After(time.Second):
		t.Fatal("Enqueue blocked on a full queue")
	}
}

func TestDispatcher_EnqueueAfterStop(t *testing.T) {
	d := NewDispatcher(4, nil, logger.NewTestLogger(t))
	d.Start()
	d.Stop()

	assert.False(t, d.Enqueue(sampleMessage()))
}

func TestDispatcher_NilMessageRejected(t *testing.T) {
	d := NewDispatcher(4, nil, logger.NewTestLogger(t))
	assert.False(t, d.Enqueue(nil))
}
