// internal/assessment/notify/sinks.go
package notify

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"github.com/elastic/go-elasticsearch/v8"

	stderrors "print-advisor/internal/common/errors"
	"print-advisor/internal/models"
)

// ==========================
// Lead record (Postgres)
// ==========================

// LeadRecordSink inserts one row per submission into the leads table.
type LeadRecordSink struct {
	db *sql.DB
}

func NewLeadRecordSink(db *sql.DB) *LeadRecordSink {
	return &LeadRecordSink{db: db}
}

func (s *LeadRecordSink) Name() string { return "lead-record" }

const insertLeadQuery = `
	INSERT INTO leads (
		session_id, submitted_at, company, contact_name, email, phone,
		industry, org_size, monthly_volume, primary_product, match_score, payload
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

func (s *LeadRecordSink) Deliver(ctx context.Context, msg *Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return stderrors.NewLeadRecordFailedError(err)
	}

	contact := msg.Draft.ContactInfo
	primary := msg.Result.Primary()
	productID, score := "", 0
	if primary != nil {
		productID, score = primary.ProductID, primary.MatchScore
	}

	_, err = s.db.ExecContext(ctx, insertLeadQuery,
		msg.SessionID,
		msg.SubmittedAt,
		contact.Company,
		strings.TrimSpace(contact.FirstName+" "+contact.LastName),
		contact.Email,
		contact.Phone,
		msg.Draft.BusinessProfile.Industry,
		msg.Draft.BusinessProfile.OrgSize,
		msg.Draft.PrintVolume.TotalMonthly(),
		productID,
		score,
		payload,
	)
	if err != nil {
		return stderrors.NewLeadRecordFailedError(err)
	}
	return nil
}

// ==========================
// Sales email (SES)
// ==========================

type emailSender interface {
	SendEmail(ctx context.Context, input *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// EmailSink mails the sales desk a summary of each new lead.
type EmailSink struct {
	sender    emailSender
	fromEmail string
	salesDesk string
}

func NewEmailSink(sender emailSender, fromEmail, salesDesk string) *EmailSink {
	return &EmailSink{sender: sender, fromEmail: fromEmail, salesDesk: salesDesk}
}

func (s *EmailSink) Name() string { return "sales-email" }

func (s *EmailSink) Deliver(ctx context.Context, msg *Message) error {
	subject := fmt.Sprintf("New printer assessment lead: %s", msg.Draft.ContactInfo.Company)
	body := s.composeBody(msg)

	_, err := s.sender.SendEmail(ctx, &ses.SendEmailInput{
		Source: aws.String(s.fromEmail),
		Destination: &sestypes.Destination{
			ToAddresses: []string{s.salesDesk},
		},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: aws.String(subject)},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: aws.String(body)},
			},
		},
	})
	if err != nil {
		return stderrors.NewNotificationSendFailedError(s.Name(), err)
	}
	return nil
}

func (s *EmailSink) composeBody(msg *Message) string {
	var b strings.Builder
	contact := msg.Draft.ContactInfo

	fmt.Fprintf(&b, "Contact: %s %s <%s>, %s\n", contact.FirstName, contact.LastName, contact.Email, contact.Phone)
	fmt.Fprintf(&b, "Company: %s (%s, %s)\n", contact.Company,
		msg.Draft.BusinessProfile.Industry, msg.Draft.BusinessProfile.OrgSize)
	fmt.Fprintf(&b, "Monthly volume: %d pages (A3: %d)\n",
		msg.Draft.PrintVolume.TotalMonthly(), msg.Draft.PrintVolume.MonthlyA3)
	fmt.Fprintf(&b, "Urgency: %s, budget: %s\n",
		msg.Draft.BudgetTimeline.Urgency, msg.Draft.BudgetTimeline.BudgetBracket)

	if primary := msg.Result.Primary(); primary != nil {
		fmt.Fprintf(&b, "Recommended: %s (match %d/100)\n", primary.ProductName, primary.MatchScore)
	}
	if msg.Result.PotentialSavings.Monthly > 0 {
		fmt.Fprintf(&b, "Estimated savings: EUR %.0f/month\n", msg.Result.PotentialSavings.Monthly)
	}
	return b.String()
}

// ==========================
// CRM automation (SNS)
// ==========================

type topicPublisher interface {
	Publish(ctx context.Context, input *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSSink publishes a compact lead event for downstream CRM automation.
type SNSSink struct {
	publisher topicPublisher
	topicARN  string
}

func NewSNSSink(publisher topicPublisher, topicARN string) *SNSSink {
	return &SNSSink{publisher: publisher, topicARN: topicARN}
}

func (s *SNSSink) Name() string { return "sns" }

type leadEvent struct {
	SessionID     string `json:"sessionId"`
	Company       string `json:"company"`
	Email         string `json:"email"`
	Industry      string `json:"industry"`
	MonthlyVolume int    `json:"monthlyVolume"`
	Product       string `json:"product"`
	MatchScore    int    `json:"matchScore"`
	Urgency       string `json:"urgency"`
}

func (s *SNSSink) Deliver(ctx context.Context, msg *Message) error {
	event := leadEvent{
		SessionID:     msg.SessionID,
		Company:       msg.Draft.ContactInfo.Company,
		Email:         msg.Draft.ContactInfo.Email,
		Industry:      msg.Draft.BusinessProfile.Industry,
		MonthlyVolume: msg.Draft.PrintVolume.TotalMonthly(),
		Urgency:       msg.Draft.BudgetTimeline.Urgency,
	}
	if primary := msg.Result.Primary(); primary != nil {
		event.Product = primary.ProductID
		event.MatchScore = primary.MatchScore
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return stderrors.NewNotificationSendFailedError(s.Name(), err)
	}

	_, err = s.publisher.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(s.topicARN),
		Message:  aws.String(string(payload)),
		Subject:  aws.String("assessment.lead.created"),
	})
	if err != nil {
		return stderrors.NewNotificationSendFailedError(s.Name(), err)
	}
	return nil
}

// ==========================
// Analytics (Elasticsearch)
// ==========================

// AnalyticsSink indexes an anonymised copy of each submission for reporting.
// Contact details are deliberately excluded.
type AnalyticsSink struct {
	client *elasticsearch.Client
	index  string
}

func NewAnalyticsSink(client *elasticsearch.Client, index string) *AnalyticsSink {
	return &AnalyticsSink{client: client, index: index}
}

func (s *AnalyticsSink) Name() string { return "analytics" }

func (s *AnalyticsSink) Deliver(ctx context.Context, msg *Message) error {
	doc := map[string]interface{}{
		"sessionId":   msg.SessionID,
		"submittedAt": msg.SubmittedAt,
		"assessment":  models.AnalysisRequestFrom(msg.Draft),
		"result":      msg.Result,
	}
	payload, err := json.Marshal(doc)
	if err != nil {
		return stderrors.NewNotificationSendFailedError(s.Name(), err)
	}

	res, err := s.client.Index(s.index, bytes.NewReader(payload),
		s.client.Index.WithContext(ctx),
		s.client.Index.WithDocumentID(msg.SessionID),
	)
	if err != nil {
		return stderrors.NewNotificationSendFailedError(s.Name(), err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return stderrors.NewNotificationSendFailedError(s.Name(),
			fmt.Errorf("index response: %s", res.Status()))
	}
	return nil
}
