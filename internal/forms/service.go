package forms

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nexioai/nexio-ingest/internal/db"
	"github.com/nexioai/nexio-ingest/internal/metrics"
	"github.com/nexioai/nexio-ingest/internal/webhook"
	"go.uber.org/zap"
)

// Field key used for lead correlation. A submission carrying this key
// is matched against existing CRM leads by exact phone equality.
const whatsappFieldKey = "whatsapp"

var ErrSaveFailed = errors.New("failed to save response")

type Service struct {
	repo    *db.Repository
	client  *webhook.Client
	metrics *metrics.Collector
	logger  *zap.Logger
}

func NewService(repo *db.Repository, client *webhook.Client, collector *metrics.Collector, logger *zap.Logger) *Service {
	return &Service{
		repo:    repo,
		client:  client,
		metrics: collector,
		logger:  logger,
	}
}

// Submit runs the full ingestion pipeline: validate against the
// tenant's question schema, correlate a lead, persist the response, and
// drive webhook delivery synchronously. On delivery failure the
// persisted response is returned alongside the error so the caller can
// report the cause without losing the respondent's data.
func (s *Service) Submit(ctx context.Context, tenant *db.Tenant, answers db.AnswerMap) (*db.FormResponse, error) {
	questions, err := s.repo.ListQuestions(tenant.ID)
	if err != nil {
		s.logger.Error("Failed to load questions",
			zap.String("tenant_id", tenant.ID),
			zap.Error(err),
		)
		s.metrics.RecordSubmission(tenant.ID, metrics.OutcomeFailed)
		return nil, ErrSaveFailed
	}

	if err := ValidateAnswers(questions, answers); err != nil {
		s.metrics.RecordSubmission(tenant.ID, metrics.OutcomeRejected)
		return nil, err
	}

	cfg, err := s.repo.GetWebhookConfig(tenant.ID)
	if err != nil {
		s.logger.Error("Failed to load webhook config",
			zap.String("tenant_id", tenant.ID),
			zap.Error(err),
		)
		s.metrics.RecordSubmission(tenant.ID, metrics.OutcomeFailed)
		return nil, ErrSaveFailed
	}

	lead := s.correlateLead(tenant.ID, answers)

	resp := &db.FormResponse{
		ID:       uuid.New().String(),
		TenantID: tenant.ID,
		FormSlug: tenant.Slug,
		Answers:  answers,
		// Server time, never the client's clock.
		SubmittedAt: time.Now().UTC(),
		WebhookSent: false,
	}
	if lead != nil {
		resp.LeadID = &lead.ID
	}

	if err := s.repo.SaveFormResponse(resp, lead); err != nil {
		s.logger.Error("Failed to save form response",
			zap.String("tenant_id", tenant.ID),
			zap.Error(err),
		)
		s.metrics.RecordSubmission(tenant.ID, metrics.OutcomeFailed)
		return nil, ErrSaveFailed
	}

	s.metrics.RecordSubmission(tenant.ID, metrics.OutcomeAccepted)

	if !cfg.Deliverable() {
		// Inactive or unconfigured is not a failure: the response is
		// stored and the caller sees success.
		s.metrics.RecordDelivery(tenant.ID, metrics.DeliverySkipped, 0)
		return resp, nil
	}

	payload := &webhook.Payload{
		ResponseID:  resp.ID,
		TenantID:    tenant.ID,
		FormSlug:    tenant.Slug,
		LeadID:      resp.LeadID,
		Answers:     answers,
		SubmittedAt: resp.SubmittedAt,
	}

	start := time.Now()
	if err := s.client.Deliver(ctx, cfg, payload); err != nil {
		s.metrics.RecordDelivery(tenant.ID, deliveryOutcome(err), time.Since(start))
		return resp, fmt.Errorf("response saved but webhook delivery failed: %w", err)
	}
	s.metrics.RecordDelivery(tenant.ID, metrics.DeliverySuccess, time.Since(start))

	sentAt := time.Now().UTC()
	if err := s.repo.MarkWebhookSent(resp.ID, sentAt); err != nil {
		// The remote already accepted the payload; only the local flag
		// failed. Log it, do not fail the submission.
		s.logger.Error("Failed to mark webhook sent",
			zap.String("response_id", resp.ID),
			zap.Error(err),
		)
		return resp, nil
	}
	resp.WebhookSent = true
	resp.WebhookSentAt = &sentAt

	return resp, nil
}

func (s *Service) correlateLead(tenantID string, answers db.AnswerMap) *db.Lead {
	phone := answers.Get(whatsappFieldKey)
	if phone.IsEmpty() || phone.IsMulti() {
		return nil
	}

	lead, err := s.repo.FindLeadByWhatsApp(tenantID, phone.Text())
	if err != nil {
		// Correlation is best-effort: a lookup failure must not block
		// the submission.
		s.logger.Warn("Lead lookup failed",
			zap.String("tenant_id", tenantID),
			zap.Error(err),
		)
		return nil
	}
	return lead
}

func deliveryOutcome(err error) string {
	var de *webhook.DeliveryError
	if errors.As(err, &de) {
		switch de.Reason {
		case "timeout":
			return metrics.DeliveryTimeout
		case "status":
			return metrics.DeliveryStatus
		default:
			return metrics.DeliveryConnection
		}
	}
	return metrics.DeliveryConnection
}
