package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nexioai/nexio-ingest/internal/ai"
	"github.com/nexioai/nexio-ingest/internal/alert"
	"github.com/nexioai/nexio-ingest/internal/db"
	"github.com/nexioai/nexio-ingest/internal/metrics"
	"github.com/nexioai/nexio-ingest/internal/secrets"
	"go.uber.org/zap"
)

type Service struct {
	repo     *db.Repository
	engine   *EngineClient
	cipher   *secrets.Cipher
	analyzer *ai.Analyzer
	sender   *alert.WhatsAppSender
	metrics  *metrics.Collector
	logger   *zap.Logger
	limit    int
}

func NewService(
	repo *db.Repository,
	engine *EngineClient,
	cipher *secrets.Cipher,
	analyzer *ai.Analyzer,
	sender *alert.WhatsAppSender,
	collector *metrics.Collector,
	logger *zap.Logger,
	executionLimit int,
) *Service {
	return &Service{
		repo:     repo,
		engine:   engine,
		cipher:   cipher,
		analyzer: analyzer,
		sender:   sender,
		metrics:  collector,
		logger:   logger,
		limit:    executionLimit,
	}
}

// InstanceResult summarizes one instance's sweep. A failed instance
// contributes a failure entry instead of aborting the run.
type InstanceResult struct {
	InstanceID   string `json:"instance_id"`
	InstanceName string `json:"instance_name"`
	Success      bool   `json:"success"`
	NewErrors    int    `json:"new_errors"`
	Skipped      int    `json:"skipped"`
	Error        string `json:"error,omitempty"`
}

// Sweep pulls failed executions from every active automation instance.
// Instances are processed independently; the only error returned is a
// failure to enumerate them at all.
func (s *Service) Sweep(ctx context.Context) ([]InstanceResult, error) {
	instances, err := s.repo.ListActiveInstances()
	if err != nil {
		return nil, fmt.Errorf("failed to list instances: %w", err)
	}

	now := time.Now().UTC()
	results := make([]InstanceResult, 0, len(instances))
	for _, inst := range instances {
		if !instanceDue(inst, now) {
			s.logger.Debug("Instance not due for a check",
				zap.String("instance_id", inst.ID),
				zap.Int("check_interval", inst.CheckInterval),
			)
			continue
		}
		result := s.sweepInstance(ctx, inst)
		results = append(results, result)

		outcome := "ok"
		if !result.Success {
			outcome = "failed"
		}
		s.metrics.RecordSweep(inst.Name, outcome)
	}
	return results, nil
}

// instanceDue applies the instance's own check_interval against its
// last completed check, so a sweep ticking faster than the slowest
// interval does not re-poll every instance on every tick.
func instanceDue(inst *db.AutomationInstance, now time.Time) bool {
	if inst.LastCheck == nil || inst.CheckInterval <= 0 {
		return true
	}
	return now.Sub(*inst.LastCheck) >= time.Duration(inst.CheckInterval)*time.Second
}

func (s *Service) sweepInstance(ctx context.Context, inst *db.AutomationInstance) InstanceResult {
	result := InstanceResult{InstanceID: inst.ID, InstanceName: inst.Name}

	apiKey, err := s.cipher.Decrypt(inst.APIKeyEncrypted)
	if err != nil {
		s.logger.Error("Failed to decrypt instance credential",
			zap.String("instance_id", inst.ID),
			zap.Error(err),
		)
		result.Error = "credential decryption failed"
		return result
	}

	executions, err := s.engine.ListErrorExecutions(ctx, inst.URL, apiKey, s.limit)
	if err != nil {
		s.logger.Error("Failed to list executions",
			zap.String("instance_id", inst.ID),
			zap.String("instance_name", inst.Name),
			zap.Error(err),
		)
		result.Error = err.Error()
		return result
	}

	for _, exec := range executions {
		recorded, err := s.recordExecution(ctx, inst, apiKey, exec)
		if err != nil {
			s.logger.Error("Failed to record execution error",
				zap.String("instance_id", inst.ID),
				zap.String("execution_id", exec.ID.String()),
				zap.Error(err),
			)
			continue
		}
		if recorded {
			result.NewErrors++
		} else {
			result.Skipped++
		}
	}

	now := time.Now().UTC()
	if err := s.repo.UpdateInstanceLastCheck(inst.ID, now); err != nil {
		s.logger.Error("Failed to stamp last check",
			zap.String("instance_id", inst.ID),
			zap.Error(err),
		)
	}

	result.Success = true
	s.logger.Info("Instance sweep completed",
		zap.String("instance_id", inst.ID),
		zap.String("instance_name", inst.Name),
		zap.Int("new_errors", result.NewErrors),
		zap.Int("skipped", result.Skipped),
	)
	return result
}

// recordExecution persists one failed execution if it has not been seen
// before. Returns true when a new record was created.
func (s *Service) recordExecution(ctx context.Context, inst *db.AutomationInstance, apiKey string, exec Execution) (bool, error) {
	executionID := exec.ID.String()

	exists, err := s.repo.ErrorExists(executionID)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	record := &db.AutomationError{
		ID:           uuid.New().String(),
		InstanceID:   inst.ID,
		ExecutionID:  executionID,
		WorkflowID:   exec.WorkflowID.String(),
		WorkflowName: exec.WorkflowData.Name,
		ErrorMessage: fmt.Sprintf("Workflow execution %s failed", executionID),
		ErrorDetails: db.JSONB{"status": exec.Status},
		Notified:     false,
		Resolved:     false,
		Timestamp:    time.Now().UTC(),
	}
	if exec.StoppedAt != nil {
		record.Timestamp = *exec.StoppedAt
	}

	// Detail fetch is best-effort: the coarse listing info is enough to
	// record the failure.
	if detail, err := s.engine.GetExecutionDetail(ctx, inst.URL, apiKey, executionID); err != nil {
		s.logger.Warn("Failed to fetch execution detail",
			zap.String("instance_id", inst.ID),
			zap.String("execution_id", executionID),
			zap.Error(err),
		)
	} else {
		if message, node := ExtractErrorInfo(detail); message != "" {
			record.ErrorMessage = message
			record.ErrorNode = node
		}
		record.ErrorDetails = db.JSONB(detail)
	}

	record.Severity = ClassifySeverity(record.ErrorMessage)

	if s.analyzer != nil && s.analyzer.Enabled() {
		if analysis, err := s.analyzer.AnalyzeError(ctx, record.WorkflowName, record.ErrorNode, record.ErrorMessage); err != nil {
			s.logger.Warn("AI analysis failed",
				zap.String("execution_id", executionID),
				zap.Error(err),
			)
		} else {
			record.AIAnalysis = &analysis
		}
	}

	if err := s.repo.CreateAutomationError(record); err != nil {
		return false, err
	}
	s.metrics.RecordAutomationError(inst.Name, string(record.Severity))

	s.notify(ctx, inst, record)

	return true, nil
}

func (s *Service) notify(ctx context.Context, inst *db.AutomationInstance, record *db.AutomationError) {
	if s.sender == nil || !s.sender.Enabled() {
		return
	}

	text := fmt.Sprintf(
		"[%s] Workflow failure on %s\nWorkflow: %s\nNode: %s\nError: %s\nExecution: %s",
		record.Severity, inst.Name, record.WorkflowName, record.ErrorNode,
		record.ErrorMessage, record.ExecutionID)

	if err := s.sender.Send(ctx, text); err != nil {
		s.logger.Warn("Failed to send alert",
			zap.String("execution_id", record.ExecutionID),
			zap.Error(err),
		)
		s.metrics.RecordAlert(false)
		return
	}
	s.metrics.RecordAlert(true)

	if err := s.repo.MarkErrorNotified(record.ID); err != nil {
		s.logger.Error("Failed to mark error notified",
			zap.String("error_id", record.ID),
			zap.Error(err),
		)
	}
}
