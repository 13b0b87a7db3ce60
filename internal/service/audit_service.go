package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-registry-api/internal/models"
	"github.com/noah-isme/sma-registry-api/pkg/jobs"
)

// Audit outcomes reported to metrics.
const (
	AuditOutcomeQueued  = "queued"
	AuditOutcomeWritten = "written"
	AuditOutcomeInline  = "inline"
	AuditOutcomeDropped = "dropped"
)

const auditJobType = "audit.write"

type auditWriter interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type auditQueue interface {
	Enqueue(job jobs.Job) error
}

// AuditService records audit entries off the request path. Entries are written
// inline when no queue is attached or the queue has been stopped.
type AuditService struct {
	repo    auditWriter
	queue   auditQueue
	metrics *MetricsService
	logger  *zap.Logger
	timeout time.Duration
}

// NewAuditService constructs an audit service. Call AttachQueue to enable asynchronous writes.
func NewAuditService(repo auditWriter, metrics *MetricsService, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{repo: repo, metrics: metrics, logger: logger, timeout: 5 * time.Second}
}

// AttachQueue routes Record through q.
func (s *AuditService) AttachQueue(q auditQueue) {
	s.queue = q
}

// Handle is the jobs.Handler that persists queued entries.
func (s *AuditService) Handle(ctx context.Context, job jobs.Job) error {
	entry, ok := job.Payload.(*models.AuditLog)
	if !ok {
		return fmt.Errorf("audit job %s: unexpected payload %T", job.ID, job.Payload)
	}
	if err := s.write(ctx, entry); err != nil {
		return err
	}
	s.metrics.RecordAudit(AuditOutcomeWritten)
	return nil
}

// Record stores entry. It never fails the caller; failures are logged and counted.
func (s *AuditService) Record(ctx context.Context, entry *models.AuditLog) {
	if s == nil || s.repo == nil || entry == nil {
		return
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	if s.queue != nil {
		err := s.queue.Enqueue(jobs.Job{ID: entry.ID, Type: auditJobType, Payload: entry})
		if err == nil {
			s.metrics.RecordAudit(AuditOutcomeQueued)
			return
		}
		if !errors.Is(err, jobs.ErrQueueClosed) {
			s.logger.Warn("audit enqueue failed", zap.String("action", entry.Action), zap.Error(err))
		}
	}

	// Detach from request cancellation; the entry must outlive a disconnected client.
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()
	if err := s.write(writeCtx, entry); err != nil {
		s.metrics.RecordAudit(AuditOutcomeDropped)
		s.logger.Error("audit write failed", zap.String("action", entry.Action), zap.String("resource", entry.Resource), zap.Error(err))
		return
	}
	s.metrics.RecordAudit(AuditOutcomeInline)
}

func (s *AuditService) write(ctx context.Context, entry *models.AuditLog) error {
	if err := s.repo.CreateAuditLog(ctx, entry); err != nil {
		return fmt.Errorf("write audit %s: %w", entry.ID, err)
	}
	return nil
}
