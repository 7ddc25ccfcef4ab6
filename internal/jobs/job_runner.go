package jobs

import (
	"context"
	"time"

	"rentalyard/internal/service"

	"go.uber.org/zap"
)

const defaultJobTimeout = 10 * time.Minute

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	caAudit service.CAAuditService
	logger  *zap.Logger
	timeout time.Duration
}

func NewJobRunner(caAudit service.CAAuditService, logger *zap.Logger) *JobRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JobRunner{
		caAudit: caAudit,
		logger:  logger.Named("jobs"),
		timeout: defaultJobTimeout,
	}
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func(ctx context.Context) error) {
	defer func() {
		if r := recover(); r != nil {
			jr.logger.Error("job panicked", zap.String("job", jobName), zap.Any("panic", r))
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), jr.timeout)
	defer cancel()

	start := time.Now()
	jr.logger.Info("starting job", zap.String("job", jobName))
	if err := jobFunc(ctx); err != nil {
		jr.logger.Error("job failed", zap.String("job", jobName), zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return
	}
	jr.logger.Info("job completed", zap.String("job", jobName), zap.Duration("elapsed", time.Since(start)))
}

// AuditCA recomputes the CA of every stored rental episode and reports
// mismatches. It never corrects anything.
func (jr *JobRunner) AuditCA() {
	jr.runWithRecovery("AuditCA", func(ctx context.Context) error {
		report, err := jr.caAudit.Audit(ctx)
		if err != nil {
			return err
		}
		if len(report.Discrepancies) > 0 {
			jr.logger.Warn("CA discrepancies found",
				zap.Int("checked", report.Checked),
				zap.Int("discrepancies", len(report.Discrepancies)),
			)
		}
		return nil
	})
}
