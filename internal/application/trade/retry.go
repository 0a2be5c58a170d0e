package trade

import (
	"context"

	"github.com/erp/wholesale/internal/domain/shared"
	"github.com/erp/wholesale/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// withUniqueRetry reruns a whole unit of work while it fails on a unique
// violation. Numbered creations race on their number's unique index; a
// fresh attempt draws a fresh number. Other errors return at once.
func (s *serviceCore) withUniqueRetry(ctx context.Context, operation string, fn func() error) error {
	attempts := s.settings.UniqueViolationAttempts
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = fn()
		if err == nil || !shared.IsUniqueViolation(err) {
			return err
		}
		logger.WithTraceContext(ctx, s.logger).Warn("unique violation, retrying",
			zap.String("operation", operation),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		if s.metrics != nil {
			s.metrics.RecordNumberingRetry(ctx, operation)
		}
	}
	return shared.NewRetryExhaustedError(operation, attempts, err)
}
