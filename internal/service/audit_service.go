package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/prn-tf/gatekeeper/internal/domain"
	"github.com/prn-tf/gatekeeper/internal/repository"
)

// DefaultAuditTimeout bounds a single audit write when none is configured.
const DefaultAuditTimeout = 2 * time.Second

// AuditService writes security events to the log and the audit trail.
// Audit writes are best effort: failures are logged and never returned.
type AuditService struct {
	repo    repository.AuditRepository
	timeout time.Duration
	logger  zerolog.Logger
}

// NewAuditService creates a new AuditService.
func NewAuditService(repo repository.AuditRepository, timeout time.Duration, logger zerolog.Logger) *AuditService {
	if timeout <= 0 {
		timeout = DefaultAuditTimeout
	}
	return &AuditService{
		repo:    repo,
		timeout: timeout,
		logger:  logger.With().Str("service", "audit").Logger(),
	}
}

// Record formats and stores an audit entry. The write runs on its own
// deadline so a cancelled request still leaves a trail.
func (s *AuditService) Record(ctx context.Context, level domain.AuditLevel, format string, args ...any) {
	entry := domain.NewAuditEntry(level, fmt.Sprintf(format, args...))

	s.logger.WithLevel(zerologLevel(level)).Msg(entry.Message)

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	if err := s.repo.Append(writeCtx, entry); err != nil {
		s.logger.Warn().Err(err).Str("level", string(level)).Msg("failed to write audit entry")
	}
}

// List returns the most recent audit entries, newest first.
func (s *AuditService) List(ctx context.Context, limit int) ([]*domain.AuditEntry, error) {
	entries, err := s.repo.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	return entries, nil
}

func zerologLevel(level domain.AuditLevel) zerolog.Level {
	switch level {
	case domain.AuditDebug:
		return zerolog.DebugLevel
	case domain.AuditWarning:
		return zerolog.WarnLevel
	case domain.AuditError:
		return zerolog.ErrorLevel
	case domain.AuditCritical:
		// Fatal would exit the process.
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
