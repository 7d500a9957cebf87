package domain

import (
	"fmt"
	"time"
)

// AuditLevel is the severity of an audit entry.
type AuditLevel string

const (
	AuditDebug    AuditLevel = "DEBUG"
	AuditInfo     AuditLevel = "INFO"
	AuditWarning  AuditLevel = "WARNING"
	AuditError    AuditLevel = "ERROR"
	AuditCritical AuditLevel = "CRITICAL"
)

// AuditEntry is one line of the append-only security trail.
type AuditEntry struct {
	ID        int64      `json:"id"`
	Level     AuditLevel `json:"level"`
	Message   string     `json:"message"`
	CreatedAt time.Time  `json:"created_at"`
}

// NewAuditEntry creates an entry stamped with the current time.
func NewAuditEntry(level AuditLevel, message string) *AuditEntry {
	return &AuditEntry{
		Level:     level,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
}

// Entry renders the line stored in the log collection.
func (e *AuditEntry) Entry() string {
	return fmt.Sprintf("[%s]\t%s - %s", e.Level, e.CreatedAt.Format(time.RFC3339), e.Message)
}
