package audit

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nestlock/nestlock/internal/config"
	"github.com/nestlock/nestlock/internal/core"
)

const (
	ActionGrantIssue  = "grant.issue"
	ActionGrantRevoke = "grant.revoke"
	ActionGrantSweep  = "grant.sweep"
)

// NewEntry builds an audit entry for a grant action. The access code itself
// must never end up in an entry.
func NewEntry(correlationID, action string) core.AuditEntry {
	return core.AuditEntry{
		ID:            uuid.NewString(),
		CorrelationID: correlationID,
		Time:          time.Now(),
		Action:        action,
	}
}

// Open builds an auditor from the audit config section.
func Open(cfg config.AuditConfig) (core.Auditor, error) {
	if !cfg.Enabled {
		return NewNoopAuditor(), nil
	}
	switch cfg.Type {
	case "file":
		return NewFileAuditor(cfg.Path)
	case "", "memory":
		return NewInMemoryAuditor(), nil
	default:
		return nil, fmt.Errorf("unknown auditor type: %s", cfg.Type)
	}
}
