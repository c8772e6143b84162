package cli

import (
	"context"

	"github.com/safedep/dry/log"
	"github.com/safedep/safeguard/core/audit"
	"github.com/safedep/safeguard/internal/version"
	"github.com/safedep/safeguard/storage"
)

// logSelfAudit persists a self-audit entry. Failures are logged only.
func logSelfAudit(ctx context.Context, store storage.SelfAuditStore, entry *audit.SelfAudit) {
	if store == nil {
		return
	}

	err := store.SaveSelfAudit(ctx, &storage.SelfAuditEntry{
		ID:           entry.ID,
		Timestamp:    entry.Timestamp,
		Action:       entry.Action.String(),
		CheckKind:    entry.CheckKind,
		Details:      entry.DetailsMap(),
		Result:       entry.Result.String(),
		ErrorMessage: entry.ErrorMessage,
		ToolVersion:  entry.ToolVersion,
	})
	if err != nil {
		log.Warnf("failed to save self-audit entry %s: %v", entry.Action, err)
	}
}

func newSelfAudit(action audit.SelfAuditAction) *audit.SelfAudit {
	return audit.NewSelfAudit(action, getVersion())
}

// getVersion returns the tool version, with a fallback for dev builds.
func getVersion() string {
	if version.Version != "" && version.Version != "(devel)" {
		return version.Version
	}
	return "dev"
}
