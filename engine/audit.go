package engine

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"
)

// AuditEntry records one executed or cancelled action.
type AuditEntry struct {
	ID              string
	Wallet          string
	SessionID       string
	ActionID        string
	Tool            string
	Input           json.RawMessage
	State           string
	TransactionHash string
	Error           *string
	DurationMs      int64
	Timestamp       int64
}

// AuditLogger receives an entry for every action that reached the executor.
type AuditLogger interface {
	Log(ctx context.Context, entry *AuditEntry)
}

// ZapAuditLogger writes audit entries as structured log lines.
type ZapAuditLogger struct {
	logger *zap.Logger
}

// NewZapAuditLogger creates an audit logger on top of logger.
func NewZapAuditLogger(logger *zap.Logger) *ZapAuditLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapAuditLogger{logger: logger.Named("audit")}
}

func (a *ZapAuditLogger) Log(_ context.Context, e *AuditEntry) {
	fields := []zap.Field{
		zap.String("id", e.ID),
		zap.String("wallet", e.Wallet),
		zap.String("session", e.SessionID),
		zap.String("action_id", e.ActionID),
		zap.String("tool", e.Tool),
		zap.ByteString("input", e.Input),
		zap.String("state", e.State),
		zap.Int64("duration_ms", e.DurationMs),
		zap.Int64("timestamp", e.Timestamp),
	}
	if e.TransactionHash != "" {
		fields = append(fields, zap.String("tx_hash", e.TransactionHash))
	}
	if e.Error != nil {
		fields = append(fields, zap.String("error", *e.Error))
	}
	a.logger.Info("action", fields...)
}
