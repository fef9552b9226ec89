package monitoring

import (
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog with evaluation-specific helpers.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a JSON structured logger.
func NewLogger() *Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{
					Key:   "timestamp",
					Value: slog.StringValue(a.Value.Time().Format(time.RFC3339)),
				}
			}
			return a
		},
	})

	return &Logger{Logger: slog.New(handler)}
}

// RoleCallLogger logs a single committee role call.
func (l *Logger) RoleCallLogger(role, model string, duration time.Duration, fallback bool, err error) {
	if err != nil {
		l.Warn("Role Call Failed",
			"role", role,
			"model", model,
			"duration_ms", duration.Milliseconds(),
			"fallback", fallback,
			"error", err.Error(),
		)
		return
	}

	l.Info("Role Call Completed",
		"role", role,
		"model", model,
		"duration_ms", duration.Milliseconds(),
		"fallback", fallback,
	)
}

// VerifierLogger logs the outcome of a quality-gate pass.
func (l *Logger) VerifierLogger(status string, checksRun, checksFailed, repairsUsed int) {
	l.Info("Verifier Completed",
		"status", status,
		"checks_run", checksRun,
		"checks_failed", checksFailed,
		"repairs_used", repairsUsed,
	)
}

// EvaluationLogger logs a completed committee evaluation.
func (l *Logger) EvaluationLogger(id, domain string, overallScore, weightedScore float64, duration time.Duration, cacheHit bool) {
	l.Info("Evaluation Completed",
		"evaluation_id", id,
		"domain", domain,
		"overall_score", overallScore,
		"weighted_score", weightedScore,
		"duration_ms", duration.Milliseconds(),
		"cache_hit", cacheHit,
	)
}

// CacheLogger logs cache operations with a truncated key hash.
func (l *Logger) CacheLogger(operation, key string, hit bool, itemCount int) {
	keyHash := key
	if len(keyHash) > 8 {
		keyHash = keyHash[:8] + "..."
	}

	l.Debug("Cache Operation",
		"operation", operation,
		"key_hash", keyHash,
		"hit", hit,
		"cache_size", itemCount,
	)
}

// RequestLogger logs HTTP request details at the caller boundary.
func (l *Logger) RequestLogger(method, path, ip string, statusCode int, duration time.Duration) {
	l.Info("HTTP Request",
		"method", method,
		"path", path,
		"ip", ip,
		"status_code", statusCode,
		"duration_ms", duration.Milliseconds(),
	)
}
