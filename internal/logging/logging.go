package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Setup creates a configured *slog.Logger, sets it as the default, and returns it.
// The level parameter accepts: "debug", "info", "warn", "error" (case-insensitive).
// Defaults to info if the level string is unrecognized.
func Setup(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: lvl,
	})
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// Fields that may accompany an activity record. Everything else is dropped,
// so a password or token passed along by mistake never reaches the log
// stream.
var safeActivityFields = map[string]bool{
	"ip":          true,
	"user_agent":  true,
	"action_type": true,
	"resource_id": true,
}

// Activity records a user action for the audit trail. Only whitelisted,
// scalar context fields are emitted; invalid account IDs and oversized action
// names are reported as warnings instead of being logged as activity.
func Activity(logger *slog.Logger, accountID int64, action string, context map[string]any) {
	if accountID <= 0 {
		logger.Warn("activity with invalid account id", "account_id", accountID)
		return
	}
	if action == "" || len(action) > 100 {
		logger.Warn("activity with invalid action", "account_id", accountID)
		return
	}

	attrs := []any{"account_id", accountID, "action", action}
	for k, v := range context {
		if !safeActivityFields[k] {
			continue
		}
		switch v.(type) {
		case string, int, int64, float64, bool:
			attrs = append(attrs, k, v)
		}
	}
	logger.Info("user activity", attrs...)
}
