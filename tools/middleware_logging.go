package tools

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

// WithLogging creates middleware that logs each tool call at Debug on
// start, Info on success and Warn on failure.
func WithLogging(logger *slog.Logger) Middleware {
	return withLogging(logger, false)
}

// WithDetailedLogging also logs arguments and results.
// WARNING: May log sensitive data. Use only in development.
func WithDetailedLogging(logger *slog.Logger) Middleware {
	return withLogging(logger, true)
}

func withLogging(logger *slog.Logger, detailed bool) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next ToolCallFunc) ToolCallFunc {
		return func(ctx context.Context, args json.RawMessage) (any, error) {
			attrs := callAttrs(ctx)
			if detailed {
				attrs = append(attrs, slog.String("args", string(args)))
			}
			logger.LogAttrs(ctx, slog.LevelDebug, "tool call start", attrs...)
			start := time.Now()

			result, err := next(ctx, args)

			attrs = append(attrs, slog.Duration("duration", time.Since(start)))
			if err != nil {
				logger.LogAttrs(ctx, slog.LevelWarn, "tool call failed", append(attrs, slog.Any("error", err))...)
				return result, err
			}
			if detailed {
				resultJSON, _ := json.Marshal(result)
				attrs = append(attrs, slog.String("result", string(resultJSON)))
			}
			logger.LogAttrs(ctx, slog.LevelInfo, "tool call succeeded", attrs...)
			return result, nil
		}
	}
}

func callAttrs(ctx context.Context) []slog.Attr {
	tc := ToolContextFromContext(ctx)
	if tc == nil {
		return []slog.Attr{slog.String("tool", "unknown")}
	}
	attrs := []slog.Attr{slog.String("tool", tc.ToolName)}
	if tc.CallID != "" {
		attrs = append(attrs, slog.String("call_id", tc.CallID))
	}
	if tc.Attempt > 0 {
		attrs = append(attrs, slog.Int("attempt", tc.Attempt))
	}
	return attrs
}
