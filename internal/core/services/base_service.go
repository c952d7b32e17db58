package services

import (
	"context"
	"log/slog"

	"github.com/groupcart/groupcart_backend/internal/middleware"
)

// BaseService gives every service the request-scoped logging helpers. The
// logger travels in the context, enriched with request and user IDs by the
// middleware chain.
type BaseService struct{}

// GetLogger returns the request-scoped logger, or the process default when
// the context never passed through the logging middleware (background jobs,
// the lifecycle scheduler).
func (s *BaseService) GetLogger(ctx context.Context) *slog.Logger {
	return middleware.GetLoggerFromCtx(ctx)
}

// LogError logs msg at error level with the error attached first.
func (s *BaseService) LogError(ctx context.Context, err error, msg string, keyvals ...any) {
	args := make([]any, 0, len(keyvals)+1)
	args = append(args, slog.String("error", err.Error()))
	args = append(args, keyvals...)
	s.GetLogger(ctx).Error(msg, args...)
}

// LogWarn logs msg at warning level.
func (s *BaseService) LogWarn(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Warn(msg, keyvals...)
}

// LogInfo logs msg at info level.
func (s *BaseService) LogInfo(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Info(msg, keyvals...)
}

// LogDebug logs msg at debug level.
func (s *BaseService) LogDebug(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Debug(msg, keyvals...)
}
