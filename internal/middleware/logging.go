package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/metrics"
)

// LoggingInterceptor returns a Connect interceptor that logs every RPC call.
// It logs the procedure name, user ID, duration, and any error codes/messages.
func LoggingInterceptor(logger *slog.Logger) connect.UnaryInterceptorFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			procedure := req.Spec().Procedure

			resp, err := next(ctx, req)

			userID := GetUserID(ctx)
			duration := time.Since(start).Milliseconds()
			if err != nil {
				var connectErr *connect.Error
				if errors.As(err, &connectErr) && connectErr.Code() != connect.CodeInternal {
					logger.WarnContext(ctx, "RPC error",
						"procedure", procedure,
						"code", connectErr.Code(),
						"error", connectErr.Message(),
						"user_id", userID,
						"duration_ms", duration,
					)
				} else {
					logger.ErrorContext(ctx, "RPC error",
						"procedure", procedure,
						"error", err,
						"user_id", userID,
						"duration_ms", duration,
					)
				}
			} else {
				logger.InfoContext(ctx, "RPC ok",
					"procedure", procedure,
					"user_id", userID,
					"duration_ms", duration,
				)
			}

			return resp, err
		}
	}
}

// MetricsInterceptor records the duration and result code of every RPC.
func MetricsInterceptor(m *metrics.Metrics) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			resp, err := next(ctx, req)

			code := "ok"
			if err != nil {
				code = connect.CodeOf(err).String()
			}
			m.ObserveRPC(req.Spec().Procedure, code, time.Since(start).Seconds())
			return resp, err
		}
	}
}
