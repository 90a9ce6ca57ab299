package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// RequestLogger writes one zap entry per request with its ISO-8601 start
// time, method, path, status and latency.  Server errors are logged at error
// level, everything else at info.
func RequestLogger(log *zap.Logger) echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("timestamp", v.StartTime.UTC().Format(time.RFC3339Nano)),
				zap.String("method", v.Method),
				zap.String("path", c.Request().URL.Path),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("request_id", v.RequestID),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
			}
			if v.Status >= 500 {
				log.Error("request", fields...)
				return nil
			}
			log.Info("request", fields...)
			return nil
		},
	})
}
