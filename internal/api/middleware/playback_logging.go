package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// responseBodyWriter wraps gin.ResponseWriter to capture response body
type responseBodyWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *responseBodyWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// PlaybackLogging captures request and response bodies on the playback
// endpoints. Heartbeats arrive every few seconds, so the full exchange
// is logged at debug level only; the access log still carries the
// one-line summary.
func PlaybackLogging(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Only the playback session routes are captured
		if !strings.HasPrefix(c.Request.URL.Path, "/v1/sessions") {
			c.Next()
			return
		}

		start := time.Now()

		// Capture request body
		var requestBody interface{}
		if c.Request.Body != nil && c.Request.ContentLength > 0 {
			bodyBytes, err := io.ReadAll(c.Request.Body)
			if err == nil {
				// Restore the body for handlers
				c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

				if err := json.Unmarshal(bodyBytes, &requestBody); err != nil {
					requestBody = string(bodyBytes)
				}
			}
		}

		// Capture response body
		blw := &responseBodyWriter{
			ResponseWriter: c.Writer,
			body:           bytes.NewBufferString(""),
		}
		c.Writer = blw

		// Process request
		c.Next()

		duration := time.Since(start)

		var responseBody interface{}
		if blw.body.Len() > 0 {
			if err := json.Unmarshal(blw.body.Bytes(), &responseBody); err != nil {
				responseBody = blw.body.String()
			}
		}

		logAttrs := []slog.Attr{
			slog.String("request_id", c.GetString(RequestIDKey)),
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.String("duration", duration.String()),
			slog.String("client_ip", c.ClientIP()),
		}

		if sanitized := sanitizeData(requestBody); sanitized != nil {
			logAttrs = append(logAttrs, slog.Any("request_body", sanitized))
		}

		if responseBody != nil {
			logAttrs = append(logAttrs, slog.Any("response_body", responseBody))
		}

		logger.LogAttrs(c.Request.Context(), slog.LevelDebug, "Playback request", logAttrs...)
	}
}

// sanitizeData removes sensitive fields from logged data
func sanitizeData(data interface{}) interface{} {
	if data == nil {
		return nil
	}

	// If it's a map, sanitize sensitive keys
	if m, ok := data.(map[string]interface{}); ok {
		sanitized := make(map[string]interface{})
		for k, v := range m {
			if k == "pin" || k == "password" || k == "token" || k == "secret" {
				sanitized[k] = "***REDACTED***"
			} else {
				sanitized[k] = v
			}
		}
		return sanitized
	}

	return data
}
