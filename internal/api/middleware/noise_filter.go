package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// SkipLoggingKey marks requests the access log should drop
const SkipLoggingKey = "skip_logging"

// NoiseFilter keeps scanner and crawler noise out of the access log.
// Authenticated requests are never filtered.
func NoiseFilter(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		method := c.Request.Method

		// Process request first
		c.Next()

		// Don't filter authenticated requests
		if c.GetBool("authenticated") {
			return
		}

		status := c.Writer.Status()

		filtered := false
		switch {
		case status == http.StatusNotFound && isScannerPath(path):
			// Scanners probing for vulnerabilities
			filtered = true
		case status == http.StatusMethodNotAllowed:
			filtered = true
		case status >= 400 && isScannerPath(path):
			filtered = true
		}

		if filtered {
			c.Set(SkipLoggingKey, true)
			logger.Debug("Scanner request filtered",
				"path", path,
				"method", method,
				"status", status,
				"client_ip", c.ClientIP())
		}
	}
}

// isScannerPath checks if a path is commonly used by scanners
func isScannerPath(path string) bool {
	scannerPaths := []string{
		"/admin",
		"/phpmyadmin",
		"/wp-admin",
		"/wp-login",
		"/.env",
		"/.git",
		"/.aws",
		"/backup",
		"/console",
		"/actuator",
		"/manager",
		"/cgi-bin",
		"/.well-known",
		"/robots.txt",
		"/favicon.ico",
		"/sitemap.xml",
	}

	lowercasePath := strings.ToLower(path)
	for _, scannerPath := range scannerPaths {
		if strings.HasPrefix(lowercasePath, scannerPath) {
			return true
		}
	}

	// File extensions commonly probed by scanners
	scannerExtensions := []string{
		".php",
		".asp",
		".aspx",
		".jsp",
		".bak",
		".old",
		".sql",
		".zip",
		".tar",
		".gz",
	}

	for _, ext := range scannerExtensions {
		if strings.HasSuffix(lowercasePath, ext) {
			return true
		}
	}

	return false
}
