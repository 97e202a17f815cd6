// Package httpx holds the request helpers shared by the gin handlers.
package httpx

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mangareader/internal/log"
)

// Detach returns the request context without its cancellation, so upstream
// and store calls finish even if the caller hangs up.
func Detach(c *gin.Context) context.Context {
	return context.WithoutCancel(c.Request.Context())
}

// RequireQuery reads every named query parameter. Missing parameters produce a
// 400 response and ok=false. Values are trimmed; presence is what counts.
func RequireQuery(c *gin.Context, names ...string) (map[string]string, bool) {
	out := make(map[string]string, len(names))
	var missing []string
	for _, name := range names {
		v, ok := c.GetQuery(name)
		if !ok {
			missing = append(missing, name)
			continue
		}
		out[name] = strings.TrimSpace(v)
	}
	if len(missing) > 0 {
		BadRequest(c, "missing query parameter: "+strings.Join(missing, ", "))
		return nil, false
	}
	return out, true
}

// RequireNonEmpty rejects empty identifiers with a 400.
func RequireNonEmpty(c *gin.Context, values map[string]string, names ...string) bool {
	for _, name := range names {
		if values[name] == "" {
			BadRequest(c, name+" required")
			return false
		}
	}
	return true
}

// IntQuery parses an optional integer query parameter.
func IntQuery(c *gin.Context, name string, def int) (int, error) {
	s := strings.TrimSpace(c.Query(name))
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return n, nil
}

// Param returns a trimmed path parameter, answering 400 when it is empty.
func Param(c *gin.Context, name string) (string, bool) {
	v := strings.TrimSpace(c.Param(name))
	if v == "" {
		BadRequest(c, name+" required")
		return "", false
	}
	return v, true
}

func BadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

// Fail logs err and writes {"error": msg} with the given status.
func Fail(c *gin.Context, status int, msg string, err error) {
	fields := []zap.Field{
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Int("status", status),
		zap.Error(err),
	}
	if status >= http.StatusInternalServerError {
		log.Error(msg, fields...)
	} else {
		log.Warn(msg, fields...)
	}
	c.JSON(status, gin.H{"error": msg})
}

// StoreFailure is Fail for user-state store errors, which are always 500.
func StoreFailure(c *gin.Context, msg string, err error) {
	Fail(c, http.StatusInternalServerError, msg, err)
}
