package middleware

import (
	"net/http"
	"runtime/debug"

	"bookpos/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

var internalError = apierror.New("internal server error")

// ErrorHandler turns errors attached with c.Error into a generic 500 when the
// handler wrote nothing. The error itself only reaches the log.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		for _, e := range c.Errors {
			log.Error().
				Str("request_id", c.GetString(RequestIDKey)).
				Str("route", c.FullPath()).
				Err(e.Err).
				Msg("unhandled handler error")
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, internalError)
	}
}

// Recovery converts a panic into a 500 and logs the stack.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			log.Error().
				Str("request_id", c.GetString(RequestIDKey)).
				Str("route", c.FullPath()).
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("panic recovered")
			if !c.Writer.Written() {
				c.AbortWithStatusJSON(http.StatusInternalServerError, internalError)
				return
			}
			c.Abort()
		}()
		c.Next()
	}
}
