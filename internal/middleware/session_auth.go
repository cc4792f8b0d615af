package middleware

import (
	"github.com/penflow/penflow-sync-service/internal/service"
	"github.com/penflow/penflow-sync-service/pkg/app"
	"github.com/penflow/penflow-sync-service/pkg/code"

	"github.com/gin-gonic/gin"
)

const (
	// SessionKey gin context key for the resolved session
	SessionKey = "session"
	// SessionUIDKey gin context key for the session owner
	SessionUIDKey = "session_uid"
)

// SessionAuth resolves the opaque session token on every request. The token
// is only valid while its store row exists; there is no decoding step.
func SessionAuth(sessions service.SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		response := app.NewResponse(c)

		token := app.GetSessionToken(c)
		if token == "" {
			response.ToResponse(code.ErrorNotSessionToken)
			c.Abort()
			return
		}

		session, err := sessions.Get(c.Request.Context(), token)
		if err != nil {
			if cerr, ok := err.(*code.Code); ok && cerr.Code() == code.ErrorSessionNotFound.Code() {
				response.ToResponse(code.ErrorInvalidSessionToken)
			} else {
				response.ToResponse(code.ErrorInternal)
			}
			c.Abort()
			return
		}

		c.Set(SessionKey, session)
		c.Set(SessionUIDKey, session.UID)
		c.Next()
	}
}

// GetSessionUID reads the authenticated uid set by SessionAuth.
func GetSessionUID(c *gin.Context) int64 {
	return c.GetInt64(SessionUIDKey)
}
