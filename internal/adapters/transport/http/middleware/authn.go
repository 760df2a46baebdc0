package middleware

import (
	"net/http"
	"strings"

	appsvc "github.com/filevault/auth-service/internal/app/auth/service"
	"github.com/gin-gonic/gin"
)

const (
	ContextAccountID = "auth.account_id"
	ContextSessionID = "auth.session_id"
)

// Authn is the single authorization check privileged handlers sit
// behind. It confirms the bearer token's signature and expiry AND that
// the session it names is still live; a logged-out session makes an
// otherwise valid token unusable here.
func Authn(svc appsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "no token provided"})
			return
		}

		sess, err := svc.Validate(c.Request.Context(), strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set(ContextAccountID, sess.AccountID)
		c.Set(ContextSessionID, sess.ID.String())
		c.Next()
	}
}
