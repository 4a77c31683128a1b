package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	// AuditorContextKey is a gin context key for the authenticated audit user.
	AuditorContextKey = "auditor"
	// WebhookSecretHeader carries the secret token registered with setWebhook.
	WebhookSecretHeader = "X-Telegram-Bot-Api-Secret-Token"

	basicRealm = `Basic realm="channelpass"`
)

// CredentialsChecker validates basic auth credentials.
type CredentialsChecker interface {
	Check(user, password string) error
}

// BasicAuthRequired ensures the audit user is authenticated before accessing handler.
func BasicAuthRequired(checker CredentialsChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, password, ok := c.Request.BasicAuth()
		if !ok || checker.Check(user, password) != nil {
			c.Header("WWW-Authenticate", basicRealm)
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Set(AuditorContextKey, user)
		c.Next()
	}
}

// WebhookSecret rejects webhook calls that do not carry the configured
// secret token. An empty secret disables the check.
func WebhookSecret(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.Next()
			return
		}
		got := c.GetHeader(WebhookSecretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Next()
	}
}
