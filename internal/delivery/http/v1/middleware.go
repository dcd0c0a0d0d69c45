package v1

import (
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/WAzaizeh/ChainFlow/internal/services"
)

const (
	userIDCtxKey    = "user_id"
	sessionIDCtxKey = "session_id"
)

const webhookSecretHeader = "X-Webhook-Secret"

// HandleAuthMiddleware resolves the access token cookie into a session
// and puts the user id on the request context.
func (h *handlerImpl) HandleAuthMiddleware(c *gin.Context) {
	accessToken, err := c.Cookie(accessTokenCookie)
	if err != nil {
		h.logger.Error().Msg("access token cookie required")
		abort(c, newUnauthorizedError(errMandatoryCookieNotFound.Error()))
		return
	}

	claims, err := h.auth.VerifyToken(accessToken)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to verify access token")
		abort(c, newStatusTextError(http.StatusUnauthorized))
		return
	}

	session, err := h.auth.ResolveSession(c, claims.Subject)
	if err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			h.logger.Warn().Msg("session not found")
			abort(c, newStatusTextError(http.StatusUnauthorized))
			return
		}

		h.logger.Error().
			Err(err).
			Msg("failed to resolve session")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	c.Set(userIDCtxKey, session.UserID)
	c.Set(sessionIDCtxKey, session.ID)
	c.Next()
}

// HandleAdminMiddleware guards the archive/reset webhooks with the
// shared secret.
func (h *handlerImpl) HandleAdminMiddleware(c *gin.Context) {
	secret := c.GetHeader(webhookSecretHeader)
	if secret == "" || subtle.ConstantTimeCompare([]byte(secret), []byte(h.adminSecret)) != 1 {
		h.logger.Error().Msg("invalid webhook secret")
		abort(c, newStatusTextError(http.StatusForbidden))
		return
	}
	c.Next()
}

func (h *handlerImpl) contextUserID(c *gin.Context) (string, bool) {
	userIDValue, exists := c.Get(userIDCtxKey)
	if !exists {
		h.logger.Error().Msg("no user id found in context")
		abort(c, newStatusTextError(http.StatusUnauthorized))
		return "", false
	}
	userID, _ := userIDValue.(string)
	return userID, true
}
