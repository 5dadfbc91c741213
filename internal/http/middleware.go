package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"account-service/internal/auth"
	"account-service/internal/domain"
)

const claimsContextKey = "sessionClaims"

// requireAuth verifies the session cookie and, when roles are given, checks
// the token's role against that allowed set. Authentication failures are 401,
// role failures 403; both bodies stay uninformative.
func (h *Handler) requireAuth(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(authCookieName)
		if err != nil || token == "" {
			abortUnauthorized(c)
			return
		}

		claims, err := h.tokens.Verify(token, time.Now())
		if err != nil {
			// the client only ever sees a generic 401; the reason lives here
			h.logger.WithError(err).Debug("session token rejected")
			abortUnauthorized(c)
			return
		}

		if len(roles) > 0 && !roleAllowed(claims.Role, roles) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Forbidden"})
			return
		}

		c.Set(claimsContextKey, claims)
		c.Next()
	}
}

func roleAllowed(role domain.Role, allowed []domain.Role) bool {
	for _, r := range allowed {
		if role == r {
			return true
		}
	}
	return false
}

// sessionClaims returns the claims stored by requireAuth, or nil when the
// request never passed the gate.
func sessionClaims(c *gin.Context) *auth.Claims {
	value, ok := c.Get(claimsContextKey)
	if !ok {
		return nil
	}
	claims, ok := value.(*auth.Claims)
	if !ok {
		return nil
	}
	return claims
}

// sessionUserID resolves the subject of the current session. It writes a 401
// and reports false when the claims are missing or carry a bad subject.
func sessionUserID(c *gin.Context) (int64, bool) {
	claims := sessionClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
		return 0, false
	}
	id, err := claims.UserID()
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
		return 0, false
	}
	return id, true
}

func abortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
}
