package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/autocrm/helpdesk-backend/internal/domain"
)

// ctxKeyPrincipal is the Gin context key under which the resolved principal
// is stored.
const ctxKeyPrincipal = "principal"

// bearerToken extracts the token from an "Authorization: Bearer <t>" header.
func bearerToken(c *gin.Context) (string, bool) {
	h := c.GetHeader("Authorization")
	if h == "" {
		return "", false
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

func setPrincipal(c *gin.Context, p domain.Principal) {
	c.Set(ctxKeyPrincipal, p)
	if p.UserID != "" {
		// Keyed rate limiting reads this.
		c.Set("userID", p.UserID)
	}
}

// PrincipalFrom returns the principal resolved for this request, or the
// anonymous principal when none was set.
func PrincipalFrom(c *gin.Context) domain.Principal {
	if v, ok := c.Get(ctxKeyPrincipal); ok {
		if p, ok := v.(domain.Principal); ok {
			return p
		}
	}
	return domain.Principal{Kind: domain.PrincipalAnonymous}
}

// Require returns middleware that rejects requests without a valid bearer
// token with 401.
func Require(r *Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			abortUnauthorized(c, "missing bearer token")
			return
		}
		p, err := r.Resolve(c.Request.Context(), token)
		if err != nil {
			log.Debug().Err(err).Str("path", c.FullPath()).Msg("token rejected")
			abortUnauthorized(c, "invalid or expired token")
			return
		}
		setPrincipal(c, p)
		c.Next()
	}
}

// Optional returns middleware that resolves a principal when a valid token
// is present and continues anonymously otherwise. Verification failures are
// logged, never surfaced.
func Optional(r *Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := bearerToken(c); ok {
			p, err := r.Resolve(c.Request.Context(), token)
			if err == nil {
				setPrincipal(c, p)
				c.Next()
				return
			}
			log.Debug().Err(err).Str("path", c.FullPath()).Msg("soft auth fell back to anonymous")
		}
		setPrincipal(c, domain.Principal{Kind: domain.PrincipalAnonymous})
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"request_id": c.Writer.Header().Get("X-Request-ID"),
		"code":       "unauthorized",
		"message":    msg,
	})
}
