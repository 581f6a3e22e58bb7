package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"dealflow/internal/authz"
	"dealflow/internal/service"
	"dealflow/internal/session"
	"dealflow/pkg/response"

	"github.com/gin-gonic/gin"
)

const (
	accessTokenCookie = "access_token"
	sessionKey        = "session"
)

// CookieMode selects cookie attributes. Release deployments are cross-origin.
type CookieMode struct {
	Secure bool
}

func (m CookieMode) sameSite() http.SameSite {
	if m.Secure {
		return http.SameSiteNoneMode
	}
	return http.SameSiteLaxMode
}

// SetTokenCookie stores the access token as an HttpOnly cookie.
func SetTokenCookie(c *gin.Context, mode CookieMode, token string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())
	if maxAge < 0 {
		maxAge = 0
	}
	c.SetSameSite(mode.sameSite())
	c.SetCookie(accessTokenCookie, token, maxAge, "/", "", mode.Secure, true)
}

// ClearTokenCookie removes the access token cookie.
func ClearTokenCookie(c *gin.Context, mode CookieMode) {
	c.SetSameSite(mode.sameSite())
	c.SetCookie(accessTokenCookie, "", -1, "/", "", mode.Secure, true)
}

// tokenFrom reads the cookie first and falls back to the Authorization header.
func tokenFrom(c *gin.Context) (string, error) {
	if tokenString, err := c.Cookie(accessTokenCookie); err == nil && tokenString != "" {
		return tokenString, nil
	}
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", errors.New("authorization is missing")
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", errors.New("invalid authorization format, expected 'Bearer <token>'")
	}
	return parts[1], nil
}

// RequireSession resolves the token to a live session and stores it on the context.
func RequireSession(auth service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := tokenFrom(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, err.Error()))
			return
		}

		sess, err := auth.ResolveToken(c.Request.Context(), tokenString)
		if err != nil {
			if errors.Is(err, service.ErrUnauthenticated) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid or expired session"))
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to resolve session"))
			return
		}

		c.Set(sessionKey, sess)
		c.Set("userID", sess.User.ID.String())
		c.Set("userRole", sess.User.Role)
		c.Next()
	}
}

// RequirePermission gates a route on the casbin policy. It must run after RequireSession.
func RequirePermission(enforcer *authz.Enforcer, resource, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := SessionFrom(c)
		if sess == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authorization is missing"))
			return
		}

		ok, err := enforcer.Allowed(sess.User.Role, resource, action)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to verify permissions"))
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied: missing permission '"+resource+"."+action+"'"))
			return
		}
		c.Next()
	}
}

// SessionFrom returns the session set by RequireSession, or nil.
func SessionFrom(c *gin.Context) *session.Session {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil
	}
	sess, _ := v.(*session.Session)
	return sess
}
