package middleware

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"backend/internal/repository"
	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const principalKey = "principal"

// principalCacheEntry stores a cached Principal snapshot with TTL so
// every request does not re-read roles and permissions.
type principalCacheEntry struct {
	principal service.Principal
	expiresAt time.Time
}

// Authenticator resolves bearer tokens into Principal snapshots.
type Authenticator struct {
	cadets   repository.CadetRepository
	cache    sync.Map // uuid.UUID -> principalCacheEntry
	cacheTTL time.Duration
}

func NewAuthenticator(cadets repository.CadetRepository) *Authenticator {
	return &Authenticator{cadets: cadets, cacheTTL: 5 * time.Minute}
}

// extractToken tries cookie, then Authorization header, then the
// "token" query parameter (websocket clients cannot set headers).
func extractToken(c *gin.Context) (string, bool) {
	if tokenString, err := c.Cookie("access_token"); err == nil && tokenString != "" {
		return tokenString, true
	}
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return "", false
		}
		return parts[1], true
	}
	if q := c.Query("token"); q != "" {
		return q, true
	}
	return "", false
}

// resolve parses the token and returns the principal snapshot for its
// subject, served from cache when fresh.
func (a *Authenticator) resolve(c *gin.Context) (service.Principal, bool) {
	tokenString, ok := extractToken(c)
	if !ok {
		return service.Principal{}, false
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return service.JWTSecret(), nil
	})
	if err != nil || !token.Valid {
		return service.Principal{}, false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return service.Principal{}, false
	}
	sub, ok := claims["sub"].(string)
	if !ok {
		return service.Principal{}, false
	}
	cadetID, err := uuid.Parse(sub)
	if err != nil {
		return service.Principal{}, false
	}

	if entry, ok := a.cache.Load(cadetID); ok {
		cached := entry.(principalCacheEntry)
		if time.Now().Before(cached.expiresAt) {
			return cached.principal, true
		}
	}

	cadet, err := a.cadets.GetByIDWithRoles(c.Request.Context(), cadetID)
	if err != nil {
		return service.Principal{}, false
	}

	principal := service.PrincipalFromCadet(cadet)
	a.cache.Store(cadetID, principalCacheEntry{
		principal: principal,
		expiresAt: time.Now().Add(a.cacheTTL),
	})
	return principal, true
}

// Authenticate validates the JWT and attaches the Principal snapshot to
// the request context. Requests without a valid token are rejected.
func (a *Authenticator) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := a.resolve(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid or missing token"))
			return
		}
		c.Set(principalKey, principal)
		c.Next()
	}
}

// RequirePermission gates a route on a named authority. Must run after
// Authenticate.
func (a *Authenticator) RequirePermission(required string) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := CurrentPrincipal(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authorization is missing"))
			return
		}
		if !principal.HasPermission(required) {
			c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied: missing permission '"+required+"'"))
			return
		}
		c.Next()
	}
}

// ClearPrincipalCache drops the cached snapshot for one cadet, or every
// snapshot when id is uuid.Nil. Call after role or permission changes.
func (a *Authenticator) ClearPrincipalCache(id uuid.UUID) {
	if id == uuid.Nil {
		a.cache.Range(func(key, _ interface{}) bool {
			a.cache.Delete(key)
			return true
		})
		return
	}
	a.cache.Delete(id)
}

// CurrentPrincipal returns the authenticated principal set by Authenticate.
func CurrentPrincipal(c *gin.Context) (service.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return service.Principal{}, false
	}
	principal, ok := v.(service.Principal)
	return principal, ok
}
