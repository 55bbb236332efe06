package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jellydator/ttlcache/v3"
	"github.com/psds-microservice/inquiry-service/internal/auth"
	"github.com/psds-microservice/inquiry-service/internal/errs"
	"github.com/psds-microservice/inquiry-service/internal/model"
	"github.com/psds-microservice/inquiry-service/internal/service"
	"github.com/psds-microservice/inquiry-service/internal/workflow"
)

const ctxUser = "user"

// UserCache holds recently resolved accounts so each request does not hit the
// database. Entries expire after the configured TTL; profile changes and
// deactivation evict immediately.
type UserCache = ttlcache.Cache[uuid.UUID, model.User]

func NewUserCache(ttl time.Duration) *UserCache {
	return ttlcache.New(ttlcache.WithTTL[uuid.UUID, model.User](ttl))
}

// Authenticator resolves the bearer token to an active user.
type Authenticator struct {
	tokens *auth.Tokens
	users  service.UserServicer
	cache  *UserCache
}

func NewAuthenticator(tokens *auth.Tokens, users service.UserServicer, cache *UserCache) *Authenticator {
	return &Authenticator{tokens: tokens, users: users, cache: cache}
}

func (a *Authenticator) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			fail(c, http.StatusUnauthorized, CodeUnauthorized, "missing bearer token", "")
			return
		}
		id, err := a.tokens.Parse(raw)
		if err != nil {
			fail(c, http.StatusUnauthorized, CodeUnauthorized, "invalid token", "")
			return
		}
		u, err := a.lookup(c, id)
		if errors.Is(err, errs.ErrUserNotFound) {
			fail(c, http.StatusUnauthorized, CodeUnauthorized, "user no longer exists", "")
			return
		}
		if err != nil {
			writeError(c, err)
			return
		}
		if !u.IsActive {
			fail(c, http.StatusUnauthorized, CodeUnauthorized, errs.ErrUserInactive.Error(), "")
			return
		}
		c.Set(ctxUser, u)
		c.Next()
	}
}

func (a *Authenticator) lookup(c *gin.Context, id uuid.UUID) (model.User, error) {
	if item := a.cache.Get(id); item != nil {
		return item.Value(), nil
	}
	u, err := a.users.GetByID(c.Request.Context(), id)
	if err != nil {
		return model.User{}, err
	}
	a.cache.Set(id, *u, ttlcache.DefaultTTL)
	return *u, nil
}

// Forget evicts a user after their account changed.
func (a *Authenticator) Forget(id uuid.UUID) {
	a.cache.Delete(id)
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// RequireRole lets only the listed roles through. Must run after the
// authenticator.
func RequireRole(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, ok := currentUser(c)
		if !ok {
			fail(c, http.StatusUnauthorized, CodeUnauthorized, "not authenticated", "")
			return
		}
		for _, r := range roles {
			if u.Role == r {
				c.Next()
				return
			}
		}
		fail(c, http.StatusForbidden, CodeForbidden, errs.ErrForbidden.Error(), "")
	}
}

func currentUser(c *gin.Context) (model.User, bool) {
	v, ok := c.Get(ctxUser)
	if !ok {
		return model.User{}, false
	}
	u, ok := v.(model.User)
	return u, ok
}

func actorOf(u model.User) workflow.Actor {
	return workflow.Actor{Name: u.Name, Role: u.Role}
}

// RequestLogger logs one line per request.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		attrs := []interface{}{
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()),
		}
		if u, ok := currentUser(c); ok {
			attrs = append(attrs, slog.String("user_id", u.UserID))
		}
		if rid := c.GetHeader("X-Request-ID"); rid != "" {
			attrs = append(attrs, slog.String("request_id", rid))
		}
		level := slog.LevelInfo
		if c.Writer.Status() >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		slog.Log(c.Request.Context(), level, "request", attrs...)
	}
}
