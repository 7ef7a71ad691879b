package server

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	obscontext "github.com/smallbiznis/faktur/internal/observability/context"
)

const (
	contextUserIDKey   = "user_id"
	contextUserNameKey = "user_name"
)

// AuthRequired validates the Bearer token and puts the caller identity on
// the request context. The token subject is the user id and must be a UUID.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		claims := jwt.MapClaims{}
		token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, ErrUnauthorized
			}
			return []byte(s.cfg.AuthJWTSecret), nil
		})
		if err != nil || !token.Valid {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		sub, _ := claims["sub"].(string)
		if sub == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		if _, err := uuid.Parse(sub); err != nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		name, _ := claims["name"].(string)

		c.Set(contextUserIDKey, sub)
		c.Set(contextUserNameKey, name)
		c.Request = c.Request.WithContext(obscontext.WithUserID(c.Request.Context(), sub))
		c.Next()
	}
}

func callerIdentity(c *gin.Context) (userID, userName string) {
	return c.GetString(contextUserIDKey), c.GetString(contextUserNameKey)
}
