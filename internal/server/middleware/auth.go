// Package middleware содержит промежуточные обработчики gin для
// аутентификации, логирования, восстановления после паники и rate-limiting.
package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"serotonyl.ru/ecoquest/internal/common"
	"serotonyl.ru/ecoquest/internal/server/httpx"
)

// Claims — полезная нагрузка access-токена.
// Subject — UUID пользователя, Role — user | admin.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Auth проверяет Bearer-токен (HS256) и кладёт пользователя в контекст.
// Токены выпускает внешний identity-слой с тем же JWT_SECRET.
func Auth(secret []byte) gin.HandlerFunc {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		scheme, token, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
			httpx.Fail(c, common.ErrUnauthorized)
			return
		}

		var claims Claims
		_, err := parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
			return secret, nil
		})
		if err != nil {
			msg := "無效的存取權杖"
			if errors.Is(err, jwt.ErrTokenExpired) {
				msg = "存取權杖已過期"
			}
			httpx.Fail(c, common.Wrap(common.KindUnauthorized, msg, err))
			return
		}

		userID, err := uuid.Parse(claims.Subject)
		if err != nil {
			httpx.Fail(c, common.Wrap(common.KindUnauthorized, "無效的存取權杖", err))
			return
		}

		role := claims.Role
		if role != common.RoleAdmin {
			role = common.RoleUser
		}
		httpx.SetIdentity(c, userID, role)
		c.Next()
	}
}

// RequireAdmin пропускает только роль admin. Ставится после Auth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !httpx.IsAdmin(c) {
			httpx.Fail(c, common.ErrForbidden)
			return
		}
		c.Next()
	}
}
