package httpx

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"serotonyl.ru/ecoquest/internal/common"
)

const (
	ctxUserID = "userID"
	ctxRole   = "role"
)

// SetIdentity кладёт проверенную личность в контекст запроса.
func SetIdentity(c *gin.Context, userID uuid.UUID, role string) {
	c.Set(ctxUserID, userID)
	c.Set(ctxRole, role)
}

// UserID возвращает ID пользователя из контекста.
// ok=false, если запрос не прошёл через аутентификацию.
func UserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(ctxUserID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// Role возвращает роль пользователя из контекста.
func Role(c *gin.Context) string {
	return c.GetString(ctxRole)
}

// IsAdmin — роль admin.
func IsAdmin(c *gin.Context) bool {
	return Role(c) == common.RoleAdmin
}
