// Package account — handlers.go: POST /auth/register, GET /users,
// DELETE /admin/users/:id.
package account

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"serotonyl.ru/ecoquest/internal/common"
	"serotonyl.ru/ecoquest/internal/features/users"
	"serotonyl.ru/ecoquest/internal/server/httpx"
)

type accountService interface {
	Register(ctx context.Context, in RegisterInput) (*users.User, error)
	Profile(ctx context.Context, userID uuid.UUID) (*Profile, error)
	DeleteUser(ctx context.Context, userID uuid.UUID) (*DeleteReport, error)
}

type Handler struct {
	service accountService
}

func NewHandler(service accountService) *Handler {
	return &Handler{service: service}
}

// RegisterAuth вешает маршруты на группу /auth (без аутентификации).
func (h *Handler) RegisterAuth(rg *gin.RouterGroup) {
	rg.POST("/register", h.SignUp)
}

// Register вешает маршруты на группу /users (уже с Auth).
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("", h.Profile)
}

// RegisterAdmin вешает маршруты на группу /admin.
func (h *Handler) RegisterAdmin(rg *gin.RouterGroup) {
	rg.DELETE("/users/:id", h.DeleteUser)
}

type registerRequest struct {
	Username string `json:"username" binding:"required,max=64"`
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=6,max=128"`
}

// SignUp — POST /auth/register. Роль всегда user.
func (h *Handler) SignUp(c *gin.Context) {
	var req registerRequest
	if !httpx.BindJSON(c, &req) {
		return
	}
	u, err := h.service.Register(c.Request.Context(), RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     common.RoleUser,
	})
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, "註冊成功", u)
}

// Profile — GET /users
func (h *Handler) Profile(c *gin.Context) {
	userID, ok := httpx.UserID(c)
	if !ok {
		httpx.Fail(c, common.ErrUnauthorized)
		return
	}
	p, err := h.service.Profile(c.Request.Context(), userID)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, "成功找到使用者", p)
}

// DeleteUser — DELETE /admin/users/:id
func (h *Handler) DeleteUser(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpx.Fail(c, common.InvalidArgument("無效的使用者 ID"))
		return
	}
	report, err := h.service.DeleteUser(c.Request.Context(), id)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	msg := "刪除使用者成功"
	if len(report.Failed) > 0 {
		msg = "使用者已刪除，但以下資料清除失敗: " + strings.Join(report.Failed, ", ")
	}
	httpx.OK(c, http.StatusOK, msg, report)
}
