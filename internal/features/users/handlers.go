// Package users — handlers.go: чек-ин и ручное изменение баланса
// PUT /users/money/add, PUT /users/money/subtract.
package users

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"serotonyl.ru/ecoquest/internal/common"
	"serotonyl.ru/ecoquest/internal/server/httpx"
)

type userService interface {
	CheckIn(ctx context.Context, userID uuid.UUID) (*CheckInStatus, error)
	CheckInStatus(ctx context.Context, userID uuid.UUID) (*CheckInStatus, error)
	AddMoney(ctx context.Context, userID uuid.UUID, amount int64) (*User, error)
	SubtractMoney(ctx context.Context, userID uuid.UUID, amount int64) (*User, error)
}

type Handler struct {
	service userService
}

func NewHandler(service userService) *Handler {
	return &Handler{service: service}
}

// Register вешает маршруты на группу /users (уже с Auth).
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("/check_in", h.CheckIn)
	rg.GET("/check_in", h.Status)
	rg.PUT("/money/add", h.AddMoney)
	rg.PUT("/money/subtract", h.SubtractMoney)
}

type moneyRequest struct {
	Money int64 `json:"money" binding:"required,gt=0"`
}

// AddMoney — PUT /users/money/add {"money": 100}
func (h *Handler) AddMoney(c *gin.Context) {
	h.moveMoney(c, h.service.AddMoney, "加值成功")
}

// SubtractMoney — PUT /users/money/subtract {"money": 100}
func (h *Handler) SubtractMoney(c *gin.Context) {
	h.moveMoney(c, h.service.SubtractMoney, "扣款成功")
}

func (h *Handler) moveMoney(c *gin.Context, op func(context.Context, uuid.UUID, int64) (*User, error), okMsg string) {
	userID, ok := httpx.UserID(c)
	if !ok {
		httpx.Fail(c, common.ErrUnauthorized)
		return
	}
	var req moneyRequest
	if !httpx.BindJSON(c, &req) {
		return
	}
	u, err := op(c.Request.Context(), userID, req.Money)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, okMsg, u)
}

func (h *Handler) CheckIn(c *gin.Context) {
	userID, ok := httpx.UserID(c)
	if !ok {
		httpx.Fail(c, common.ErrUnauthorized)
		return
	}
	st, err := h.service.CheckIn(c.Request.Context(), userID)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, "簽到成功", st)
}

func (h *Handler) Status(c *gin.Context) {
	userID, ok := httpx.UserID(c)
	if !ok {
		httpx.Fail(c, common.ErrUnauthorized)
		return
	}
	st, err := h.service.CheckInStatus(c.Request.Context(), userID)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, "查詢成功", st)
}
