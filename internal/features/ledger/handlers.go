// Package ledger — handlers.go: GET /users/money/history.
// Ручные начисления и списания живут в users, они возвращают пользователя.
package ledger

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"serotonyl.ru/ecoquest/internal/common"
	"serotonyl.ru/ecoquest/internal/server/httpx"
)

// wallet — то, что обработчикам нужно от сервиса.
type wallet interface {
	History(ctx context.Context, userID uuid.UUID, limit int) ([]Entry, error)
}

// Handler обрабатывает запросы кошелька.
type Handler struct {
	service wallet
}

// NewHandler создаёт новый обработчик кошелька.
func NewHandler(service wallet) *Handler {
	return &Handler{service: service}
}

// Register вешает маршруты на группу /users (уже с Auth).
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("/money/history", h.History)
}

// History — GET /users/money/history?limit=20
func (h *Handler) History(c *gin.Context) {
	userID, ok := httpx.UserID(c)
	if !ok {
		httpx.Fail(c, common.ErrUnauthorized)
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	entries, err := h.service.History(c.Request.Context(), userID, limit)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, "查詢成功", entries)
}
