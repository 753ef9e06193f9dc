package quiz

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"serotonyl.ru/ecoquest/internal/common"
	"serotonyl.ru/ecoquest/internal/server/httpx"
)

type recorder interface {
	RecordAnswer(ctx context.Context, userID uuid.UUID, material string, correct bool) (Stat, error)
}

type Handler struct {
	service recorder
}

func NewHandler(service recorder) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("/question/answer", h.Answer)
}

type answerRequest struct {
	Category string `json:"category" binding:"required"`
	Correct  *bool  `json:"correct" binding:"required"`
}

// Answer — POST /users/question/answer {"category": "paper", "correct": true}
func (h *Handler) Answer(c *gin.Context) {
	userID, ok := httpx.UserID(c)
	if !ok {
		httpx.Fail(c, common.ErrUnauthorized)
		return
	}
	var req answerRequest
	if !httpx.BindJSON(c, &req) {
		return
	}

	st, err := h.service.RecordAnswer(c.Request.Context(), userID, req.Category, *req.Correct)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, "作答紀錄已更新", gin.H{"category": req.Category, "stats": st})
}
