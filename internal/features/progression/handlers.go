// Package progression — handlers.go: маршруты /users/level/*.
package progression

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"serotonyl.ru/ecoquest/internal/common"
	"serotonyl.ru/ecoquest/internal/features/catalog"
	"serotonyl.ru/ecoquest/internal/server/httpx"
)

type progressService interface {
	Get(ctx context.Context, userID uuid.UUID) (*UserLevel, error)
	UnlockChapter(ctx context.Context, userID uuid.UUID, seq int) (*catalog.Chapter, error)
	CompleteChapter(ctx context.Context, userID uuid.UUID, seq int) (*catalog.Chapter, error)
	UpdateLevelProgress(ctx context.Context, userID uuid.UUID, seq, score, stars int) (*LevelResult, error)
	ReplayCompletedChapter(ctx context.Context, userID uuid.UUID, seq, score int, reward int64) (*ReplayResult, error)
}

type Handler struct {
	service progressService
}

func NewHandler(service progressService) *Handler {
	return &Handler{service: service}
}

// Register вешает маршруты на группу /users (уже с Auth).
func (h *Handler) Register(rg *gin.RouterGroup) {
	lv := rg.Group("/level")
	lv.GET("", h.Get)
	lv.PUT("/unlocked", h.Unlock)
	lv.PUT("/completed", h.Complete)
	lv.PUT("/update_level", h.UpdateLevel)
	lv.PUT("/update_completed", h.UpdateCompleted)
}

type chapterRequest struct {
	ChapterSequence int `json:"chapter_sequence" binding:"required,gte=1"`
}

type levelRequest struct {
	Sequence int  `json:"sequence" binding:"required,gte=1"`
	Score    *int `json:"score" binding:"required,gte=0"`
	Stars    *int `json:"stars" binding:"required,gte=0,lte=3"`
}

type replayRequest struct {
	ChapterSequence int    `json:"chapter_sequence" binding:"required,gte=1"`
	Score           *int   `json:"score" binding:"required,gte=0"`
	Money           *int64 `json:"money" binding:"required,gte=0"`
}

// Get — GET /users/level
func (h *Handler) Get(c *gin.Context) {
	userID, ok := httpx.UserID(c)
	if !ok {
		httpx.Fail(c, common.ErrUnauthorized)
		return
	}
	ul, err := h.service.Get(c.Request.Context(), userID)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, "成功找到使用者關卡進度", ul)
}

// Unlock — PUT /users/level/unlocked {"chapter_sequence": 2}
func (h *Handler) Unlock(c *gin.Context) {
	userID, ok := httpx.UserID(c)
	if !ok {
		httpx.Fail(c, common.ErrUnauthorized)
		return
	}
	var req chapterRequest
	if !httpx.BindJSON(c, &req) {
		return
	}
	ch, err := h.service.UnlockChapter(c.Request.Context(), userID, req.ChapterSequence)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, fmt.Sprintf("章節 %s 解鎖成功", ch.Name), nil)
}

// Complete — PUT /users/level/completed {"chapter_sequence": 1}
func (h *Handler) Complete(c *gin.Context) {
	userID, ok := httpx.UserID(c)
	if !ok {
		httpx.Fail(c, common.ErrUnauthorized)
		return
	}
	var req chapterRequest
	if !httpx.BindJSON(c, &req) {
		return
	}
	ch, err := h.service.CompleteChapter(c.Request.Context(), userID, req.ChapterSequence)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, fmt.Sprintf("成功設置章節 %s 已完成", ch.Name), nil)
}

// UpdateLevel — PUT /users/level/update_level {"sequence": 1, "score": 900, "stars": 3}
func (h *Handler) UpdateLevel(c *gin.Context) {
	userID, ok := httpx.UserID(c)
	if !ok {
		httpx.Fail(c, common.ErrUnauthorized)
		return
	}
	var req levelRequest
	if !httpx.BindJSON(c, &req) {
		return
	}
	res, err := h.service.UpdateLevelProgress(c.Request.Context(), userID, req.Sequence, *req.Score, *req.Stars)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	if !res.Updated {
		httpx.OK(c, http.StatusOK, "分數未超過現有記錄，無需更新", res)
		return
	}
	httpx.OK(c, http.StatusOK, "關卡紀錄更新成功", res)
}

// UpdateCompleted — PUT /users/level/update_completed {"chapter_sequence": 1, "score": 500, "money": 30}
func (h *Handler) UpdateCompleted(c *gin.Context) {
	userID, ok := httpx.UserID(c)
	if !ok {
		httpx.Fail(c, common.ErrUnauthorized)
		return
	}
	var req replayRequest
	if !httpx.BindJSON(c, &req) {
		return
	}
	res, err := h.service.ReplayCompletedChapter(c.Request.Context(), userID, req.ChapterSequence, *req.Score, *req.Money)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, "成功更新已完成章節", res)
}
