// Package trash — handlers.go: POST /users/trash/add_trash, GET /users/trash,
// GET /admin/daily_trash.
package trash

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"serotonyl.ru/ecoquest/internal/common"
	"serotonyl.ru/ecoquest/internal/server/httpx"
)

func init() {
	httpx.MustRegisterValidation("material", func(s string) bool {
		_, err := ParseMaterial(s)
		return err == nil
	})
}

type recycler interface {
	AddTrash(ctx context.Context, userID uuid.UUID, material string, count int) (Stats, error)
	Stats(ctx context.Context, userID uuid.UUID) (Stats, error)
	DailySummary(ctx context.Context) (*Summary, error)
}

type Handler struct {
	service recycler
}

func NewHandler(service recycler) *Handler {
	return &Handler{service: service}
}

// Register вешает пользовательские маршруты на группу /users.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("/trash/add_trash", h.AddTrash)
	rg.GET("/trash", h.Stats)
}

// RegisterAdmin вешает маршруты на группу /admin.
func (h *Handler) RegisterAdmin(rg *gin.RouterGroup) {
	rg.GET("/daily_trash", h.DailySummary)
}

// addTrashRequest принимает материал в поле trash_type или в старом поле category.
type addTrashRequest struct {
	TrashType string `json:"trash_type" binding:"omitempty,material"`
	Category  string `json:"category" binding:"omitempty,material"`
	Count     int    `json:"count" binding:"required,gt=0"`
}

// material возвращает выбранный материал. Оба поля сразу допустимы, только если совпадают.
func (r addTrashRequest) material() (string, error) {
	switch {
	case r.TrashType == "" && r.Category == "":
		return "", common.InvalidArgument("缺少回收類別")
	case r.TrashType != "" && r.Category != "" && r.TrashType != r.Category:
		return "", common.InvalidArgument("trash_type 與 category 不一致")
	case r.TrashType != "":
		return r.TrashType, nil
	}
	return r.Category, nil
}

// AddTrash — POST /users/trash/add_trash {"trash_type": "plastic", "count": 3}
func (h *Handler) AddTrash(c *gin.Context) {
	userID, ok := httpx.UserID(c)
	if !ok {
		httpx.Fail(c, common.ErrUnauthorized)
		return
	}
	var req addTrashRequest
	if !httpx.BindJSON(c, &req) {
		return
	}

	material, err := req.material()
	if err != nil {
		httpx.Fail(c, err)
		return
	}

	stats, err := h.service.AddTrash(c.Request.Context(), userID, material, req.Count)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, fmt.Sprintf("成功增加 %s 數量", material), stats)
}

// Stats — GET /users/trash
func (h *Handler) Stats(c *gin.Context) {
	userID, ok := httpx.UserID(c)
	if !ok {
		httpx.Fail(c, common.ErrUnauthorized)
		return
	}
	stats, err := h.service.Stats(c.Request.Context(), userID)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, "成功找到回收紀錄", gin.H{"stats": stats, "total": stats.Total()})
}

// DailySummary — GET /admin/daily_trash
func (h *Handler) DailySummary(c *gin.Context) {
	summary, err := h.service.DailySummary(c.Request.Context())
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, "查詢成功", summary)
}
