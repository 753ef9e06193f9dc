// Package catalog — handlers.go: публичное чтение каталога и админские маршруты.
package catalog

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"serotonyl.ru/ecoquest/internal/common"
	"serotonyl.ru/ecoquest/internal/server/httpx"
)

type catalogService interface {
	ProductByID(ctx context.Context, id uuid.UUID) (*Product, error)
	ListProducts(ctx context.Context) ([]Product, error)
	ListThemes(ctx context.Context) ([]Theme, error)
	ChapterBySequence(ctx context.Context, seq int) (*Chapter, error)
	ListChapters(ctx context.Context) ([]Chapter, error)
	LevelBySequence(ctx context.Context, seq int) (*Level, error)

	CreateProduct(ctx context.Context, in ProductInput) (*Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) (int64, error)
	CreateTheme(ctx context.Context, in ThemeInput) (*Theme, error)
	CreateChapter(ctx context.Context, in ChapterInput) (*Chapter, error)
	DeleteChapter(ctx context.Context, name string) error
	CreateLevel(ctx context.Context, in LevelInput) (*Level, error)
}

type Handler struct {
	service catalogService
}

func NewHandler(service catalogService) *Handler {
	return &Handler{service: service}
}

// Register вешает публичные маршруты чтения.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("/products", h.ListProducts)
	rg.GET("/products/:id", h.GetProduct)
	rg.GET("/themes", h.ListThemes)
	rg.GET("/chapters", h.ListChapters)
	rg.GET("/chapters/:sequence", h.GetChapter)
	rg.GET("/levels/:sequence", h.GetLevel)
}

// RegisterAdmin вешает маршруты на группу /admin.
func (h *Handler) RegisterAdmin(rg *gin.RouterGroup) {
	rg.POST("/products", h.CreateProduct)
	rg.DELETE("/products/:id", h.DeleteProduct)
	rg.POST("/themes", h.CreateTheme)
	rg.POST("/chapters", h.CreateChapter)
	rg.DELETE("/chapters/:name", h.DeleteChapter)
	rg.POST("/levels", h.CreateLevel)
}

func productIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpx.Fail(c, common.InvalidArgument("無效的商品 ID"))
		return uuid.Nil, false
	}
	return id, true
}

func sequenceParam(c *gin.Context) (int, bool) {
	seq, err := strconv.Atoi(c.Param("sequence"))
	if err != nil || seq < 1 {
		httpx.Fail(c, common.InvalidArgument("序號必須為正整數"))
		return 0, false
	}
	return seq, true
}

func (h *Handler) ListProducts(c *gin.Context) {
	products, err := h.service.ListProducts(c.Request.Context())
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, "查詢成功", products)
}

// GetProduct — GET /products/:id
func (h *Handler) GetProduct(c *gin.Context) {
	id, ok := productIDParam(c)
	if !ok {
		return
	}
	p, err := h.service.ProductByID(c.Request.Context(), id)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, "查詢成功", p)
}

func (h *Handler) ListThemes(c *gin.Context) {
	themes, err := h.service.ListThemes(c.Request.Context())
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, "查詢成功", themes)
}

func (h *Handler) ListChapters(c *gin.Context) {
	chapters, err := h.service.ListChapters(c.Request.Context())
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, "查詢成功", chapters)
}

// GetChapter — GET /chapters/:sequence
func (h *Handler) GetChapter(c *gin.Context) {
	seq, ok := sequenceParam(c)
	if !ok {
		return
	}
	ch, err := h.service.ChapterBySequence(c.Request.Context(), seq)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, "查詢成功", ch)
}

// GetLevel — GET /levels/:sequence
func (h *Handler) GetLevel(c *gin.Context) {
	seq, ok := sequenceParam(c)
	if !ok {
		return
	}
	l, err := h.service.LevelBySequence(c.Request.Context(), seq)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, "查詢成功", l)
}

// CreateProduct — POST /admin/products
func (h *Handler) CreateProduct(c *gin.Context) {
	var in ProductInput
	if !httpx.BindJSON(c, &in) {
		return
	}
	p, err := h.service.CreateProduct(c.Request.Context(), in)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusCreated, "商品建立成功", p)
}

// DeleteProduct — DELETE /admin/products/:id
func (h *Handler) DeleteProduct(c *gin.Context) {
	id, ok := productIDParam(c)
	if !ok {
		return
	}
	owners, err := h.service.DeleteProduct(c.Request.Context(), id)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, "商品刪除成功", gin.H{"removed_from_users": owners})
}

func (h *Handler) CreateTheme(c *gin.Context) {
	var in ThemeInput
	if !httpx.BindJSON(c, &in) {
		return
	}
	t, err := h.service.CreateTheme(c.Request.Context(), in)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusCreated, "主題建立成功", t)
}

func (h *Handler) CreateChapter(c *gin.Context) {
	var in ChapterInput
	if !httpx.BindJSON(c, &in) {
		return
	}
	ch, err := h.service.CreateChapter(c.Request.Context(), in)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusCreated, "章節建立成功", ch)
}

// DeleteChapter — DELETE /admin/chapters/:name. Удалить можно только последнюю главу.
func (h *Handler) DeleteChapter(c *gin.Context) {
	if err := h.service.DeleteChapter(c.Request.Context(), c.Param("name")); err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, "章節刪除成功", nil)
}

func (h *Handler) CreateLevel(c *gin.Context) {
	var in LevelInput
	if !httpx.BindJSON(c, &in) {
		return
	}
	l, err := h.service.CreateLevel(c.Request.Context(), in)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusCreated, "關卡建立成功", l)
}
