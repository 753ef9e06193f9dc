// Package purchase — handlers.go: покупки товаров и обмен на ваучеры.
package purchase

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"serotonyl.ru/ecoquest/internal/common"
	"serotonyl.ru/ecoquest/internal/server/httpx"
)

func init() {
	httpx.MustRegisterValidation("payment_method", func(s string) bool {
		_, err := ParseMethod(s)
		return err == nil
	})
}

type purchaser interface {
	Purchase(ctx context.Context, userID, productID uuid.UUID, method string) (*Result, error)
	Get(ctx context.Context, userID uuid.UUID) (*Record, error)
}

type voucherExchanger interface {
	CreateVoucherType(ctx context.Context, in VoucherTypeInput) (*VoucherType, error)
	ListVoucherTypes(ctx context.Context) ([]VoucherType, error)
	DeleteVoucherType(ctx context.Context, id uuid.UUID) (*VoucherTypeDeletion, error)
	RedeemVoucher(ctx context.Context, userID, typeID uuid.UUID, count int) (*Redemption, error)
	UserVouchers(ctx context.Context, userID uuid.UUID) ([]Voucher, error)
}

type Handler struct {
	service  purchaser
	vouchers voucherExchanger
}

func NewHandler(service purchaser, vouchers voucherExchanger) *Handler {
	return &Handler{service: service, vouchers: vouchers}
}

// Register вешает маршруты на группу /purchase (уже с Auth).
// Статичный /vouchers объявлен рядом с /:product_id, gin это различает.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("", h.Get)
	rg.GET("/vouchers", h.ListVoucherTypes)
	rg.GET("/vouchers/my", h.MyVouchers)
	rg.POST("/vouchers/:id", h.RedeemVoucher)
	rg.POST("/:product_id", h.Purchase)
}

// RegisterAdmin вешает управление видами ваучеров на группу /admin.
func (h *Handler) RegisterAdmin(rg *gin.RouterGroup) {
	rg.POST("/vouchers", h.CreateVoucherType)
	rg.DELETE("/vouchers/:id", h.DeleteVoucherType)
}

type purchaseRequest struct {
	PaymentType string `json:"payment_type" binding:"required,payment_method"`
}

// Purchase — POST /purchase/:product_id {"payment_type": "money"}
func (h *Handler) Purchase(c *gin.Context) {
	userID, ok := httpx.UserID(c)
	if !ok {
		httpx.Fail(c, common.ErrUnauthorized)
		return
	}
	productID, err := uuid.Parse(c.Param("product_id"))
	if err != nil {
		httpx.Fail(c, common.InvalidArgument("無效的商品 ID"))
		return
	}
	var req purchaseRequest
	if !httpx.BindJSON(c, &req) {
		return
	}

	res, err := h.service.Purchase(c.Request.Context(), userID, productID, req.PaymentType)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, "購買成功", res)
}

// Get — GET /purchase
func (h *Handler) Get(c *gin.Context) {
	userID, ok := httpx.UserID(c)
	if !ok {
		httpx.Fail(c, common.ErrUnauthorized)
		return
	}
	rec, err := h.service.Get(c.Request.Context(), userID)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, "成功找到購買紀錄", rec)
}

type redeemRequest struct {
	Count int `json:"count" binding:"omitempty,min=1,max=100"`
}

// RedeemVoucher — POST /purchase/vouchers/:id {"count": 2}. Без тела count = 1.
func (h *Handler) RedeemVoucher(c *gin.Context) {
	userID, ok := httpx.UserID(c)
	if !ok {
		httpx.Fail(c, common.ErrUnauthorized)
		return
	}
	typeID, ok := voucherTypeIDParam(c)
	if !ok {
		return
	}
	var req redeemRequest
	if c.Request.ContentLength != 0 && !httpx.BindJSON(c, &req) {
		return
	}
	if req.Count == 0 {
		req.Count = 1
	}

	res, err := h.vouchers.RedeemVoucher(c.Request.Context(), userID, typeID, req.Count)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, "兌換成功", res)
}

// ListVoucherTypes — GET /purchase/vouchers
func (h *Handler) ListVoucherTypes(c *gin.Context) {
	types, err := h.vouchers.ListVoucherTypes(c.Request.Context())
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, "成功取得票券列表", types)
}

// MyVouchers — GET /purchase/vouchers/my
func (h *Handler) MyVouchers(c *gin.Context) {
	userID, ok := httpx.UserID(c)
	if !ok {
		httpx.Fail(c, common.ErrUnauthorized)
		return
	}
	list, err := h.vouchers.UserVouchers(c.Request.Context(), userID)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, "成功取得我的票券", list)
}

// CreateVoucherType — POST /admin/vouchers
func (h *Handler) CreateVoucherType(c *gin.Context) {
	var in VoucherTypeInput
	if !httpx.BindJSON(c, &in) {
		return
	}
	vt, err := h.vouchers.CreateVoucherType(c.Request.Context(), in)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusCreated, "票券建立成功", vt)
}

// DeleteVoucherType — DELETE /admin/vouchers/:id
func (h *Handler) DeleteVoucherType(c *gin.Context) {
	id, ok := voucherTypeIDParam(c)
	if !ok {
		return
	}
	res, err := h.vouchers.DeleteVoucherType(c.Request.Context(), id)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, "票券刪除成功", res)
}

func voucherTypeIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpx.Fail(c, common.InvalidArgument("無效的票券 ID"))
		return uuid.Nil, false
	}
	return id, true
}
