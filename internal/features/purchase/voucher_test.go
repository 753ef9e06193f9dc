package purchase

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"serotonyl.ru/ecoquest/internal/common"
	"serotonyl.ru/ecoquest/internal/features/ledger"
	"serotonyl.ru/ecoquest/internal/server/httpx"
)

func TestValidateVoucherType(t *testing.T) {
	tests := map[string]struct {
		in      VoucherTypeInput
		wantErr bool
	}{
		"ok":             {VoucherTypeInput{Name: "咖啡券", Price: 20, Quantity: 5}, false},
		"free":           {VoucherTypeInput{Name: "體驗券", Quantity: 1}, false},
		"blank name":     {VoucherTypeInput{Name: "  ", Price: 1}, true},
		"negative price": {VoucherTypeInput{Name: "x", Price: -1}, true},
		"negative stock": {VoucherTypeInput{Name: "x", Quantity: -1}, true},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			err := ValidateVoucherType(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewVoucherCode(t *testing.T) {
	for i := 0; i < 100; i++ {
		code, err := newVoucherCode()
		if err != nil {
			t.Fatal(err)
		}
		if len(code) != 16 || code[0] == '0' {
			t.Fatalf("code = %q", code)
		}
	}
}

func TestRedeemVoucher(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := f.newUser(t, 100)

	vt, err := f.vouchers.CreateVoucherType(ctx, VoucherTypeInput{Name: "咖啡券", Price: 15, Quantity: 5})
	if err != nil {
		t.Fatalf("CreateVoucherType: %v", err)
	}

	res, err := f.vouchers.RedeemVoucher(ctx, userID, vt.ID, 3)
	if err != nil {
		t.Fatalf("RedeemVoucher: %v", err)
	}
	if res.Cost != 45 || res.Balance != 55 || len(res.Vouchers) != 3 {
		t.Fatalf("redemption = %+v", res)
	}
	if got, _ := f.wallet.Balance(ctx, userID); got != 55 {
		t.Fatalf("balance = %d, want 55", got)
	}

	types, err := f.vouchers.ListVoucherTypes(ctx)
	if err != nil || len(types) != 1 || types[0].Quantity != 2 {
		t.Fatalf("types = %+v, %v", types, err)
	}

	rec, err := f.service.Get(ctx, userID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(rec.Voucher) != 3 {
		t.Fatalf("record vouchers = %v, want 3", rec.Voucher)
	}
	mine, err := f.vouchers.UserVouchers(ctx, userID)
	if err != nil || len(mine) != 3 {
		t.Fatalf("user vouchers = %+v, %v", mine, err)
	}
	codes := map[string]bool{}
	for _, v := range mine {
		if v.TypeName != "咖啡券" || v.Status != VoucherActive || !v.ExpiresAt.After(v.IssuedAt) {
			t.Fatalf("voucher = %+v", v)
		}
		codes[v.Code] = true
	}
	if len(codes) != 3 {
		t.Fatalf("codes not unique: %v", codes)
	}

	history, err := f.wallet.History(ctx, userID, 10)
	if err != nil || len(history) != 1 || history[0].Kind != ledger.KindVoucherRedeem || history[0].BalanceAfter != 55 {
		t.Fatalf("history = %+v, %v", history, err)
	}
}

func TestRedeemVoucherFailuresLeaveNoTrace(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := f.newUser(t, 20)

	vt, err := f.vouchers.CreateVoucherType(ctx, VoucherTypeInput{Name: "電影券", Price: 15, Quantity: 2})
	if err != nil {
		t.Fatalf("CreateVoucherType: %v", err)
	}

	if _, err := f.vouchers.RedeemVoucher(ctx, userID, vt.ID, 2); !errors.Is(err, common.ErrInsufficientBalance) {
		t.Fatalf("err = %v, want ErrInsufficientBalance", err)
	}
	if _, err := f.vouchers.RedeemVoucher(ctx, userID, vt.ID, 3); !errors.Is(err, common.ErrVoucherOutOfStock) {
		t.Fatalf("err = %v, want ErrVoucherOutOfStock", err)
	}
	if _, err := f.vouchers.RedeemVoucher(ctx, userID, uuid.New(), 1); !errors.Is(err, common.ErrVoucherTypeNotFound) {
		t.Fatalf("err = %v, want ErrVoucherTypeNotFound", err)
	}
	if _, err := f.vouchers.RedeemVoucher(ctx, userID, vt.ID, 0); !errors.Is(err, common.ErrInvalidVoucherCount) {
		t.Fatalf("err = %v, want ErrInvalidVoucherCount", err)
	}
	if _, err := f.vouchers.RedeemVoucher(ctx, uuid.New(), vt.ID, 1); !errors.Is(err, common.ErrUserNotFound) {
		t.Fatalf("err = %v, want ErrUserNotFound", err)
	}

	if got, _ := f.wallet.Balance(ctx, userID); got != 20 {
		t.Fatalf("balance = %d, want 20", got)
	}
	if types, _ := f.vouchers.ListVoucherTypes(ctx); types[0].Quantity != 2 {
		t.Fatalf("quantity = %d, want 2", types[0].Quantity)
	}
	if rec, _ := f.service.Get(ctx, userID); len(rec.Voucher) != 0 {
		t.Fatalf("vouchers recorded after failure: %+v", rec)
	}
}

func TestRedeemFreeVoucher(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := f.newUser(t, 7)

	vt, _ := f.vouchers.CreateVoucherType(ctx, VoucherTypeInput{Name: "體驗券", Quantity: 1})
	res, err := f.vouchers.RedeemVoucher(ctx, userID, vt.ID, 1)
	if err != nil {
		t.Fatalf("RedeemVoucher: %v", err)
	}
	if res.Cost != 0 || res.Balance != 7 {
		t.Fatalf("redemption = %+v", res)
	}
	if history, _ := f.wallet.History(ctx, userID, 10); len(history) != 0 {
		t.Fatalf("free voucher wrote history: %+v", history)
	}
}

func TestConcurrentRedeemRespectsStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	vt, err := f.vouchers.CreateVoucherType(ctx, VoucherTypeInput{Name: "早餐券", Price: 1, Quantity: 3})
	if err != nil {
		t.Fatalf("CreateVoucherType: %v", err)
	}

	const workers = 8
	users := make([]uuid.UUID, workers)
	for i := range users {
		users[i] = f.newUser(t, 10)
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for _, id := range users {
		wg.Add(1)
		go func(id uuid.UUID) {
			defer wg.Done()
			_, err := f.vouchers.RedeemVoucher(ctx, id, vt.ID, 1)
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			if !errors.Is(err, common.ErrVoucherOutOfStock) {
				t.Errorf("RedeemVoucher: %v", err)
			}
		}(id)
	}
	wg.Wait()

	if succeeded != 3 {
		t.Fatalf("succeeded = %d, want 3", succeeded)
	}
	if types, _ := f.vouchers.ListVoucherTypes(ctx); types[0].Quantity != 0 {
		t.Fatalf("quantity = %d, want 0", types[0].Quantity)
	}
}

func TestDeleteVoucherType(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.newUser(t, 10)
	bob := f.newUser(t, 10)

	vt, _ := f.vouchers.CreateVoucherType(ctx, VoucherTypeInput{Name: "洗車券", Price: 2, Quantity: 10})
	if _, err := f.vouchers.CreateVoucherType(ctx, VoucherTypeInput{Name: "洗車券"}); !errors.Is(err, common.ErrVoucherTypeExists) {
		t.Fatalf("duplicate name err = %v", err)
	}
	if _, err := f.vouchers.RedeemVoucher(ctx, alice, vt.ID, 2); err != nil {
		t.Fatal(err)
	}
	if _, err := f.vouchers.RedeemVoucher(ctx, bob, vt.ID, 1); err != nil {
		t.Fatal(err)
	}

	res, err := f.vouchers.DeleteVoucherType(ctx, vt.ID)
	if err != nil {
		t.Fatalf("DeleteVoucherType: %v", err)
	}
	if res.DeletedVouchers != 3 || res.AffectedUsers != 2 {
		t.Fatalf("deletion = %+v", res)
	}
	if rec, _ := f.service.Get(ctx, alice); len(rec.Voucher) != 0 {
		t.Fatalf("vouchers left after delete: %+v", rec)
	}
	if _, err := f.vouchers.DeleteVoucherType(ctx, vt.ID); !errors.Is(err, common.ErrVoucherTypeNotFound) {
		t.Fatalf("second delete err = %v", err)
	}
}

type fakeVouchers struct {
	gotCount int
}

func (f *fakeVouchers) CreateVoucherType(_ context.Context, in VoucherTypeInput) (*VoucherType, error) {
	if err := ValidateVoucherType(in); err != nil {
		return nil, err
	}
	return &VoucherType{ID: uuid.New(), Name: in.Name, Price: in.Price, Quantity: in.Quantity}, nil
}

func (f *fakeVouchers) ListVoucherTypes(context.Context) ([]VoucherType, error) {
	return []VoucherType{}, nil
}

func (f *fakeVouchers) DeleteVoucherType(context.Context, uuid.UUID) (*VoucherTypeDeletion, error) {
	return nil, common.ErrVoucherTypeNotFound
}

func (f *fakeVouchers) RedeemVoucher(_ context.Context, _, _ uuid.UUID, count int) (*Redemption, error) {
	f.gotCount = count
	if count > 5 {
		return nil, common.ErrVoucherOutOfStock
	}
	return &Redemption{Count: count}, nil
}

func (f *fakeVouchers) UserVouchers(context.Context, uuid.UUID) ([]Voucher, error) {
	return []Voucher{}, nil
}

func TestVoucherHandlers(t *testing.T) {
	gin.SetMode(gin.TestMode)
	vouchers := &fakeVouchers{}
	h := NewHandler(&fakePurchaser{owned: map[uuid.UUID]bool{}}, vouchers)

	r := gin.New()
	identity := func(c *gin.Context) { httpx.SetIdentity(c, uuid.New(), common.RoleAdmin) }
	h.Register(r.Group("/purchase", identity))
	h.RegisterAdmin(r.Group("/admin", identity))

	typeID := uuid.NewString()
	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
		wantCount  int
	}{
		{"redeem default count", http.MethodPost, "/purchase/vouchers/" + typeID, "", http.StatusOK, 1},
		{"redeem count", http.MethodPost, "/purchase/vouchers/" + typeID, `{"count":3}`, http.StatusOK, 3},
		{"out of stock", http.MethodPost, "/purchase/vouchers/" + typeID, `{"count":6}`, http.StatusBadRequest, 6},
		{"count too big", http.MethodPost, "/purchase/vouchers/" + typeID, `{"count":101}`, http.StatusBadRequest, 0},
		{"negative count", http.MethodPost, "/purchase/vouchers/" + typeID, `{"count":-1}`, http.StatusBadRequest, 0},
		{"bad voucher id", http.MethodPost, "/purchase/vouchers/abc", "", http.StatusBadRequest, 0},
		{"list types", http.MethodGet, "/purchase/vouchers", "", http.StatusOK, 0},
		{"my vouchers", http.MethodGet, "/purchase/vouchers/my", "", http.StatusOK, 0},
		{"create type", http.MethodPost, "/admin/vouchers", `{"name":"咖啡券","price":10,"quantity":3}`, http.StatusCreated, 0},
		{"create without name", http.MethodPost, "/admin/vouchers", `{"price":10}`, http.StatusBadRequest, 0},
		{"create negative price", http.MethodPost, "/admin/vouchers", `{"name":"x","price":-1}`, http.StatusBadRequest, 0},
		{"delete missing", http.MethodDelete, "/admin/vouchers/" + typeID, "", http.StatusNotFound, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vouchers.gotCount = 0
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			if tt.body != "" {
				req.Header.Set("Content-Type", "application/json")
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d, body %s", w.Code, tt.wantStatus, w.Body.String())
			}
			if vouchers.gotCount != tt.wantCount {
				t.Fatalf("count = %d, want %d", vouchers.gotCount, tt.wantCount)
			}
		})
	}
}
