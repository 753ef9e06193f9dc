package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"serotonyl.ru/ecoquest/internal/common"
)

type fakeCatalog struct {
	products map[uuid.UUID]*Product
	chapters map[int]*Chapter
}

func (f *fakeCatalog) ProductByID(_ context.Context, id uuid.UUID) (*Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, common.ErrProductNotFound
	}
	return p, nil
}

func (f *fakeCatalog) ListProducts(context.Context) ([]Product, error) {
	out := []Product{}
	for _, p := range f.products {
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeCatalog) ListThemes(context.Context) ([]Theme, error) { return []Theme{}, nil }

func (f *fakeCatalog) ChapterBySequence(_ context.Context, seq int) (*Chapter, error) {
	ch, ok := f.chapters[seq]
	if !ok {
		return nil, common.ErrChapterNotFound
	}
	return ch, nil
}

func (f *fakeCatalog) ListChapters(context.Context) ([]Chapter, error) { return []Chapter{}, nil }

func (f *fakeCatalog) LevelBySequence(context.Context, int) (*Level, error) {
	return nil, common.ErrLevelNotFound
}

func (f *fakeCatalog) CreateProduct(_ context.Context, in ProductInput) (*Product, error) {
	if err := ValidateProduct(in); err != nil {
		return nil, err
	}
	p := &Product{ID: uuid.New(), Name: in.Name, Price: in.Price}
	f.products[p.ID] = p
	return p, nil
}

func (f *fakeCatalog) DeleteProduct(_ context.Context, id uuid.UUID) (int64, error) {
	if _, ok := f.products[id]; !ok {
		return 0, common.ErrProductNotFound
	}
	delete(f.products, id)
	return 0, nil
}

func (f *fakeCatalog) CreateTheme(_ context.Context, in ThemeInput) (*Theme, error) {
	return &Theme{ID: uuid.New(), Name: in.Name}, nil
}

func (f *fakeCatalog) CreateChapter(_ context.Context, in ChapterInput) (*Chapter, error) {
	ch := &Chapter{Sequence: len(f.chapters) + 1, Name: in.Name, Levels: []int{}}
	f.chapters[ch.Sequence] = ch
	return ch, nil
}

func (f *fakeCatalog) DeleteChapter(context.Context, string) error { return common.ErrChapterNotFound }

func (f *fakeCatalog) CreateLevel(_ context.Context, in LevelInput) (*Level, error) {
	if err := ValidateLevel(in, false); err != nil {
		return nil, err
	}
	return &Level{Sequence: in.Sequence, ChapterSequence: in.ChapterSequence, Name: in.Name}, nil
}

func newCatalogRouter(fake *fakeCatalog) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHandler(fake)
	h.Register(r.Group(""))
	h.RegisterAdmin(r.Group("/admin"))
	return r
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCatalogHandlers(t *testing.T) {
	fake := &fakeCatalog{products: map[uuid.UUID]*Product{}, chapters: map[int]*Chapter{}}
	r := newCatalogRouter(fake)

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{"create product", http.MethodPost, "/admin/products", `{"name":"杯子","price":10}`, http.StatusCreated},
		{"create product negative price", http.MethodPost, "/admin/products", `{"name":"杯子","price":-1}`, http.StatusBadRequest},
		{"create product without name", http.MethodPost, "/admin/products", `{"price":1}`, http.StatusBadRequest},
		{"bad product id", http.MethodGet, "/products/not-a-uuid", "", http.StatusBadRequest},
		{"missing product", http.MethodGet, "/products/" + uuid.NewString(), "", http.StatusNotFound},
		{"create chapter", http.MethodPost, "/admin/chapters", `{"name":"海洋","trash_requirement":0}`, http.StatusCreated},
		{"get chapter", http.MethodGet, "/chapters/1", "", http.StatusOK},
		{"chapter zero", http.MethodGet, "/chapters/0", "", http.StatusBadRequest},
		{"missing chapter", http.MethodGet, "/chapters/7", "", http.StatusNotFound},
		{"level outside chapter", http.MethodPost, "/admin/levels", `{"sequence":6,"chapter":1,"name":"x"}`, http.StatusBadRequest},
		{"create level", http.MethodPost, "/admin/levels", `{"sequence":1,"chapter":1,"name":"x"}`, http.StatusCreated},
		{"level without requirement", http.MethodPost, "/admin/levels", `{"sequence":2,"chapter":1,"name":"y"}`, http.StatusBadRequest},
		{"delete missing chapter", http.MethodDelete, "/admin/chapters/none", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(r, tt.method, tt.path, tt.body)
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d, body %s", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}
}
