package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/primefit/storefront/internal/cart"
	"github.com/primefit/storefront/internal/catalog"
	pkgerrors "github.com/primefit/storefront/pkg/errors"
)

type stubCatalog struct {
	products     map[uuid.UUID]catalog.ProductDTO
	lastInput    catalog.ProductInput
	listInactive bool
	deleteErr    error
}

func (s *stubCatalog) ListProducts(_ context.Context, includeInactive bool) ([]catalog.ProductDTO, error) {
	s.listInactive = includeInactive
	out := []catalog.ProductDTO{}
	for _, p := range s.products {
		if includeInactive || p.IsActive {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *stubCatalog) GetProduct(_ context.Context, id uuid.UUID) (*catalog.ProductDTO, error) {
	p, ok := s.products[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return &p, nil
}

func (s *stubCatalog) CreateProduct(_ context.Context, input catalog.ProductInput) (*catalog.ProductDTO, error) {
	s.lastInput = input
	price := cart.ParsePrice(input.Price)
	if !price.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid price")
	}
	return &catalog.ProductDTO{ID: uuid.New(), Name: input.Name, Price: price, IsActive: true}, nil
}

func (s *stubCatalog) UpdateProduct(_ context.Context, id uuid.UUID, input catalog.ProductInput) (*catalog.ProductDTO, error) {
	s.lastInput = input
	if _, ok := s.products[id]; !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return &catalog.ProductDTO{ID: id, Name: input.Name}, nil
}

func (s *stubCatalog) DeleteProduct(context.Context, uuid.UUID) error {
	return s.deleteErr
}

func (s *stubCatalog) ListCategories(context.Context) ([]catalog.CategoryDTO, error) {
	return []catalog.CategoryDTO{{Name: "Outro", Slug: "outro", IsActive: true}}, nil
}

func (s *stubCatalog) CreateCategory(_ context.Context, input catalog.CategoryInput) (*catalog.CategoryDTO, error) {
	return &catalog.CategoryDTO{ID: uuid.New(), Name: input.Name, Slug: catalog.Slugify(input.Name), IsActive: true}, nil
}

func (s *stubCatalog) DeleteCategory(context.Context, uuid.UUID) error {
	return pkgerrors.New(pkgerrors.CodeProtected, "base category cannot be removed")
}

func (s *stubCatalog) ResolveCartProduct(context.Context, string) (cart.Product, bool, error) {
	return cart.Product{}, false, nil
}

func newCatalogRouter(svc catalog.Service) http.Handler {
	r := chi.NewRouter()
	r.Get("/products", ProductList(svc, nil))
	r.Get("/products/{productId}", ProductGet(svc, nil))
	r.Get("/categories", CategoryList(svc, nil))
	r.Get("/admin/products", AdminProductList(svc, nil))
	r.Post("/admin/products", AdminProductCreate(svc, nil))
	r.Put("/admin/products/{productId}", AdminProductUpdate(svc, nil))
	r.Delete("/admin/products/{productId}", AdminProductDelete(svc, nil))
	r.Post("/admin/categories", AdminCategoryCreate(svc, nil))
	r.Delete("/admin/categories/{categoryId}", AdminCategoryDelete(svc, nil))
	return r
}

func serve(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	return resp
}

func TestProductListFiltersInactiveForShoppers(t *testing.T) {
	active, hidden := uuid.New(), uuid.New()
	svc := &stubCatalog{products: map[uuid.UUID]catalog.ProductDTO{
		active: {ID: active, Name: "Whey", Price: decimal.NewFromInt(90), IsActive: true},
		hidden: {ID: hidden, Name: "Old", IsActive: false},
	}}
	h := newCatalogRouter(svc)

	resp := serve(h, http.MethodGet, "/products", "")
	var envelope struct {
		Data []catalog.ProductDTO `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(envelope.Data) != 1 || envelope.Data[0].ID != active || svc.listInactive {
		t.Fatalf("unexpected public list %+v", envelope.Data)
	}

	resp = serve(h, http.MethodGet, "/admin/products", "")
	if resp.Code != http.StatusOK || !svc.listInactive {
		t.Fatalf("admin list should include inactive products")
	}

	if resp := serve(h, http.MethodGet, "/products/"+hidden.String(), ""); resp.Code != http.StatusNotFound {
		t.Fatalf("inactive product should be hidden, got %d", resp.Code)
	}
	if resp := serve(h, http.MethodGet, "/products/"+active.String(), ""); resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if resp := serve(h, http.MethodGet, "/products/not-a-uuid", ""); resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed id got %d", resp.Code)
	}
}

func TestAdminProductCreate(t *testing.T) {
	svc := &stubCatalog{}
	h := newCatalogRouter(svc)

	resp := serve(h, http.MethodPost, "/admin/products", `{"name":"Creatina","price":"59,90","flavors":["Natural"]}`)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.lastInput.Name != "Creatina" || len(svc.lastInput.Flavors) != 1 {
		t.Fatalf("input not forwarded: %+v", svc.lastInput)
	}

	resp = serve(h, http.MethodPost, "/admin/products", `{"price":10}`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("missing name should be rejected, got %d", resp.Code)
	}

	resp = serve(h, http.MethodPost, "/admin/products", `{"name":"Zero","price":0}`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("zero price should be rejected, got %d", resp.Code)
	}
}

func TestAdminProductUpdateAndDelete(t *testing.T) {
	id := uuid.New()
	svc := &stubCatalog{products: map[uuid.UUID]catalog.ProductDTO{id: {ID: id, Name: "Whey"}}}
	h := newCatalogRouter(svc)

	if resp := serve(h, http.MethodPut, "/admin/products/"+id.String(), `{"name":"Whey 2","price":99}`); resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if resp := serve(h, http.MethodPut, "/admin/products/"+uuid.NewString(), `{"name":"Ghost","price":99}`); resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
	if resp := serve(h, http.MethodDelete, "/admin/products/"+id.String(), ""); resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", resp.Code)
	}
}

func TestCategoryEndpoints(t *testing.T) {
	h := newCatalogRouter(&stubCatalog{})

	if resp := serve(h, http.MethodGet, "/categories", ""); resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	resp := serve(h, http.MethodPost, "/admin/categories", `{"name":"Pré-Treino"}`)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}
	var envelope struct {
		Data catalog.CategoryDTO `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data.Slug != "pre-treino" {
		t.Fatalf("unexpected slug %q", envelope.Data.Slug)
	}

	if resp := serve(h, http.MethodDelete, "/admin/categories/"+uuid.NewString(), ""); resp.Code != http.StatusBadRequest {
		t.Fatalf("protected category delete should be 400, got %d", resp.Code)
	}
}
