// Package product 商品 HTTP 处理
//
// 商品数据保存在外部目录（WooCommerce），本地只记录商家对应的目录分类 ID。
package product

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"olapp/internal/apiserver/auth"
	"olapp/internal/apiserver/verification"
	"olapp/internal/shared/catalog"
	"olapp/internal/shared/model"
	"olapp/internal/shared/storage"
)

// Handler 商品 HTTP 处理器
type Handler struct {
	store   storage.BusinessStore
	catalog catalog.Catalog
}

// NewHandler 创建商品处理器
func NewHandler(store storage.BusinessStore, c catalog.Catalog) *Handler {
	return &Handler{store: store, catalog: c}
}

// RegisterRoutes 注册商品相关路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/products", h.List)
	mux.HandleFunc("GET /api/v1/business/products", h.ListOwn)
	mux.HandleFunc("POST /api/v1/business/products", h.Create)
	mux.HandleFunc("GET /api/v1/woocommerce/categories", auth.SuperUserOnly(h.ListParentCategories))
}

// List 公开商品列表
//
// ?business={slug} 按商家分类，?category={slug} 按目录分类，否则返回全部。
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := catalog.ProductQuery{Search: r.URL.Query().Get("search")}

	if slug := r.URL.Query().Get("business"); slug != "" {
		b, err := h.store.GetBusinessBySlug(ctx, slug)
		if err != nil {
			log.Printf("[product.list] GetBusinessBySlug error: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to list products")
			return
		}
		if b == nil || b.WooCategoryID == nil {
			writeError(w, http.StatusNotFound, "business not found or has no catalog category")
			return
		}
		q.CategoryID = *b.WooCategoryID
	} else if slug := r.URL.Query().Get("category"); slug != "" {
		cat, err := catalog.FindCategoryBySlug(ctx, h.catalog, slug)
		if err != nil {
			writeCatalogError(w, "product.list", err)
			return
		}
		if cat == nil {
			writeError(w, http.StatusNotFound, "category not found")
			return
		}
		q.CategoryID = cat.ID
	}

	products, err := h.catalog.ListProducts(ctx, q)
	if err != nil {
		writeCatalogError(w, "product.list", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"products": products, "count": len(products)})
}

// ListOwn 当前用户商家的商品
func (h *Handler) ListOwn(w http.ResponseWriter, r *http.Request) {
	actor := auth.ActorFromContext(r.Context())
	if !actor.Authenticated() {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	b, err := h.ownBusiness(r, actor)
	if err != nil {
		log.Printf("[product.own] ownBusiness error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list products")
		return
	}
	if b == nil {
		writeError(w, http.StatusNotFound, "you have no registered business")
		return
	}
	if b.WooCategoryID == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"products": []*catalog.Product{},
			"business": b,
			"count":    0,
		})
		return
	}

	products, err := h.catalog.ListProducts(r.Context(), catalog.ProductQuery{CategoryID: *b.WooCategoryID})
	if err != nil {
		writeCatalogError(w, "product.own", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"products": products,
		"business": b,
		"count":    len(products),
	})
}

// Create 商家发布商品
//
// 商家还没有目录分类时先创建（以商家 slug 命名）并记录分类 ID。
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	actor := auth.ActorFromContext(r.Context())
	if !actor.Authenticated() {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	if !verification.CanManageCatalog(actor) {
		writeError(w, http.StatusForbidden, "only business accounts can publish products")
		return
	}

	var in catalog.ProductInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if in.Name == "" || in.RegularPrice == "" {
		writeError(w, http.StatusBadRequest, "name and regular_price are required")
		return
	}

	b, err := h.ownBusiness(r, actor)
	if err != nil {
		log.Printf("[product.create] ownBusiness error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create product")
		return
	}
	if b == nil {
		writeError(w, http.StatusBadRequest, "you have no registered business, create one first")
		return
	}

	categoryID, err := h.ensureCategory(r, b)
	if err != nil {
		writeCatalogError(w, "product.create", err)
		return
	}

	np, err := catalog.BuildSimpleProduct(in, categoryID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	p, err := h.catalog.CreateProduct(r.Context(), np)
	if err != nil {
		writeCatalogError(w, "product.create", err)
		return
	}

	log.Printf("[product] Created product %d for business %s", p.ID, b.ID)
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"product": map[string]interface{}{
			"id":    p.ID,
			"name":  p.Name,
			"price": p.RegularPrice,
		},
		"message": "product created",
	})
}

// ListParentCategories 顶级分类（包括空分类），供超级用户配置首页
func (h *Handler) ListParentCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.catalog.ListCategories(r.Context(), catalog.ParentOnly(true))
	if err != nil {
		writeCatalogError(w, "product.categories", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "categories": cats})
}

func (h *Handler) ownBusiness(r *http.Request, actor *verification.Actor) (*model.Business, error) {
	list, err := h.store.ListBusinesses(r.Context(), model.BusinessFilter{OwnerID: actor.ID, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (h *Handler) ensureCategory(r *http.Request, b *model.Business) (int64, error) {
	if b.WooCategoryID != nil {
		return *b.WooCategoryID, nil
	}

	desc := b.Description
	if desc == "" {
		desc = "Products of " + b.Name
	}
	cat, err := h.catalog.CreateCategory(r.Context(), catalog.NewCategory{
		Name:        b.Name,
		Slug:        b.Slug,
		Description: desc,
	})
	if err != nil {
		return 0, fmt.Errorf("create category for %s: %w", b.Slug, err)
	}
	if err := h.store.SetBusinessWooCategory(r.Context(), b.ID, cat.ID); err != nil {
		return 0, fmt.Errorf("store category for %s: %w", b.ID, err)
	}
	b.WooCategoryID = &cat.ID
	return cat.ID, nil
}

// writeCatalogError 目录错误 → HTTP 状态码
func writeCatalogError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, catalog.ErrNotConfigured) {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	log.Printf("[%s] catalog error: %v", op, err)
	writeError(w, http.StatusBadGateway, "catalog request failed")
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
