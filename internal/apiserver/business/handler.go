// Package business 商家目录 HTTP 处理
package business

import (
	"encoding/json"
	"errors"
	"log"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"olapp/internal/apiserver/auth"
	"olapp/internal/apiserver/verification"
	"olapp/internal/shared/model"
	"olapp/internal/shared/objstore"
	"olapp/internal/shared/storage"
)

// Handler 商家 HTTP 处理器
type Handler struct {
	store    storage.BusinessStore
	engine   *verification.Engine
	uploader objstore.Uploader
	required int
	now      func() time.Time
}

// NewHandler 创建商家处理器
//
// requiredConfirmations 是新商家自动认证所需的确认数，小于 1 时使用默认值。
// uploader 为 nil 时图片上传接口返回 503。
func NewHandler(store storage.BusinessStore, engine *verification.Engine, uploader objstore.Uploader, requiredConfirmations int) *Handler {
	if requiredConfirmations < 1 {
		requiredConfirmations = model.DefaultRequiredConfirmations
	}
	return &Handler{
		store:    store,
		engine:   engine,
		uploader: uploader,
		required: requiredConfirmations,
		now:      time.Now,
	}
}

// RegisterRoutes 注册商家相关路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/businesses", h.Create)
	mux.HandleFunc("GET /api/v1/businesses", h.List)
	mux.HandleFunc("GET /api/v1/businesses/pending", h.ListPending)
	mux.HandleFunc("GET /api/v1/businesses/{slug}", h.Get)
	mux.HandleFunc("PATCH /api/v1/businesses/{id}", h.Update)
	mux.HandleFunc("POST /api/v1/businesses/{id}/confirm", h.Confirm)
	mux.HandleFunc("POST /api/v1/businesses/{id}/approve", h.Approve)
	mux.HandleFunc("POST /api/v1/businesses/{id}/images", h.UploadImage)
}

// createRequest 创建商家请求，同时支持 JSON 和表单提交
type createRequest struct {
	Name            string `json:"name"`
	Description     string `json:"description"`
	Address         string `json:"address"`
	Neighborhood    string `json:"neighborhood"`
	Phone           string `json:"phone"`
	WhatsApp        string `json:"whatsapp"`
	CountryCode     string `json:"country_code"`
	Email           string `json:"email"`
	Website         string `json:"website"`
	Facebook        string `json:"facebook"`
	Instagram       string `json:"instagram"`
	TikTok          string `json:"tiktok"`
	Logo            string `json:"logo"`
	CoverImage      string `json:"cover_image"`
	AcceptsCash     bool   `json:"accepts_cash"`
	AcceptsTransfer bool   `json:"accepts_transfer"`
	AcceptsCard     bool   `json:"accepts_card"`
	WooCategoryID   *int64 `json:"woo_category_id"`
}

// Create 注册商家
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	actor := auth.ActorFromContext(r.Context())
	if !actor.Authenticated() {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	req, err := decodeCreateRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" || req.Address == "" || req.Neighborhood == "" || req.Phone == "" {
		writeError(w, http.StatusBadRequest, "name, address, neighborhood and phone are required")
		return
	}
	slug := Slugify(req.Name)
	if slug == "" {
		writeError(w, http.StatusBadRequest, "name must contain letters or digits")
		return
	}

	if !actor.IsSuperUser {
		owned, err := h.store.CountBusinessesByOwner(r.Context(), actor.ID)
		if err != nil {
			log.Printf("[business.create] CountBusinessesByOwner error: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to create business")
			return
		}
		if !verification.CanOwnAnother(actor, owned) {
			writeError(w, http.StatusBadRequest, "you can only register one business")
			return
		}
	}

	now := h.now()
	b := &model.Business{
		ID:                    "biz-" + uuid.NewString(),
		OwnerID:               actor.ID,
		Name:                  req.Name,
		Slug:                  slug,
		Description:           req.Description,
		Address:               req.Address,
		Neighborhood:          req.Neighborhood,
		Phone:                 req.Phone,
		Email:                 req.Email,
		Website:               req.Website,
		Facebook:              req.Facebook,
		Instagram:             req.Instagram,
		TikTok:                req.TikTok,
		Logo:                  req.Logo,
		CoverImage:            req.CoverImage,
		AcceptsCash:           req.AcceptsCash,
		AcceptsTransfer:       req.AcceptsTransfer,
		AcceptsCard:           req.AcceptsCard,
		Status:                model.BusinessStatusPending,
		RequiredConfirmations: h.required,
		WooCategoryID:         req.WooCategoryID,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if req.WhatsApp != "" && req.CountryCode != "" {
		b.WhatsApp = req.CountryCode + " " + req.WhatsApp
	}

	if err := h.store.CreateBusiness(r.Context(), b); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			writeError(w, http.StatusConflict, "a business with that name already exists")
			return
		}
		log.Printf("[business.create] CreateBusiness error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create business")
		return
	}

	log.Printf("[business] Created %s (%s) owner=%s", b.Slug, b.ID, b.OwnerID)
	writeJSON(w, http.StatusCreated, b)
}

// List 当前用户的商家；all=true 或 ADMIN 角色返回全部
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	actor := auth.ActorFromContext(r.Context())
	if !actor.Authenticated() {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	filter := model.BusinessFilter{OwnerID: actor.ID}
	if r.URL.Query().Get("all") == "true" || actor.Role == model.UserRoleAdmin {
		filter.OwnerID = ""
	}
	if status := strings.ToUpper(r.URL.Query().Get("status")); status != "" {
		filter.Status = model.BusinessStatus(status)
	}

	businesses, err := h.store.ListBusinesses(r.Context(), filter)
	if err != nil {
		log.Printf("[business.list] ListBusinesses error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list businesses")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"businesses": businesses, "count": len(businesses)})
}

// ListPending 待社区确认的商家
func (h *Handler) ListPending(w http.ResponseWriter, r *http.Request) {
	filter := model.BusinessFilter{Status: model.BusinessStatusPending}
	if limit, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && limit > 0 {
		filter.Limit = limit
	}
	businesses, err := h.store.ListBusinesses(r.Context(), filter)
	if err != nil {
		log.Printf("[business.pending] ListBusinesses error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list businesses")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"businesses": businesses, "count": len(businesses)})
}

// Get 按 slug 获取商家
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	b, err := h.store.GetBusinessBySlug(r.Context(), r.PathValue("slug"))
	if err != nil {
		log.Printf("[business.get] GetBusinessBySlug error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to get business")
		return
	}
	if b == nil {
		writeError(w, http.StatusNotFound, "business not found")
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// Update 修改商家资料（本人或超级用户）
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	actor := auth.ActorFromContext(r.Context())
	if !actor.Authenticated() {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	b, ok := h.loadBusiness(w, r)
	if !ok {
		return
	}
	if !verification.CanEdit(actor, b) {
		writeError(w, http.StatusForbidden, "only the owner can edit this business")
		return
	}

	var upd model.BusinessUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	upd.Apply(b)

	if err := h.store.UpdateBusiness(r.Context(), b); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "business not found")
			return
		}
		log.Printf("[business.update] UpdateBusiness error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to update business")
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// Confirm 社区确认投票
//
// 未登录、本人、重复投票都返回 200，结果中 recorded=false。
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	out, err := h.engine.Confirm(r.Context(), r.PathValue("id"), auth.ActorFromContext(r.Context()))
	if err != nil {
		writeEngineError(w, "business.confirm", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Approve 超级用户审批或驳回
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	action, err := readAction(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	decision := verification.ParseDecision(action)
	status, err := h.engine.Decide(r.Context(), r.PathValue("id"), auth.ActorFromContext(r.Context()), decision)
	if err != nil {
		writeEngineError(w, "business.approve", err)
		return
	}

	message := "business approved"
	if status == model.BusinessStatusRejected {
		message = "business rejected"
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"status":  status,
		"message": message,
	})
}

// UploadImage 上传商家 logo 或封面图
//
// multipart 字段：file（图片），kind（logo | cover，默认 logo）。
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	actor := auth.ActorFromContext(r.Context())
	if !actor.Authenticated() {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	if h.uploader == nil {
		writeError(w, http.StatusServiceUnavailable, "object storage not configured")
		return
	}

	b, ok := h.loadBusiness(w, r)
	if !ok {
		return
	}
	if !verification.CanEdit(actor, b) {
		writeError(w, http.StatusForbidden, "only the owner can edit this business")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, objstore.MaxImageSize+1<<20)
	kind := r.FormValue("kind")
	if kind == "" {
		kind = "logo"
	}
	if kind != "logo" && kind != "cover" {
		writeError(w, http.StatusBadRequest, "kind must be logo or cover")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file provided")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	key := objstore.BusinessImageKey(b.ID, kind, header.Filename, contentType, h.now())
	url, err := objstore.SaveImage(r.Context(), h.uploader, key, file, header.Size, contentType)
	if err != nil {
		if objstore.IsValidationError(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Printf("[business.images] upload %s error: %v", key, err)
		writeError(w, http.StatusInternalServerError, "failed to upload image")
		return
	}

	if kind == "logo" {
		b.Logo = url
	} else {
		b.CoverImage = url
	}
	if err := h.store.UpdateBusiness(r.Context(), b); err != nil {
		log.Printf("[business.images] UpdateBusiness error: %v", err)
		if derr := h.uploader.Delete(r.Context(), key); derr != nil {
			log.Printf("[business.images] cleanup %s error: %v", key, derr)
		}
		writeError(w, http.StatusInternalServerError, "failed to update business")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"kind":    kind,
		"url":     url,
	})
}

func (h *Handler) loadBusiness(w http.ResponseWriter, r *http.Request) (*model.Business, bool) {
	b, err := h.store.GetBusiness(r.Context(), r.PathValue("id"))
	if err != nil {
		log.Printf("[business] GetBusiness error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to get business")
		return nil, false
	}
	if b == nil {
		writeError(w, http.StatusNotFound, "business not found")
		return nil, false
	}
	return b, true
}

// ============================================================================
// 工具函数
// ============================================================================

// writeEngineError 核验引擎错误 → HTTP 状态码
func writeEngineError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, verification.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, verification.ErrNotFound):
		writeError(w, http.StatusNotFound, "business not found")
	case errors.Is(err, verification.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, "invalid action")
	default:
		log.Printf("[%s] error: %v", op, err)
		writeError(w, http.StatusInternalServerError, "failed to process request")
	}
}

// isForm 请求体是否为表单
func isForm(r *http.Request) bool {
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return mt == "multipart/form-data" || mt == "application/x-www-form-urlencoded"
}

// readAction 从 JSON 或表单读取 action 字段
func readAction(r *http.Request) (string, error) {
	if isForm(r) {
		return r.FormValue("action"), nil
	}
	var body struct {
		Action string `json:"action"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return "", err
	}
	return body.Action, nil
}

func decodeCreateRequest(r *http.Request) (*createRequest, error) {
	req := &createRequest{}
	if !isForm(r) {
		if err := json.NewDecoder(r.Body).Decode(req); err != nil {
			return nil, err
		}
	} else {
		if err := r.ParseMultipartForm(1 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			return nil, err
		}
		req.Name = r.FormValue("name")
		req.Description = r.FormValue("description")
		req.Address = r.FormValue("address")
		req.Neighborhood = r.FormValue("neighborhood")
		req.Phone = r.FormValue("phone")
		req.WhatsApp = r.FormValue("whatsapp")
		req.CountryCode = r.FormValue("countryCode")
		req.Email = r.FormValue("email")
		req.Website = r.FormValue("website")
		req.Facebook = r.FormValue("facebook")
		req.Instagram = r.FormValue("instagram")
		req.TikTok = r.FormValue("tiktok")
		req.Logo = r.FormValue("logo")
		req.CoverImage = r.FormValue("coverImage")
		req.AcceptsCash = r.FormValue("acceptsCash") == "on"
		req.AcceptsTransfer = r.FormValue("acceptsTransfer") == "on"
		req.AcceptsCard = r.FormValue("acceptsCard") == "on"
		if v := r.FormValue("wooCategoryId"); v != "" {
			id, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return nil, err
			}
			req.WooCategoryID = &id
		}
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Address = strings.TrimSpace(req.Address)
	req.Neighborhood = strings.TrimSpace(req.Neighborhood)
	req.Phone = strings.TrimSpace(req.Phone)
	return req, nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
