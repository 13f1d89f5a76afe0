// Package home 首页内容 HTTP 处理
package home

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"olapp/internal/apiserver/auth"
	"olapp/internal/shared/model"
	"olapp/internal/shared/objstore"
	"olapp/internal/shared/storage"
)

// DefaultLogoURL 未上传 logo 时使用的静态资源
const DefaultLogoURL = "/ola-logo.JPG"

// Handler 首页内容 HTTP 处理器
type Handler struct {
	store       storage.HomeContentStore
	uploader    objstore.Uploader
	defaultLogo string
	now         func() time.Time
}

// NewHandler 创建首页处理器，uploader 为 nil 时 logo 上传返回 503
func NewHandler(store storage.HomeContentStore, uploader objstore.Uploader, defaultLogo string) *Handler {
	if defaultLogo == "" {
		defaultLogo = DefaultLogoURL
	}
	return &Handler{store: store, uploader: uploader, defaultLogo: defaultLogo, now: time.Now}
}

// RegisterRoutes 注册首页相关路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/home", h.Get)
	mux.HandleFunc("PUT /api/v1/admin/home", auth.SuperUserOnly(h.Save))
	mux.HandleFunc("POST /api/v1/admin/logo", auth.SuperUserOnly(h.UploadLogo))
}

type heroRequest struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	CtaText  string `json:"ctaText"`
	CtaLink  string `json:"ctaLink"`
}

type sliderItemRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl"`
	Link        string `json:"link"`
	ButtonText  string `json:"buttonText"`
	Order       int    `json:"order"`
	IsActive    *bool  `json:"isActive"`
}

type featuredCategoryRequest struct {
	WooCategoryID int64  `json:"wooCategoryId"`
	Name          string `json:"name"`
	Slug          string `json:"slug"`
	Icon          string `json:"icon"`
	Order         int    `json:"order"`
}

type saveRequest struct {
	Hero               heroRequest               `json:"hero"`
	SliderItems        []sliderItemRequest       `json:"sliderItems"`
	FeaturedCategories []featuredCategoryRequest `json:"featuredCategories"`
}

// Get 当前生效的首页内容
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	content, err := h.store.GetActiveHomeContent(r.Context())
	if err != nil {
		log.Printf("[home.get] GetActiveHomeContent error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to get home content")
		return
	}
	if content == nil {
		content = &model.HomePageContent{
			SliderItems:        []*model.SliderItem{},
			FeaturedCategories: []*model.FeaturedCategory{},
		}
	}
	if content.LogoURL == "" {
		content.LogoURL = h.defaultLogo
	}
	writeJSON(w, http.StatusOK, content)
}

// Save 保存首页内容，轮播项和推荐分类整体替换
func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	var req saveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	content := &model.HomePageContent{
		HeroTitle:          req.Hero.Title,
		HeroSubtitle:       req.Hero.Subtitle,
		HeroCtaText:        req.Hero.CtaText,
		HeroCtaLink:        req.Hero.CtaLink,
		SliderItems:        make([]*model.SliderItem, 0, len(req.SliderItems)),
		FeaturedCategories: make([]*model.FeaturedCategory, 0, len(req.FeaturedCategories)),
	}
	for _, it := range req.SliderItems {
		if it.ImageURL == "" {
			writeError(w, http.StatusBadRequest, "slider items require imageUrl")
			return
		}
		active := true
		if it.IsActive != nil {
			active = *it.IsActive
		}
		content.SliderItems = append(content.SliderItems, &model.SliderItem{
			Title:       it.Title,
			Description: it.Description,
			ImageURL:    it.ImageURL,
			Link:        it.Link,
			ButtonText:  it.ButtonText,
			Order:       it.Order,
			IsActive:    active,
		})
	}
	for _, fc := range req.FeaturedCategories {
		if fc.Slug == "" || fc.Name == "" {
			writeError(w, http.StatusBadRequest, "featured categories require name and slug")
			return
		}
		content.FeaturedCategories = append(content.FeaturedCategories, &model.FeaturedCategory{
			WooCategoryID: fc.WooCategoryID,
			Name:          fc.Name,
			Slug:          fc.Slug,
			Icon:          fc.Icon,
			Order:         fc.Order,
		})
	}

	if err := h.store.SaveHomeContent(r.Context(), content); err != nil {
		log.Printf("[home.save] SaveHomeContent error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to save home content")
		return
	}

	log.Printf("[home] Content saved: %d slides, %d featured categories",
		len(content.SliderItems), len(content.FeaturedCategories))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "home content saved",
	})
}

// UploadLogo 上传首页 logo（multipart 字段 file）
func (h *Handler) UploadLogo(w http.ResponseWriter, r *http.Request) {
	if h.uploader == nil {
		writeError(w, http.StatusServiceUnavailable, "object storage not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, objstore.MaxImageSize+1<<20)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file provided")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	key := objstore.LogoKey(header.Filename, contentType, h.now())
	url, err := objstore.SaveImage(r.Context(), h.uploader, key, file, header.Size, contentType)
	if err != nil {
		if objstore.IsValidationError(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Printf("[home.logo] upload %s error: %v", key, err)
		writeError(w, http.StatusInternalServerError, "failed to upload logo")
		return
	}

	if _, err := h.store.SetHomeLogo(r.Context(), url); err != nil {
		log.Printf("[home.logo] SetHomeLogo error: %v", err)
		if derr := h.uploader.Delete(r.Context(), key); derr != nil {
			log.Printf("[home.logo] cleanup %s error: %v", key, derr)
		}
		writeError(w, http.StatusInternalServerError, "failed to save logo")
		return
	}

	log.Printf("[home] Logo updated: %s", url)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"logoUrl": url,
		"message": "logo uploaded",
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
