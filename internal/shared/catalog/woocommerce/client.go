// Package woocommerce WooCommerce REST API (wc/v3) 目录实现
package woocommerce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"olapp/internal/shared/catalog"
)

// PerPage 每页条数（WooCommerce 上限 100）
const PerPage = 100

// Config 客户端配置
type Config struct {
	URL            string
	ConsumerKey    string
	ConsumerSecret string
	Timeout        time.Duration
}

// Client WooCommerce 客户端
type Client struct {
	baseURL        string
	consumerKey    string
	consumerSecret string
	httpClient     *http.Client
}

// APIError WooCommerce 返回的错误
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("woocommerce: %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// NewClient 创建客户端
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:        strings.TrimRight(cfg.URL, "/") + "/wp-json/wc/v3",
		consumerKey:    cfg.ConsumerKey,
		consumerSecret: cfg.ConsumerSecret,
		httpClient:     &http.Client{Timeout: timeout},
	}
}

// ListCategories GET products/categories
func (c *Client) ListCategories(ctx context.Context, q catalog.CategoryQuery) ([]*catalog.Category, error) {
	params := url.Values{}
	params.Set("per_page", strconv.Itoa(PerPage))
	params.Set("hide_empty", strconv.FormatBool(!q.IncludeEmpty))
	if q.Parent != nil {
		params.Set("parent", strconv.FormatInt(*q.Parent, 10))
	}
	if q.Slug != "" {
		params.Set("slug", q.Slug)
	}

	var cats []*catalog.Category
	if err := c.do(ctx, http.MethodGet, "products/categories", params, nil, &cats); err != nil {
		return nil, err
	}
	if cats == nil {
		cats = []*catalog.Category{}
	}
	return cats, nil
}

// CreateCategory POST products/categories
func (c *Client) CreateCategory(ctx context.Context, nc catalog.NewCategory) (*catalog.Category, error) {
	var cat catalog.Category
	if err := c.do(ctx, http.MethodPost, "products/categories", nil, nc, &cat); err != nil {
		return nil, err
	}
	log.Printf("[woocommerce] Created category %d (%s)", cat.ID, cat.Slug)
	return &cat, nil
}

// CreateProduct POST products
func (c *Client) CreateProduct(ctx context.Context, p catalog.NewProduct) (*catalog.Product, error) {
	var prod catalog.Product
	if err := c.do(ctx, http.MethodPost, "products", nil, p, &prod); err != nil {
		return nil, err
	}
	log.Printf("[woocommerce] Created product %d (%s)", prod.ID, prod.Name)
	return &prod, nil
}

// ListProducts GET products，只返回已发布商品
func (c *Client) ListProducts(ctx context.Context, q catalog.ProductQuery) ([]*catalog.Product, error) {
	params := url.Values{}
	params.Set("per_page", strconv.Itoa(PerPage))
	params.Set("status", "publish")
	if q.CategoryID > 0 {
		params.Set("category", strconv.FormatInt(q.CategoryID, 10))
	}
	if q.Search != "" {
		params.Set("search", q.Search)
	}
	if q.Slug != "" {
		params.Set("slug", q.Slug)
	}
	if q.Page > 0 {
		params.Set("page", strconv.Itoa(q.Page))
	}

	var products []*catalog.Product
	if err := c.do(ctx, http.MethodGet, "products", params, nil, &products); err != nil {
		return nil, err
	}
	if products == nil {
		products = []*catalog.Product{}
	}
	return products, nil
}

// do 发送请求，consumer key/secret 走 HTTP Basic 认证
func (c *Client) do(ctx context.Context, method, path string, params url.Values, body, out interface{}) error {
	endpoint := c.baseURL + "/" + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.consumerKey, c.consumerSecret)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("woocommerce %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if err := json.Unmarshal(data, apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(data))
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

var _ catalog.Catalog = (*Client)(nil)
