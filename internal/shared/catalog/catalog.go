// Package catalog 外部商品目录能力接口
//
// 商家和商品处理逻辑只依赖 Catalog 接口，不感知具体的远端 API。
// 当前实现为 WooCommerce REST API（见 woocommerce 子包）。
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrNotConfigured 未配置目录服务
var ErrNotConfigured = errors.New("catalog service not configured")

// Catalog 商品目录能力
type Catalog interface {
	ListCategories(ctx context.Context, q CategoryQuery) ([]*Category, error)
	CreateCategory(ctx context.Context, c NewCategory) (*Category, error)
	CreateProduct(ctx context.Context, p NewProduct) (*Product, error)
	ListProducts(ctx context.Context, q ProductQuery) ([]*Product, error)
}

// DefaultStockQuantity 未指定库存时的默认值
const DefaultStockQuantity = 100

// ProductInput 商家提交的商品信息
type ProductInput struct {
	Name             string `json:"name"`
	ShortDescription string `json:"short_description"`
	Description      string `json:"description"`
	RegularPrice     string `json:"regular_price"`
	SalePrice        string `json:"sale_price"`
	StockQuantity    *int   `json:"stock_quantity"`
	Image            string `json:"image"`
}

// BuildSimpleProduct 将商家输入转换为目录中的简单商品
//
// 库存未填时为 DefaultStockQuantity；折扣价只有低于原价时才生效。
func BuildSimpleProduct(in ProductInput, categoryID int64) (NewProduct, error) {
	name := strings.TrimSpace(in.Name)
	regular := strings.TrimSpace(in.RegularPrice)
	if name == "" || regular == "" {
		return NewProduct{}, fmt.Errorf("name and regular_price are required")
	}
	regularVal, err := strconv.ParseFloat(regular, 64)
	if err != nil || regularVal < 0 {
		return NewProduct{}, fmt.Errorf("invalid regular_price %q", regular)
	}

	stock := DefaultStockQuantity
	if in.StockQuantity != nil {
		stock = *in.StockQuantity
	}
	status := StockOutOfStock
	if stock > 0 {
		status = StockInStock
	}

	p := NewProduct{
		Name:             name,
		Type:             "simple",
		Status:           "publish",
		RegularPrice:     regular,
		Description:      in.Description,
		ShortDescription: in.ShortDescription,
		ManageStock:      true,
		StockQuantity:    stock,
		StockStatus:      status,
		Categories:       []CategoryRef{{ID: categoryID}},
	}
	if sale := strings.TrimSpace(in.SalePrice); sale != "" {
		if v, err := strconv.ParseFloat(sale, 64); err == nil && v < regularVal {
			p.SalePrice = sale
		}
	}
	if in.Image != "" {
		p.Images = []Image{{Src: in.Image}}
	}
	return p, nil
}

// FindCategoryBySlug 在分类列表中按 slug 查找
func FindCategoryBySlug(ctx context.Context, c Catalog, slug string) (*Category, error) {
	cats, err := c.ListCategories(ctx, CategoryQuery{Slug: slug, IncludeEmpty: true})
	if err != nil {
		return nil, err
	}
	for _, cat := range cats {
		if cat.Slug == slug {
			return cat, nil
		}
	}
	return nil, nil
}

// ParentOnly 顶级分类查询
func ParentOnly(includeEmpty bool) CategoryQuery {
	var root int64
	return CategoryQuery{Parent: &root, IncludeEmpty: includeEmpty}
}

// ChildrenOf 指定父分类下的子分类
func ChildrenOf(parent int64) CategoryQuery {
	return CategoryQuery{Parent: &parent, IncludeEmpty: true}
}
