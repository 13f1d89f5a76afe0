// Package catalogtest 进程内的 Catalog 实现，供测试使用
package catalogtest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"olapp/internal/shared/catalog"
)

// Fake 内存目录
type Fake struct {
	mu         sync.Mutex
	nextID     int64
	categories []*catalog.Category
	products   []*catalog.Product

	// Calls 记录各方法调用次数
	Calls map[string]int
	// Err 非 nil 时所有调用返回该错误
	Err error
}

// New 创建内存目录
func New() *Fake {
	return &Fake{nextID: 1, Calls: map[string]int{}}
}

// AddCategory 预置分类
func (f *Fake) AddCategory(name, slug string, parent int64) *catalog.Category {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := &catalog.Category{ID: f.nextID, Name: name, Slug: slug, Parent: parent}
	f.nextID++
	f.categories = append(f.categories, c)
	return c
}

// Products 已创建的商品
func (f *Fake) Products() []*catalog.Product {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*catalog.Product(nil), f.products...)
}

func (f *Fake) ListCategories(ctx context.Context, q catalog.CategoryQuery) ([]*catalog.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls["ListCategories"]++
	if f.Err != nil {
		return nil, f.Err
	}
	out := []*catalog.Category{}
	for _, c := range f.categories {
		if q.Parent != nil && c.Parent != *q.Parent {
			continue
		}
		if q.Slug != "" && c.Slug != q.Slug {
			continue
		}
		if !q.IncludeEmpty && c.Count == 0 {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (f *Fake) CreateCategory(ctx context.Context, nc catalog.NewCategory) (*catalog.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls["CreateCategory"]++
	if f.Err != nil {
		return nil, f.Err
	}
	slug := nc.Slug
	if slug == "" {
		slug = strings.ToLower(strings.ReplaceAll(nc.Name, " ", "-"))
	}
	for _, c := range f.categories {
		if c.Slug == slug {
			return nil, fmt.Errorf("term_exists: %s", slug)
		}
	}
	c := &catalog.Category{ID: f.nextID, Name: nc.Name, Slug: slug, Parent: nc.Parent, Description: nc.Description}
	f.nextID++
	f.categories = append(f.categories, c)
	return c, nil
}

func (f *Fake) CreateProduct(ctx context.Context, p catalog.NewProduct) (*catalog.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls["CreateProduct"]++
	if f.Err != nil {
		return nil, f.Err
	}
	qty := p.StockQuantity
	prod := &catalog.Product{
		ID:            f.nextID,
		Name:          p.Name,
		RegularPrice:  p.RegularPrice,
		SalePrice:     p.SalePrice,
		Price:         p.RegularPrice,
		OnSale:        p.SalePrice != "",
		StockStatus:   p.StockStatus,
		StockQuantity: &qty,
		Categories:    p.Categories,
		Images:        p.Images,
		Status:        p.Status,
	}
	if prod.OnSale {
		prod.Price = p.SalePrice
	}
	f.nextID++
	f.products = append(f.products, prod)
	for _, ref := range p.Categories {
		for _, c := range f.categories {
			if c.ID == ref.ID {
				c.Count++
			}
		}
	}
	return prod, nil
}

func (f *Fake) ListProducts(ctx context.Context, q catalog.ProductQuery) ([]*catalog.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls["ListProducts"]++
	if f.Err != nil {
		return nil, f.Err
	}
	out := []*catalog.Product{}
	for _, p := range f.products {
		if q.CategoryID > 0 && !inCategory(p, q.CategoryID) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func inCategory(p *catalog.Product, id int64) bool {
	for _, c := range p.Categories {
		if c.ID == id {
			return true
		}
	}
	return false
}

var _ catalog.Catalog = (*Fake)(nil)
