package catalog

import "context"

// Unconfigured 未配置目录服务时使用，所有操作返回 ErrNotConfigured
type Unconfigured struct{}

func (Unconfigured) ListCategories(ctx context.Context, q CategoryQuery) ([]*Category, error) {
	return nil, ErrNotConfigured
}
func (Unconfigured) CreateCategory(ctx context.Context, c NewCategory) (*Category, error) {
	return nil, ErrNotConfigured
}
func (Unconfigured) CreateProduct(ctx context.Context, p NewProduct) (*Product, error) {
	return nil, ErrNotConfigured
}
func (Unconfigured) ListProducts(ctx context.Context, q ProductQuery) ([]*Product, error) {
	return nil, ErrNotConfigured
}
