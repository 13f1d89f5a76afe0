package catalog

// Image 图片
type Image struct {
	ID   int64  `json:"id,omitempty"`
	Src  string `json:"src"`
	Alt  string `json:"alt,omitempty"`
	Name string `json:"name,omitempty"`
}

// Category 商品分类
type Category struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Count       int    `json:"count"`
	Parent      int64  `json:"parent"`
	Description string `json:"description,omitempty"`
	Display     string `json:"display,omitempty"`
	Image       *Image `json:"image,omitempty"`
}

// CategoryRef 商品上的分类引用
type CategoryRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name,omitempty"`
	Slug string `json:"slug,omitempty"`
}

// Product 商品
type Product struct {
	ID               int64         `json:"id"`
	Name             string        `json:"name"`
	Slug             string        `json:"slug"`
	Description      string        `json:"description,omitempty"`
	ShortDescription string        `json:"short_description,omitempty"`
	Price            string        `json:"price"`
	RegularPrice     string        `json:"regular_price"`
	SalePrice        string        `json:"sale_price"`
	OnSale           bool          `json:"on_sale"`
	StockStatus      string        `json:"stock_status"`
	StockQuantity    *int          `json:"stock_quantity,omitempty"`
	Categories       []CategoryRef `json:"categories,omitempty"`
	Images           []Image       `json:"images,omitempty"`
	Permalink        string        `json:"permalink,omitempty"`
	Status           string        `json:"status"`
}

// NewCategory 创建分类请求
type NewCategory struct {
	Name        string `json:"name"`
	Slug        string `json:"slug,omitempty"`
	Description string `json:"description,omitempty"`
	Parent      int64  `json:"parent,omitempty"`
	Image       *Image `json:"image,omitempty"`
}

// NewProduct 创建商品请求
type NewProduct struct {
	Name             string        `json:"name"`
	Type             string        `json:"type"`
	Status           string        `json:"status"`
	RegularPrice     string        `json:"regular_price"`
	SalePrice        string        `json:"sale_price,omitempty"`
	Description      string        `json:"description,omitempty"`
	ShortDescription string        `json:"short_description,omitempty"`
	ManageStock      bool          `json:"manage_stock"`
	StockQuantity    int           `json:"stock_quantity"`
	StockStatus      string        `json:"stock_status"`
	Categories       []CategoryRef `json:"categories"`
	Images           []Image       `json:"images,omitempty"`
}

// CategoryQuery 分类查询条件
type CategoryQuery struct {
	// Parent 非 nil 时只返回该父分类下的分类，0 表示顶级分类
	Parent *int64
	// IncludeEmpty 包含没有商品的分类
	IncludeEmpty bool
	Slug         string
}

// ProductQuery 商品查询条件
type ProductQuery struct {
	CategoryID int64
	Search     string
	Slug       string
	Page       int
}

// 库存状态
const (
	StockInStock    = "instock"
	StockOutOfStock = "outofstock"
)
