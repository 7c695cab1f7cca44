package httppresentation

import (
	"time"

	appcart "github.com/Zhima-Mochi/minishop-marketplace/internal/application/cart"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/product"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/user"
	"github.com/shopspring/decimal"
)

// Money leaves the API as a fixed two-decimal string.
func money(d decimal.Decimal) string { return d.StringFixed(2) }

func optionalMoney(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	v := money(*d)
	return &v
}

type userView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Role      user.Role `json:"role"`
	StoreName string    `json:"store_name,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserView(u *user.User) userView {
	return userView{
		ID:        u.ID,
		Name:      u.FullName(),
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Role:      u.Role,
		StoreName: u.StoreName,
		Phone:     u.Phone,
		CreatedAt: u.CreatedAt,
	}
}

type productView struct {
	ID           string    `json:"id"`
	SellerID     string    `json:"seller_id"`
	StoreName    string    `json:"store_name,omitempty"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	SKU          string    `json:"sku"`
	Category     string    `json:"category"`
	Brand        string    `json:"brand"`
	Price        string    `json:"price"`
	ComparePrice *string   `json:"compare_price"`
	Stock        int       `json:"stock"`
	IsActive     bool      `json:"is_active"`
	Sizes        []string  `json:"sizes"`
	Color        string    `json:"color"`
	Weight       *string   `json:"weight"`
	Material     string    `json:"material"`
	ImageURL     string    `json:"image_url"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func toProductView(p *product.Product, storeName string) productView {
	sizes := p.Sizes
	if sizes == nil {
		sizes = []string{}
	}
	return productView{
		ID:           p.ID,
		SellerID:     p.SellerID,
		StoreName:    storeName,
		Name:         p.Name,
		Description:  p.Description,
		SKU:          p.SKU,
		Category:     p.Category,
		Brand:        p.Brand,
		Price:        money(p.Price),
		ComparePrice: optionalMoney(p.ComparePrice),
		Stock:        p.Stock,
		IsActive:     p.IsActive,
		Sizes:        sizes,
		Color:        p.Color,
		Weight:       optionalMoney(p.Weight),
		Material:     p.Material,
		ImageURL:     p.ImageURL,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

// pageView mirrors a length-aware paginator.
type pageView struct {
	Data        []productView `json:"data"`
	CurrentPage int           `json:"current_page"`
	LastPage    int           `json:"last_page"`
	PerPage     int           `json:"per_page"`
	Total       int           `json:"total"`
}

func toPageView(page product.Page, stores map[string]string) pageView {
	items := make([]productView, 0, len(page.Items))
	for _, p := range page.Items {
		items = append(items, toProductView(p, stores[p.SellerID]))
	}
	perPage := page.PerPage
	if perPage <= 0 {
		perPage = page.Total
	}
	return pageView{
		Data:        items,
		CurrentPage: page.Page,
		LastPage:    page.LastPage(),
		PerPage:     perPage,
		Total:       page.Total,
	}
}

type statsView struct {
	TotalProducts    int `json:"total_products"`
	ActiveProducts   int `json:"active_products"`
	InactiveProducts int `json:"inactive_products"`
	LowStock         int `json:"low_stock"`
}

type cartProductView struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    string `json:"price"`
	ImageURL string `json:"image_url"`
	Stock    int    `json:"stock"`
	Seller   string `json:"seller"`
	Category string `json:"category"`
	Brand    string `json:"brand"`
}

type cartLineView struct {
	ID        string          `json:"id"`
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Product   cartProductView `json:"product"`
	Subtotal  string          `json:"subtotal"`
}

func toCartLineView(l appcart.Line) cartLineView {
	return cartLineView{
		ID:        l.Item.ID,
		ProductID: l.Item.ProductID,
		Quantity:  l.Item.Quantity,
		Product: cartProductView{
			ID:       l.Product.ID,
			Name:     l.Product.Name,
			Price:    money(l.Product.Price),
			ImageURL: l.Product.ImageURL,
			Stock:    l.Product.Stock,
			Seller:   l.SellerName,
			Category: l.Product.Category,
			Brand:    l.Product.Brand,
		},
		Subtotal: money(l.Subtotal),
	}
}

type cartView struct {
	Items []cartLineView `json:"items"`
	Total string         `json:"total"`
	Count int            `json:"count"`
}

type shippingView struct {
	FullName   string `json:"fullName"`
	Phone      string `json:"phone"`
	Email      string `json:"email"`
	Address    string `json:"address"`
	City       string `json:"city"`
	Province   string `json:"province"`
	PostalCode string `json:"postalCode"`
}

type orderItemView struct {
	ID          string `json:"id"`
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	Price       string `json:"price"`
	Subtotal    string `json:"subtotal"`
}

type orderView struct {
	ID               string              `json:"id"`
	OrderNumber      string              `json:"order_number"`
	BuyerID          string              `json:"user_id"`
	Shipping         shippingView        `json:"shipping"`
	Subtotal         string              `json:"subtotal"`
	ShippingFee      string              `json:"shipping_fee"`
	Total            string              `json:"total"`
	PaymentMethod    order.PaymentMethod `json:"payment_method"`
	PaymentStatus    order.PaymentStatus `json:"payment_status"`
	Status           order.Status        `json:"status"`
	PaymentSessionID string              `json:"payment_session_id,omitempty"`
	Notes            string              `json:"order_notes"`
	Items            []orderItemView     `json:"items"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

func toOrderView(o *order.Order) orderView {
	items := make([]orderItemView, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, orderItemView{
			ID:          it.ID,
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			Price:       money(it.Price),
			Subtotal:    money(it.Subtotal),
		})
	}
	s := o.Shipping
	return orderView{
		ID:          o.ID,
		OrderNumber: o.Number,
		BuyerID:     o.BuyerID,
		Shipping: shippingView{
			FullName:   s.FullName,
			Phone:      s.Phone,
			Email:      s.Email,
			Address:    s.Address,
			City:       s.City,
			Province:   s.Province,
			PostalCode: s.PostalCode,
		},
		Subtotal:         money(o.Subtotal),
		ShippingFee:      money(o.ShippingFee),
		Total:            money(o.Total()),
		PaymentMethod:    o.PaymentMethod,
		PaymentStatus:    o.PaymentStatus,
		Status:           o.Status,
		PaymentSessionID: o.PaymentSessionID,
		Notes:            o.Notes,
		Items:            items,
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
	}
}
