package postgres

import (
	"time"

	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/product"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/user"
	"github.com/shopspring/decimal"
)

type userRecord struct {
	ID            string  `gorm:"type:uuid;primaryKey"`
	FirstName     string  `gorm:"size:255;not null"`
	LastName      string  `gorm:"size:255"`
	Email         string  `gorm:"size:255;not null;uniqueIndex"`
	PasswordHash  string  `gorm:"not null"`
	Role          string  `gorm:"type:varchar(16);not null;default:'buyer'"`
	StoreName     *string `gorm:"size:255;uniqueIndex"`
	Phone         string  `gorm:"size:20"`
	TermsAccepted bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (userRecord) TableName() string { return "users" }

type productRecord struct {
	ID           string           `gorm:"type:uuid;primaryKey"`
	SellerID     string           `gorm:"type:uuid;not null;index"`
	Name         string           `gorm:"size:255;not null"`
	Description  string           `gorm:"type:text"`
	SKU          string           `gorm:"column:sku;size:255;not null;uniqueIndex"`
	Category     string           `gorm:"size:255;not null;index"`
	Brand        string           `gorm:"size:255"`
	Price        decimal.Decimal  `gorm:"type:numeric(10,2);not null"`
	ComparePrice *decimal.Decimal `gorm:"type:numeric(10,2)"`
	Stock        int              `gorm:"not null;default:0;check:stock >= 0"`
	IsActive     bool             `gorm:"not null;default:true;index"`
	Sizes        []string         `gorm:"serializer:json"`
	Color        string           `gorm:"size:64"`
	Weight       *decimal.Decimal `gorm:"type:numeric(10,2)"`
	Material     string           `gorm:"size:255"`
	ImageURL     string           `gorm:"size:1024"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (productRecord) TableName() string { return "products" }

type cartItemRecord struct {
	ID        string `gorm:"type:uuid;primaryKey"`
	BuyerID   string `gorm:"type:uuid;not null;uniqueIndex:idx_cart_buyer_product"`
	ProductID string `gorm:"type:uuid;not null;uniqueIndex:idx_cart_buyer_product"`
	Quantity  int    `gorm:"not null;check:quantity >= 1"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (cartItemRecord) TableName() string { return "carts" }

type orderRecord struct {
	ID                 string            `gorm:"type:uuid;primaryKey"`
	Number             string            `gorm:"column:order_number;size:32;not null;uniqueIndex"`
	BuyerID            string            `gorm:"type:uuid;not null;index"`
	ShippingFullName   string            `gorm:"size:255;not null"`
	ShippingPhone      string            `gorm:"size:64;not null"`
	ShippingEmail      string            `gorm:"size:255;not null"`
	ShippingAddress    string            `gorm:"type:text;not null"`
	ShippingCity       string            `gorm:"size:255;not null"`
	ShippingProvince   string            `gorm:"size:255;not null"`
	ShippingPostalCode string            `gorm:"size:32;not null"`
	Subtotal           decimal.Decimal   `gorm:"type:numeric(10,2);not null"`
	ShippingFee        decimal.Decimal   `gorm:"type:numeric(10,2);not null;default:0"`
	Total              decimal.Decimal   `gorm:"type:numeric(10,2);not null"`
	PaymentMethod      string            `gorm:"type:varchar(16);not null"`
	PaymentStatus      string            `gorm:"type:varchar(16);not null;default:'pending'"`
	PaymentSessionID   string            `gorm:"size:255;index"`
	Status             string            `gorm:"type:varchar(16);not null;default:'pending'"`
	Notes              string            `gorm:"column:order_notes;type:text"`
	Items              []orderItemRecord `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt          time.Time         `gorm:"index"`
	UpdatedAt          time.Time
}

func (orderRecord) TableName() string { return "orders" }

type orderItemRecord struct {
	ID          string          `gorm:"type:uuid;primaryKey"`
	OrderID     string          `gorm:"type:uuid;not null;index"`
	LineNo      int             `gorm:"not null"`
	ProductID   string          `gorm:"type:uuid;not null"`
	ProductName string          `gorm:"size:255;not null"`
	Quantity    int             `gorm:"not null"`
	Price       decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	Subtotal    decimal.Decimal `gorm:"type:numeric(10,2);not null"`
}

func (orderItemRecord) TableName() string { return "order_items" }

func toUserRecord(u *user.User) *userRecord {
	rec := &userRecord{
		ID:            u.ID,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Email:         user.NormalizeEmail(u.Email),
		PasswordHash:  u.PasswordHash,
		Role:          string(u.Role),
		Phone:         u.Phone,
		TermsAccepted: u.TermsAccepted,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
	if u.StoreName != "" {
		name := u.StoreName
		rec.StoreName = &name
	}
	return rec
}

func (r *userRecord) toDomain() *user.User {
	u := &user.User{
		ID:            r.ID,
		FirstName:     r.FirstName,
		LastName:      r.LastName,
		Email:         r.Email,
		PasswordHash:  r.PasswordHash,
		Role:          user.Role(r.Role),
		Phone:         r.Phone,
		TermsAccepted: r.TermsAccepted,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
	if r.StoreName != nil {
		u.StoreName = *r.StoreName
	}
	return u
}

func toProductRecord(p *product.Product) *productRecord {
	return &productRecord{
		ID:           p.ID,
		SellerID:     p.SellerID,
		Name:         p.Name,
		Description:  p.Description,
		SKU:          p.SKU,
		Category:     p.Category,
		Brand:        p.Brand,
		Price:        p.Price,
		ComparePrice: p.ComparePrice,
		Stock:        p.Stock,
		IsActive:     p.IsActive,
		Sizes:        p.Sizes,
		Color:        p.Color,
		Weight:       p.Weight,
		Material:     p.Material,
		ImageURL:     p.ImageURL,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func (r *productRecord) toDomain() *product.Product {
	return &product.Product{
		ID:           r.ID,
		SellerID:     r.SellerID,
		Name:         r.Name,
		Description:  r.Description,
		SKU:          r.SKU,
		Category:     r.Category,
		Brand:        r.Brand,
		Price:        r.Price,
		ComparePrice: r.ComparePrice,
		Stock:        r.Stock,
		IsActive:     r.IsActive,
		Sizes:        r.Sizes,
		Color:        r.Color,
		Weight:       r.Weight,
		Material:     r.Material,
		ImageURL:     r.ImageURL,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func toCartRecord(it *cart.Item) *cartItemRecord {
	return &cartItemRecord{
		ID:        it.ID,
		BuyerID:   it.BuyerID,
		ProductID: it.ProductID,
		Quantity:  it.Quantity,
		CreatedAt: it.CreatedAt,
		UpdatedAt: it.UpdatedAt,
	}
}

func (r *cartItemRecord) toDomain() *cart.Item {
	return &cart.Item{
		ID:        r.ID,
		BuyerID:   r.BuyerID,
		ProductID: r.ProductID,
		Quantity:  r.Quantity,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func toOrderRecord(o *order.Order) *orderRecord {
	items := make([]orderItemRecord, 0, len(o.Items))
	for i, it := range o.Items {
		items = append(items, orderItemRecord{
			ID:          it.ID,
			OrderID:     o.ID,
			LineNo:      i,
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			Price:       it.Price,
			Subtotal:    it.Subtotal,
		})
	}
	return &orderRecord{
		ID:                 o.ID,
		Number:             o.Number,
		BuyerID:            o.BuyerID,
		ShippingFullName:   o.Shipping.FullName,
		ShippingPhone:      o.Shipping.Phone,
		ShippingEmail:      o.Shipping.Email,
		ShippingAddress:    o.Shipping.Address,
		ShippingCity:       o.Shipping.City,
		ShippingProvince:   o.Shipping.Province,
		ShippingPostalCode: o.Shipping.PostalCode,
		Subtotal:           o.Subtotal,
		ShippingFee:        o.ShippingFee,
		Total:              o.Total(),
		PaymentMethod:      string(o.PaymentMethod),
		PaymentStatus:      string(o.PaymentStatus),
		PaymentSessionID:   o.PaymentSessionID,
		Status:             string(o.Status),
		Notes:              o.Notes,
		Items:              items,
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
	}
}

func (r *orderRecord) toDomain() *order.Order {
	o := &order.Order{
		ID:      r.ID,
		Number:  r.Number,
		BuyerID: r.BuyerID,
		Shipping: order.Shipping{
			FullName:   r.ShippingFullName,
			Phone:      r.ShippingPhone,
			Email:      r.ShippingEmail,
			Address:    r.ShippingAddress,
			City:       r.ShippingCity,
			Province:   r.ShippingProvince,
			PostalCode: r.ShippingPostalCode,
		},
		Subtotal:         r.Subtotal,
		ShippingFee:      r.ShippingFee,
		PaymentMethod:    order.PaymentMethod(r.PaymentMethod),
		PaymentStatus:    order.PaymentStatus(r.PaymentStatus),
		PaymentSessionID: r.PaymentSessionID,
		Status:           order.Status(r.Status),
		Notes:            r.Notes,
		Items:            make([]order.Item, 0, len(r.Items)),
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
	for _, it := range r.Items {
		o.Items = append(o.Items, order.Item{
			ID:          it.ID,
			OrderID:     it.OrderID,
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			Price:       it.Price,
			Subtotal:    it.Subtotal,
		})
	}
	return o
}
