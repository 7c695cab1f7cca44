package httppresentation

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/Zhima-Mochi/minishop-marketplace/internal/application/catalog"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/apperr"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// productRequest is a create or a partial update; absent fields stay nil.
type productRequest struct {
	Name         *string          `json:"name" binding:"omitempty,max=255"`
	Description  *string          `json:"description"`
	SKU          *string          `json:"sku"`
	Category     *string          `json:"category"`
	Brand        *string          `json:"brand"`
	Price        *decimal.Decimal `json:"price"`
	ComparePrice *decimal.Decimal `json:"compare_price"`
	Stock        *int             `json:"stock" binding:"omitempty,gte=0"`
	IsActive     *bool            `json:"is_active"`
	Sizes        *[]string        `json:"sizes"`
	Color        *string          `json:"color"`
	Weight       *decimal.Decimal `json:"weight"`
	Material     *string          `json:"material"`
	ImageURL     *string          `json:"image_url"`
}

func (r productRequest) input() catalog.ProductInput {
	return catalog.ProductInput{
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
	}
}

// listQuery reads the listing filters. Malformed numbers are reported per field.
func listQuery(c *gin.Context) (catalog.ListQuery, error) {
	f := apperr.Fields{}
	q := catalog.ListQuery{
		Search:    c.Query("search"),
		Category:  c.Query("category"),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
	if raw, found := c.GetQuery("is_active"); found && raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			f.Add("is_active", "The is active field must be true or false.")
		} else {
			q.IsActive = &b
		}
	}
	for _, p := range []struct {
		key string
		dst **decimal.Decimal
	}{{"min_price", &q.MinPrice}, {"max_price", &q.MaxPrice}} {
		raw := c.Query(p.key)
		if raw == "" {
			continue
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			f.Add(p.key, "The "+strings.ReplaceAll(p.key, "_", " ")+" must be a number.")
			continue
		}
		*p.dst = &d
	}
	if raw := c.Query("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			f.Add("page", "The page must be an integer.")
		}
		q.Page = n
	}
	switch raw := c.Query("per_page"); {
	case raw == "all":
		q.All = true
	case raw != "":
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			f.Add("per_page", "The per page must be at least 1.")
		}
		q.PerPage = n
	}
	return q, f.Err()
}

func (h *Handler) handleSellerProducts(c *gin.Context) {
	q, err := listQuery(c)
	if err != nil {
		h.failure(c, err, "")
		return
	}
	page, err := h.catalog.SellerList(c.Request.Context(), principal(c).UserID, q)
	if err != nil {
		h.failure(c, err, "Failed to fetch products")
		return
	}
	success(c, http.StatusOK, "", toPageView(page, nil))
}

func (h *Handler) handleCreateProduct(c *gin.Context) {
	var req productRequest
	if !h.bindJSON(c, &req) {
		return
	}
	p, err := h.catalog.Create(c.Request.Context(), principal(c).UserID, req.input())
	if err != nil {
		h.failure(c, err, "Failed to create product")
		return
	}
	success(c, http.StatusCreated, "Product created successfully", toProductView(p, ""))
}

func (h *Handler) handleSellerProduct(c *gin.Context) {
	p, err := h.catalog.SellerGet(c.Request.Context(), principal(c).UserID, c.Param("id"))
	if err != nil {
		h.failure(c, err, "Failed to fetch product")
		return
	}
	success(c, http.StatusOK, "", toProductView(p, ""))
}

func (h *Handler) handleUpdateProduct(c *gin.Context) {
	var req productRequest
	if !h.bindJSON(c, &req) {
		return
	}
	p, err := h.catalog.Update(c.Request.Context(), principal(c).UserID, c.Param("id"), req.input())
	if err != nil {
		h.failure(c, err, "Failed to update product")
		return
	}
	success(c, http.StatusOK, "Product updated successfully", toProductView(p, ""))
}

func (h *Handler) handleDeleteProduct(c *gin.Context) {
	if err := h.catalog.Delete(c.Request.Context(), principal(c).UserID, c.Param("id")); err != nil {
		h.failure(c, err, "Failed to delete product")
		return
	}
	success(c, http.StatusOK, "Product deleted successfully", nil)
}

func (h *Handler) handleProductStats(c *gin.Context) {
	st, err := h.catalog.Stats(c.Request.Context(), principal(c).UserID)
	if err != nil {
		h.failure(c, err, "Failed to fetch product stats")
		return
	}
	success(c, http.StatusOK, "", statsView{
		TotalProducts:    st.Total,
		ActiveProducts:   st.Active,
		InactiveProducts: st.Inactive,
		LowStock:         st.LowStock,
	})
}

func (h *Handler) handlePublicProducts(c *gin.Context) {
	q, err := listQuery(c)
	if err != nil {
		h.failure(c, err, "")
		return
	}
	q.IsActive = nil
	listing, err := h.catalog.PublicList(c.Request.Context(), q)
	if err != nil {
		h.failure(c, err, "Failed to fetch products")
		return
	}
	success(c, http.StatusOK, "", toPageView(listing.Page, listing.Stores))
}

func (h *Handler) handleCategories(c *gin.Context) {
	cats, err := h.catalog.Categories(c.Request.Context())
	if err != nil {
		h.failure(c, err, "Failed to fetch categories")
		return
	}
	if cats == nil {
		cats = []string{}
	}
	success(c, http.StatusOK, "", cats)
}

func (h *Handler) handlePublicProduct(c *gin.Context) {
	p, store, err := h.catalog.PublicGet(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.failure(c, err, "Failed to fetch product")
		return
	}
	success(c, http.StatusOK, "", toProductView(p, store))
}
