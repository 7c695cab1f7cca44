package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/inventory"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/product"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/user"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// dryDB builds a gorm handle that renders SQL without ever connecting.
func dryDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.Open("host=localhost user=test dbname=test sslmode=disable"), &gorm.Config{
		DisableAutomaticPing: true,
		TranslateError:       true,
	})
	require.NoError(t, err)
	return db
}

func TestFilteredQuery(t *testing.T) {
	db := dryDB(t)
	active := true
	minPrice := decimal.NewFromInt(100)

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		r := &ProductRepository{db: tx}
		var recs []productRecord
		return r.filtered(tx.Model(&productRecord{}), product.Filter{
			SellerID: "s1",
			IsActive: &active,
			Search:   "tee",
			SearchIn: []product.SearchField{product.SearchName, product.SearchSKU},
			MinPrice: &minPrice,
		}).Find(&recs)
	})

	assert.Contains(t, sql, `seller_id = 's1'`)
	assert.Contains(t, sql, `is_active = true`)
	assert.Contains(t, sql, `(name ILIKE '%tee%' OR sku ILIKE '%tee%')`)
	assert.Contains(t, sql, `price >= `)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\% off\_now`, escapeLike("50% off_now"))
}

func TestOrderRecordRoundTrip(t *testing.T) {
	a, err := order.NewItem("i1", "p1", "Widget", 2, decimal.RequireFromString("100.00"))
	require.NoError(t, err)
	b, err := order.NewItem("i2", "p2", "Gadget", 1, decimal.RequireFromString("5.25"))
	require.NoError(t, err)
	o, err := order.New(order.Draft{
		ID:            "o1",
		Number:        "ORD-1",
		BuyerID:       "u1",
		Shipping:      order.Shipping{FullName: "Ana Cruz", Email: "ana@shop.io", PostalCode: "1000"},
		PaymentMethod: order.MethodStripe,
		Items:         []order.Item{a, b},
		ShippingFee:   decimal.NewFromInt(50),
	})
	require.NoError(t, err)

	rec := toOrderRecord(o)
	assert.True(t, rec.Total.Equal(decimal.RequireFromString("255.25")))
	assert.Equal(t, 1, rec.Items[1].LineNo)

	back := rec.toDomain()
	assert.Equal(t, o.Shipping, back.Shipping)
	assert.Equal(t, []string{"Widget", "Gadget"}, []string{back.Items[0].ProductName, back.Items[1].ProductName})
	assert.True(t, back.Total().Equal(rec.Total))
}

func TestUserRecordStoreNameNullable(t *testing.T) {
	buyer := toUserRecord(&user.User{ID: "u1", Email: " Ana@Shop.io", Role: user.RoleBuyer})
	assert.Nil(t, buyer.StoreName, "buyers must not collide on the unique store name index")
	assert.Equal(t, "ana@shop.io", buyer.Email)

	seller := toUserRecord(&user.User{ID: "u2", Email: "s@shop.io", Role: user.RoleSeller, StoreName: "Ana's", CreatedAt: time.Now()})
	require.NotNil(t, seller.StoreName)
	assert.Equal(t, "Ana's", seller.toDomain().StoreName)
}

func TestLedgerStatements(t *testing.T) {
	db := dryDB(t)

	reserve := db.ToSQL(func(tx *gorm.DB) *gorm.DB { return reserveQuery(tx, "p1", 2) })
	assert.Contains(t, reserve, `stock - 2`)
	assert.Contains(t, reserve, `id = 'p1' AND stock >= 2`)

	release := db.ToSQL(func(tx *gorm.DB) *gorm.DB { return releaseQuery(tx, "p1", 3) })
	assert.Contains(t, release, `stock + 3`)
	assert.Contains(t, release, `id = 'p1'`)
	assert.NotContains(t, release, `stock >=`)
}

func TestLedgerRejectsNonPositiveQuantity(t *testing.T) {
	l := &Ledger{db: dryDB(t)}
	ctx := context.Background()

	for _, qty := range []int{0, -1} {
		assert.ErrorIs(t, l.Reserve(ctx, "p1", qty), inventory.ErrInvalidQuantity)
		assert.ErrorIs(t, l.Release(ctx, "p1", qty), inventory.ErrInvalidQuantity)
	}
}

func TestOrderWritesAreConditional(t *testing.T) {
	db := dryDB(t)
	o := &order.Order{
		ID:            "o1",
		Status:        order.StatusCancelled,
		PaymentStatus: order.PaymentPending,
		UpdatedAt:     time.Now().UTC(),
	}

	transition := db.ToSQL(func(tx *gorm.DB) *gorm.DB { return transitionQuery(tx, o, order.StatusPending) })
	assert.Contains(t, transition, `id = 'o1' AND status = 'pending'`)
	assert.Contains(t, transition, `"status"='cancelled'`)
	assert.NotContains(t, transition, `"payment_session_id"=`)

	session := db.ToSQL(func(tx *gorm.DB) *gorm.DB { return sessionQuery(tx, "o1", "cs_1") })
	assert.Contains(t, session, `"payment_session_id"='cs_1'`)
	assert.Contains(t, session, `COALESCE(payment_session_id, '') = ''`)
	assert.NotContains(t, session, `"status"=`)
}
