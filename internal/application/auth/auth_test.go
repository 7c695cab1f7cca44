package auth

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/apperr"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/user"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/infrastructure/memory"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type seqIDs struct{ n int }

func (g *seqIDs) NewID() string {
	g.n++
	return fmt.Sprintf("user-%d", g.n)
}

func newService() *Service {
	svc := NewService(memory.NewUserRepository(), &seqIDs{}, NewTokens("test-secret", time.Hour), nil)
	svc.cost = bcrypt.MinCost
	return svc
}

func buyer() RegisterBuyerCommand {
	return RegisterBuyerCommand{
		Name:                 "Maria Clara Santos",
		Email:                "Maria@Example.com",
		Password:             "secret1",
		PasswordConfirmation: "secret1",
	}
}

func seller() RegisterSellerCommand {
	return RegisterSellerCommand{
		FirstName:            "Juan",
		LastName:             "Cruz",
		Email:                "juan@example.com",
		Password:             "longsecret",
		PasswordConfirmation: "longsecret",
		StoreName:            "Juan's Goods",
		Phone:                "09171234567",
		TermsAccepted:        true,
	}
}

func TestRegisterBuyer(t *testing.T) {
	ctx := context.Background()
	svc := newService()

	sess, err := svc.RegisterBuyer(ctx, buyer())
	require.NoError(t, err)
	assert.Equal(t, "Maria", sess.User.FirstName)
	assert.Equal(t, "Clara Santos", sess.User.LastName)
	assert.Equal(t, "maria@example.com", sess.User.Email)
	assert.Equal(t, user.RoleBuyer, sess.User.Role)
	assert.NotEqual(t, "secret1", sess.User.PasswordHash)

	p, err := svc.Authenticate(sess.Token)
	require.NoError(t, err)
	assert.Equal(t, Principal{UserID: sess.User.ID, Role: user.RoleBuyer}, p)

	_, err = svc.RegisterBuyer(ctx, buyer())
	var vErr *apperr.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "The email has already been taken.", vErr.Fields["email"])
}

func TestRegisterBuyerValidation(t *testing.T) {
	svc := newService()
	cases := map[string]struct {
		mutate func(*RegisterBuyerCommand)
		field  string
	}{
		"missing name":   {func(c *RegisterBuyerCommand) { c.Name = " " }, "name"},
		"bad email":      {func(c *RegisterBuyerCommand) { c.Email = "not-an-email" }, "email"},
		"short password": {func(c *RegisterBuyerCommand) { c.Password, c.PasswordConfirmation = "abc", "abc" }, "password"},
		"unconfirmed":    {func(c *RegisterBuyerCommand) { c.PasswordConfirmation = "other1" }, "password"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			cmd := buyer()
			tc.mutate(&cmd)
			_, err := svc.RegisterBuyer(context.Background(), cmd)
			var vErr *apperr.ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Contains(t, vErr.Fields, tc.field)
		})
	}
}

func TestRegisterSeller(t *testing.T) {
	ctx := context.Background()
	svc := newService()

	sess, err := svc.RegisterSeller(ctx, seller())
	require.NoError(t, err)
	assert.Equal(t, "Juan's Goods", sess.User.StoreName)
	assert.Equal(t, user.RoleSeller, sess.User.Role)

	dup := seller()
	dup.Email = "other@example.com"
	_, err = svc.RegisterSeller(ctx, dup)
	var vErr *apperr.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "This store name is already taken.", vErr.Fields["store_name"])

	bad := seller()
	bad.TermsAccepted = false
	bad.Phone = "0917123456789012345678"
	bad.Password, bad.PasswordConfirmation = "short12", "short12"
	_, err = svc.RegisterSeller(ctx, bad)
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Fields, "terms_accepted")
	assert.Contains(t, vErr.Fields, "phone")
	assert.Contains(t, vErr.Fields, "password")
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	svc := newService()
	_, err := svc.RegisterBuyer(ctx, buyer())
	require.NoError(t, err)

	sess, err := svc.Login(ctx, LoginCommand{Email: "maria@example.com", Password: "secret1", Role: user.RoleBuyer})
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Token)

	_, err = svc.Login(ctx, LoginCommand{Email: "nobody@example.com", Password: "secret1", Role: user.RoleBuyer})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, err = svc.Login(ctx, LoginCommand{Email: "maria@example.com", Password: "wrong12", Role: user.RoleBuyer})
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))

	_, err = svc.Login(ctx, LoginCommand{Email: "maria@example.com", Password: "secret1", Role: user.RoleSeller})
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	assert.EqualError(t, err, "This account is not registered as a seller account.")
}

func TestProfile(t *testing.T) {
	ctx := context.Background()
	svc := newService()
	sess, err := svc.RegisterSeller(ctx, seller())
	require.NoError(t, err)
	p, err := svc.Authenticate(sess.Token)
	require.NoError(t, err)

	u, err := svc.Profile(ctx, p, user.RoleSeller)
	require.NoError(t, err)
	assert.Equal(t, "Juan Cruz", u.FullName())

	_, err = svc.Profile(ctx, p, user.RoleBuyer)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}

func TestTokens(t *testing.T) {
	tokens := NewTokens("test-secret", time.Minute)
	base := time.Now()
	tokens.now = func() time.Time { return base }

	raw, exp, err := tokens.Issue(&user.User{ID: "u1", Role: user.RoleBuyer})
	require.NoError(t, err)
	assert.Equal(t, base.Add(time.Minute).Unix(), exp.Unix())

	_, err = NewTokens("other-secret", time.Minute).Parse(raw)
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))

	tokens.now = func() time.Time { return base.Add(2 * time.Minute) }
	_, err = tokens.Parse(raw)
	assert.EqualError(t, err, "Token has expired.")

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "u1", "role": "buyer"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = tokens.Parse(none)
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
}
