// Package auth registers and authenticates buyers and sellers.
package auth

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/Zhima-Mochi/minishop-marketplace/internal/application"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/apperr"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/user"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/observability"
	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"go.opentelemetry.io/otel/attribute"
)

const (
	authService = "auth-service"

	useCaseRegisterBuyer  = "auth.register.buyer"
	useCaseRegisterSeller = "auth.register.seller"
	useCaseLogin          = "auth.login"
	useCaseProfile        = "auth.profile"

	minBuyerPassword  = 6
	minSellerPassword = 8
	maxNameLen        = 255
	maxPhoneLen       = 20
)

var validate = validator.New()

type IDGenerator interface {
	NewID() string
}

type RegisterBuyerCommand struct {
	Name                 string
	Email                string
	Password             string
	PasswordConfirmation string
}

type RegisterSellerCommand struct {
	FirstName            string
	LastName             string
	Email                string
	Password             string
	PasswordConfirmation string
	StoreName            string
	Phone                string
	TermsAccepted        bool
}

type LoginCommand struct {
	Email    string
	Password string
	Role     user.Role
}

// Session is a signed-in user with its access token.
type Session struct {
	User      *user.User
	Token     string
	ExpiresAt time.Time
}

type Service struct {
	users  user.Repository
	ids    IDGenerator
	tokens *Tokens
	cost   int
	now    func() time.Time
	inst   *application.Instrumentation
}

func NewService(users user.Repository, ids IDGenerator, tokens *Tokens, tel observability.Observability) *Service {
	return &Service{
		users:  users,
		ids:    ids,
		tokens: tokens,
		cost:   bcrypt.DefaultCost,
		now:    time.Now,
		inst:   application.NewInstrumentation(tel, authService),
	}
}

// Authenticate resolves a bearer token to its principal.
func (s *Service) Authenticate(token string) (Principal, error) {
	return s.tokens.Parse(token)
}

func (s *Service) RegisterBuyer(ctx context.Context, cmd RegisterBuyerCommand) (_ *Session, err error) {
	ctx, run := s.inst.Begin(ctx, useCaseRegisterBuyer, "RegisterBuyer")
	defer func() { run.End(err) }()

	f := apperr.Fields{}
	name := strings.TrimSpace(cmd.Name)
	switch {
	case name == "":
		f.Add("name", "The name field is required.")
	case len(name) > maxNameLen:
		f.Add("name", "The name may not be greater than 255 characters.")
	}
	checkEmail(f, cmd.Email, "The email field is required.")
	checkPassword(f, cmd.Password, cmd.PasswordConfirmation, minBuyerPassword,
		"The password field is required.", "The password field confirmation does not match.")
	if err := f.Err(); err != nil {
		return nil, err
	}

	first, last := user.SplitName(name)
	u := &user.User{
		FirstName:     first,
		LastName:      last,
		Email:         user.NormalizeEmail(cmd.Email),
		Role:          user.RoleBuyer,
		TermsAccepted: true,
	}
	return s.register(ctx, run, u, cmd.Password, "The email has already been taken.")
}

func (s *Service) RegisterSeller(ctx context.Context, cmd RegisterSellerCommand) (_ *Session, err error) {
	ctx, run := s.inst.Begin(ctx, useCaseRegisterSeller, "RegisterSeller")
	defer func() { run.End(err) }()

	f := apperr.Fields{}
	required := func(field, value, msg string) string {
		v := strings.TrimSpace(value)
		switch {
		case v == "":
			f.Add(field, msg)
		case len(v) > maxNameLen:
			f.Add(field, "The "+strings.ReplaceAll(field, "_", " ")+" may not be greater than 255 characters.")
		}
		return v
	}
	first := required("first_name", cmd.FirstName, "First name is required.")
	last := required("last_name", cmd.LastName, "Last name is required.")
	store := required("store_name", cmd.StoreName, "Store name is required.")
	phone := strings.TrimSpace(cmd.Phone)
	switch {
	case phone == "":
		f.Add("phone", "Phone number is required.")
	case len(phone) > maxPhoneLen:
		f.Add("phone", "The phone may not be greater than 20 characters.")
	}
	checkEmail(f, cmd.Email, "Email address is required.")
	checkPassword(f, cmd.Password, cmd.PasswordConfirmation, minSellerPassword,
		"Password is required.", "Password confirmation does not match.")
	if !cmd.TermsAccepted {
		f.Add("terms_accepted", "You must accept the terms and conditions.")
	}
	if err := f.Err(); err != nil {
		return nil, err
	}

	u := &user.User{
		FirstName:     first,
		LastName:      last,
		Email:         user.NormalizeEmail(cmd.Email),
		Role:          user.RoleSeller,
		StoreName:     store,
		Phone:         phone,
		TermsAccepted: true,
	}
	return s.register(ctx, run, u, cmd.Password, "This email is already registered.")
}

func (s *Service) register(ctx context.Context, run *application.Execution, u *user.User, password, emailTaken string) (*Session, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		run.Fail("PASSWORD_HASH_FAILED")
		return nil, err
	}
	now := s.now().UTC()
	u.ID = s.ids.NewID()
	u.PasswordHash = string(hash)
	u.CreatedAt, u.UpdatedAt = now, now

	if err := s.users.Insert(ctx, u); err != nil {
		switch {
		case errors.Is(err, user.ErrEmailTaken):
			run.Fail("EMAIL_TAKEN")
			return nil, apperr.Validation("email", emailTaken)
		case errors.Is(err, user.ErrStoreNameTaken):
			run.Fail("STORE_NAME_TAKEN")
			return nil, apperr.Validation("store_name", "This store name is already taken.")
		}
		run.Fail("REPO_INSERT_FAILED")
		return nil, &apperr.PersistenceError{Op: "insert user", Err: err}
	}
	run.Field("user_id", u.ID)
	return s.session(run, u)
}

// Login checks the credentials and that the account holds cmd.Role.
func (s *Service) Login(ctx context.Context, cmd LoginCommand) (_ *Session, err error) {
	ctx, run := s.inst.Begin(ctx, useCaseLogin, "Login", attribute.String("user.role", string(cmd.Role)))
	defer func() { run.End(err) }()

	f := apperr.Fields{}
	checkEmail(f, cmd.Email, "The email field is required.")
	switch {
	case cmd.Password == "":
		f.Add("password", "The password field is required.")
	case len(cmd.Password) < minBuyerPassword:
		f.Add("password", "The password must be at least 6 characters.")
	}
	if err := f.Err(); err != nil {
		return nil, err
	}

	u, err := s.users.FindByEmail(ctx, cmd.Email)
	switch {
	case errors.Is(err, user.ErrNotFound):
		run.Fail("UNKNOWN_EMAIL")
		return nil, &apperr.NotFoundError{Resource: "account"}
	case err != nil:
		run.Fail("REPO_FIND_FAILED")
		return nil, &apperr.PersistenceError{Op: "find user", Err: err}
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(cmd.Password)) != nil {
		run.Fail("BAD_PASSWORD")
		return nil, &apperr.UnauthorizedError{Reason: "Invalid password."}
	}
	if u.Role != cmd.Role {
		run.Fail("WRONG_ROLE")
		return nil, &apperr.ForbiddenError{Reason: "This account is not registered as a " + string(cmd.Role) + " account."}
	}
	run.Field("user_id", u.ID)
	return s.session(run, u)
}

// Profile loads the caller's account. A role mismatch is forbidden.
func (s *Service) Profile(ctx context.Context, p Principal, role user.Role) (_ *user.User, err error) {
	ctx, run := s.inst.Begin(ctx, useCaseProfile, "Profile", attribute.String("user.id", p.UserID))
	defer func() { run.End(err) }()

	if p.Role != role {
		return nil, &apperr.ForbiddenError{Reason: "Unauthorized access."}
	}
	u, err := s.users.Get(ctx, p.UserID)
	switch {
	case errors.Is(err, user.ErrNotFound):
		return nil, &apperr.UnauthorizedError{Reason: "Unauthenticated."}
	case err != nil:
		run.Fail("REPO_GET_FAILED")
		return nil, &apperr.PersistenceError{Op: "get user", Err: err}
	}
	return u, nil
}

func (s *Service) session(run *application.Execution, u *user.User) (*Session, error) {
	token, exp, err := s.tokens.Issue(u)
	if err != nil {
		run.Fail("TOKEN_SIGN_FAILED")
		return nil, err
	}
	return &Session{User: u, Token: token, ExpiresAt: exp}, nil
}

func checkEmail(f apperr.Fields, email, requiredMsg string) {
	email = strings.TrimSpace(email)
	switch {
	case email == "":
		f.Add("email", requiredMsg)
	case len(email) > maxNameLen:
		f.Add("email", "The email may not be greater than 255 characters.")
	case validate.Var(email, "email") != nil:
		f.Add("email", "The email must be a valid email address.")
	}
}

func checkPassword(f apperr.Fields, password, confirmation string, min int, requiredMsg, mismatchMsg string) {
	switch {
	case password == "":
		f.Add("password", requiredMsg)
	case len(password) < min:
		f.Add("password", "The password must be at least "+strconv.Itoa(min)+" characters.")
	case password != confirmation:
		f.Add("password", mismatchMsg)
	}
}
