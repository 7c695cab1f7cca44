package httppresentation

import (
	"net/http"
	"time"

	"github.com/Zhima-Mochi/minishop-marketplace/internal/application/auth"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/apperr"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/user"
	"github.com/gin-gonic/gin"
)

type buyerRegisterRequest struct {
	Name                 string `json:"name" binding:"required"`
	Email                string `json:"email" binding:"required"`
	Password             string `json:"password" binding:"required"`
	PasswordConfirmation string `json:"password_confirmation"`
}

type sellerRegisterRequest struct {
	FirstName            string `json:"first_name"`
	LastName             string `json:"last_name"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
	StoreName            string `json:"store_name"`
	Phone                string `json:"phone"`
	TermsAccepted        bool   `json:"terms_accepted"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type sessionView struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      userView  `json:"user"`
}

func toSessionView(s *auth.Session) sessionView {
	return sessionView{Token: s.Token, ExpiresAt: s.ExpiresAt, User: toUserView(s.User)}
}

// loginMessages words the login failures per role.
var loginMessages = map[user.Role]map[apperr.Kind]string{
	user.RoleBuyer: {
		apperr.KindNotFound:     "No account found with this email address.",
		apperr.KindUnauthorized: "Invalid password.",
	},
	user.RoleSeller: {
		apperr.KindNotFound:     "No seller account found with this email address. Please register as a seller first.",
		apperr.KindUnauthorized: "Invalid password. Please check your credentials and try again.",
	},
}

func (h *Handler) handleBuyerRegister(c *gin.Context) {
	var req buyerRegisterRequest
	if !h.bindJSON(c, &req) {
		return
	}
	sess, err := h.auth.RegisterBuyer(c.Request.Context(), auth.RegisterBuyerCommand{
		Name:                 req.Name,
		Email:                req.Email,
		Password:             req.Password,
		PasswordConfirmation: req.PasswordConfirmation,
	})
	if err != nil {
		h.failure(c, err, "Registration failed")
		return
	}
	success(c, http.StatusCreated, "Account created successfully!", toSessionView(sess))
}

func (h *Handler) handleSellerRegister(c *gin.Context) {
	var req sellerRegisterRequest
	if !h.bindJSON(c, &req) {
		return
	}
	sess, err := h.auth.RegisterSeller(c.Request.Context(), auth.RegisterSellerCommand{
		FirstName:            req.FirstName,
		LastName:             req.LastName,
		Email:                req.Email,
		Password:             req.Password,
		PasswordConfirmation: req.PasswordConfirmation,
		StoreName:            req.StoreName,
		Phone:                req.Phone,
		TermsAccepted:        req.TermsAccepted,
	})
	if err != nil {
		h.failure(c, err, "Registration failed")
		return
	}
	success(c, http.StatusCreated, "Seller account created successfully!", toSessionView(sess))
}

func (h *Handler) handleLogin(role user.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if !h.bindJSON(c, &req) {
			return
		}
		sess, err := h.auth.Login(c.Request.Context(), auth.LoginCommand{
			Email:    req.Email,
			Password: req.Password,
			Role:     role,
		})
		if err != nil {
			if msg, found := loginMessages[role][apperr.KindOf(err)]; found {
				status, _ := h.describe(err, "")
				c.AbortWithStatusJSON(status, envelope{Success: false, Message: msg})
				return
			}
			h.failure(c, err, "Login failed")
			return
		}
		success(c, http.StatusOK, "Login successful!", toSessionView(sess))
	}
}

// handleLogout acknowledges the request; tokens are stateless and expire on their own.
func (h *Handler) handleLogout(c *gin.Context) {
	success(c, http.StatusOK, "Logged out successfully!", nil)
}

func (h *Handler) handleProfile(role user.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, err := h.auth.Profile(c.Request.Context(), principal(c), role)
		if err != nil {
			h.failure(c, err, "Failed to load profile")
			return
		}
		success(c, http.StatusOK, "", toUserView(u))
	}
}
