package httppresentation

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/apperr"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/observability"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/observability/logctx"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// envelope is the body of every API response.
type envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
	Data    any               `json:"data,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func success(c *gin.Context, status int, message string, data any) {
	c.JSON(status, envelope{Success: true, Message: message, Data: data})
}

// failure maps err onto a status and a client-safe message. serverMsg is used for
// failures that have no client meaning; their cause is only logged.
func (h *Handler) failure(c *gin.Context, err error, serverMsg string) {
	status, body := h.describe(err, serverMsg)
	if status >= http.StatusInternalServerError {
		logctx.FromOr(c.Request.Context(), h.log).Error("http_request_failed",
			observability.F("route", routeOf(c)),
			observability.F("kind", string(apperr.KindOf(err))),
			observability.F("error", err.Error()),
		)
	}
	c.AbortWithStatusJSON(status, body)
}

func (h *Handler) describe(err error, serverMsg string) (int, envelope) {
	body := envelope{Success: false}

	var (
		vErr     *apperr.ValidationError
		stockErr *apperr.InsufficientStockError
		stateErr *apperr.InvalidStateError
		nfErr    *apperr.NotFoundError
		confErr  *apperr.ConflictError
		unauth   *apperr.UnauthorizedError
		forbid   *apperr.ForbiddenError
	)
	switch {
	case errors.As(err, &vErr):
		body.Message = "Validation error"
		body.Errors = vErr.Fields
		return http.StatusUnprocessableEntity, body
	case apperr.KindOf(err) == apperr.KindEmptyCart:
		body.Message = "Cart is empty"
		return http.StatusBadRequest, body
	case errors.As(err, &stockErr):
		body.Message = fmt.Sprintf("Insufficient stock for %s. Only %d available.", stockErr.ProductName, stockErr.Available)
		body.Data = gin.H{"product_id": stockErr.ProductID, "available": stockErr.Available}
		return http.StatusBadRequest, body
	case errors.As(err, &stateErr):
		body.Message = fmt.Sprintf("This %s cannot %s in its current state.", stateErr.Resource, stateErr.Action)
		return http.StatusBadRequest, body
	case errors.As(err, &nfErr):
		body.Message = capitalize(nfErr.Resource) + " not found"
		return http.StatusNotFound, body
	case errors.As(err, &confErr):
		body.Message = confErr.Error()
		return http.StatusConflict, body
	case errors.As(err, &unauth):
		body.Message = unauth.Error()
		return http.StatusUnauthorized, body
	case errors.As(err, &forbid):
		body.Message = forbid.Error()
		return http.StatusForbidden, body
	}
	body.Message = serverMsg
	return http.StatusInternalServerError, body
}

// bindJSON decodes the body and runs the binding rules. It writes the response and
// returns false when the request is rejected.
func (h *Handler) bindJSON(c *gin.Context, dst any) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return true
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		h.failure(c, &apperr.ValidationError{Fields: fieldErrors(verrs)}, "")
		return false
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, envelope{Success: false, Message: "Malformed request body"})
	return false
}

func fieldErrors(verrs validator.ValidationErrors) map[string]string {
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		field := fieldPath(fe.Namespace())
		if _, seen := out[field]; seen {
			continue
		}
		out[field] = fieldMessage(fe)
	}
	return out
}

// fieldPath drops the request struct name: "placeOrderRequest.shipping.email" → "shipping.email".
func fieldPath(ns string) string {
	if _, rest, found := strings.Cut(ns, "."); found {
		return rest
	}
	return ns
}

func fieldMessage(fe validator.FieldError) string {
	name := strings.ReplaceAll(fe.Field(), "_", " ")
	switch fe.Tag() {
	case "required":
		return "The " + name + " field is required."
	case "email":
		return "The " + name + " must be a valid email address."
	case "oneof":
		return "The selected " + name + " is invalid."
	case "max":
		return "The " + name + " may not be greater than " + fe.Param() + " characters."
	case "min", "gte":
		if fe.Kind() == reflect.String {
			return "The " + name + " must be at least " + fe.Param() + " characters."
		}
		return "The " + name + " must be at least " + fe.Param() + "."
	}
	return "The " + name + " is invalid."
}

var tagNameOnce sync.Once

// useJSONFieldNames makes validation errors report the JSON names of the fields.
func useJSONFieldNames() {
	tagNameOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
	})
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
