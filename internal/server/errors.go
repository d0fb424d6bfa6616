package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	archivedomain "github.com/muralikrishna41140/cakeraft-sub001/internal/archive/domain"
	authdomain "github.com/muralikrishna41140/cakeraft-sub001/internal/auth/domain"
	"github.com/muralikrishna41140/cakeraft-sub001/internal/authorization"
	billingdomain "github.com/muralikrishna41140/cakeraft-sub001/internal/billing/domain"
	catalogdomain "github.com/muralikrishna41140/cakeraft-sub001/internal/catalog/domain"
	loyaltydomain "github.com/muralikrishna41140/cakeraft-sub001/internal/loyalty/domain"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrConflict           = errors.New("conflict")
	ErrInternal           = errors.New("internal_error")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrRateLimited        = errors.New("rate_limited")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, authdomain.ErrInvalidCredentials),
		errors.Is(err, authdomain.ErrInvalidSession),
		errors.Is(err, authdomain.ErrSessionNotFound),
		errors.Is(err, authdomain.ErrSessionExpired),
		errors.Is(err, authdomain.ErrSessionRevoked):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, authorization.ErrForbidden):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case errors.Is(err, ErrConflict),
		errors.Is(err, authdomain.ErrUserExists),
		errors.Is(err, catalogdomain.ErrDuplicateName),
		errors.Is(err, catalogdomain.ErrCategoryInUse),
		errors.Is(err, archivedomain.ErrExportLocked):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "conflict",
		}
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many requests",
		}
	case errors.Is(err, billingdomain.ErrProductNotFound):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "product does not exist or is inactive",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, billingdomain.ErrTransaction):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "transaction_error",
			Message: "could not complete the transaction, please retry",
		}
	case errors.Is(err, ErrServiceUnavailable):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
		}
	case errors.Is(err, ErrInternal):
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

// classifyErrorForLog mirrors mapError for the request logger without
// rendering a payload.
func classifyErrorForLog(err error) (string, string) {
	if err == nil {
		return "", ""
	}
	if vErr := asValidationErrors(err); vErr != nil {
		if len(vErr.Errors) > 0 {
			return "validation_error", vErr.Errors[0].Code
		}
		return "validation_error", ""
	}
	_, payload := mapError(err)
	code := payload.Type
	if len(payload.Errors) > 0 {
		code = payload.Errors[0].Code
	}
	return payload.Type, code
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return true
	case isBillingValidationError(err),
		isCatalogValidationError(err),
		isLoyaltyValidationError(err):
		return true
	default:
		return false
	}
}

func isBillingValidationError(err error) bool {
	switch {
	case errors.Is(err, billingdomain.ErrInvalidCustomer),
		errors.Is(err, billingdomain.ErrNoItems),
		errors.Is(err, billingdomain.ErrInvalidQuantity),
		errors.Is(err, billingdomain.ErrInvalidDiscount),
		errors.Is(err, billingdomain.ErrInvalidWeight),
		errors.Is(err, billingdomain.ErrWeightRequired),
		errors.Is(err, billingdomain.ErrInvalidID),
		errors.Is(err, billingdomain.ErrInvalidRange):
		return true
	default:
		return false
	}
}

func isCatalogValidationError(err error) bool {
	switch {
	case errors.Is(err, catalogdomain.ErrInvalidName),
		errors.Is(err, catalogdomain.ErrInvalidPrice),
		errors.Is(err, catalogdomain.ErrInvalidCategory),
		errors.Is(err, catalogdomain.ErrInvalidID):
		return true
	default:
		return false
	}
}

func isLoyaltyValidationError(err error) bool {
	return errors.Is(err, loyaltydomain.ErrInvalidPhone)
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, billingdomain.ErrNotFound),
		errors.Is(err, billingdomain.ErrProductNotFound),
		errors.Is(err, catalogdomain.ErrNotFound),
		errors.Is(err, authdomain.ErrUserNotFound),
		errors.Is(err, archivedomain.ErrBillNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func validationErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	default:
		return err.Error()
	}
}

func validationErrorField(code string) string {
	switch code {
	case "invalid_request":
		return "request"
	case "invalid_customer":
		return "customer_phone"
	case "no_items":
		return "items"
	case "invalid_quantity":
		return "quantity"
	case "invalid_discount":
		return "discount"
	case "invalid_weight", "weight_required":
		return "weight"
	case "invalid_range":
		return "range"
	case "invalid_phone":
		return "phone"
	case "invalid_name":
		return "name"
	case "invalid_price":
		return "price"
	case "invalid_category":
		return "category_id"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	case "invalid_customer":
		return "customer name and phone are required"
	case "no_items":
		return "at least one item is required"
	case "invalid_quantity":
		return "quantity must be a positive integer"
	case "invalid_discount":
		return "discount is malformed or exceeds the line subtotal"
	case "invalid_weight":
		return "weight must be greater than zero"
	case "weight_required":
		return "weight is required for weight-priced products"
	case "invalid_range":
		return "from/to must be dates formatted YYYY-MM-DD"
	case "invalid_phone":
		return "phone number is required"
	default:
		return "invalid value"
	}
}
