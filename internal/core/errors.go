package core

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"canteen/internal/catalog"
)

var (
	ErrNotFound          = catalog.ErrNotFound
	ErrOrderNotPersisted = errors.New("order could not be saved")
)

// FieldError is one recoverable problem with customer or vendor input
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Field error codes
const (
	CodeRequired         = "required"
	CodeLimitExceeded    = "limit_exceeded"
	CodeUnknownOption    = "unknown_option"
	CodeUnavailable      = "unavailable"
	CodeCategoryRequired = "category_required"
	CodeTooDeep          = "nesting_too_deep"
	CodeInvalidQuantity  = "invalid_quantity"
	CodeUnscheduledDay   = "unscheduled_day"
	CodeConcessionClosed = "concession_closed"
	CodeClosingSoon      = "closing_soon"
	CodeOutsideHours     = "outside_hours"
	CodeNegativePrice    = "negative_price"
)

// ValidationError collects field errors. It is never fatal.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func NewValidationError(fields ...FieldError) *ValidationError {
	return &ValidationError{Fields: fields}
}

// AsValidation unwraps a ValidationError from err
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// ConfigWarning is a vendor-side notice raised while editing the menu.
// Warnings never block the edit.
type ConfigWarning struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	GroupID    int64  `json:"group_id,omitempty"`
	CategoryID int64  `json:"category_id,omitempty"`
	MenuItemID int64  `json:"menu_item_id,omitempty"`
}

const (
	WarnZeroPrice        = "zero_price"
	WarnCombinedZero     = "combined_zero_price"
	WarnMissingCategory  = "missing_category"
	WarnMissingMenuItem  = "missing_menu_item"
	WarnLimitBelowNeeded = "multi_limit_invalid"
)

// HTTPStatus maps a service error onto a response code
func HTTPStatus(err error) int {
	if _, ok := AsValidation(err); ok {
		return http.StatusUnprocessableEntity
	}
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
