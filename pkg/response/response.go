package response

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	apperrors "motomarket/pkg/errors"
	"motomarket/pkg/logger"
)

type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
}

type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PageRef points at an adjacent result page.
type PageRef struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Pagination carries next/prev refs; next is omitted on the last page and
// prev on the first.
type Pagination struct {
	Next *PageRef `json:"next,omitempty"`
	Prev *PageRef `json:"prev,omitempty"`
}

type ListResponse struct {
	Success    bool        `json:"success"`
	Count      int         `json:"count"`
	Pagination Pagination  `json:"pagination"`
	Data       interface{} `json:"data"`
}

// BuildPagination derives next/prev refs from the total the count query
// reported. Next is present iff page*limit < total, prev iff page > 1.
func BuildPagination(page, limit int, total int64) Pagination {
	var p Pagination
	if int64(page*limit) < total {
		p.Next = &PageRef{Page: page + 1, Limit: limit}
	}
	if page > 1 {
		p.Prev = &PageRef{Page: page - 1, Limit: limit}
	}
	return p
}

func Success(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

func Created(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusCreated, Response{Success: true, Data: data})
}

// Collection writes an unpaginated list with its count.
func Collection(c echo.Context, items interface{}, count int) error {
	return c.JSON(http.StatusOK, ListResponse{
		Success: true,
		Count:   count,
		Data:    items,
	})
}

func List(c echo.Context, items interface{}, count int, page, limit int, total int64) error {
	return c.JSON(http.StatusOK, ListResponse{
		Success:    true,
		Count:      count,
		Pagination: BuildPagination(page, limit, total),
		Data:       items,
	})
}

// Error maps domain and validation errors onto the wire envelope. Anything
// unrecognized is logged and returned as a generic 500.
func Error(c echo.Context, err error) error {
	var validationErr validator.ValidationErrors
	if errors.As(err, &validationErr) {
		return handleValidationError(c, validationErr)
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Status >= http.StatusInternalServerError {
			logger.Error("request failed: %v (cause: %v)", appErr, appErr.Err)
		}
		return c.JSON(appErr.Status, Response{
			Success: false,
			Error:   &ErrorInfo{Code: appErr.Code, Message: appErr.Message},
		})
	}

	logger.Error("unexpected error: %v", err)
	return c.JSON(http.StatusInternalServerError, Response{
		Success: false,
		Error:   &ErrorInfo{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"},
	})
}

func handleValidationError(c echo.Context, validationErr validator.ValidationErrors) error {
	message := "Invalid input data"
	for _, fieldErr := range validationErr {
		field := strings.ToLower(fieldErr.Field())
		switch fieldErr.Tag() {
		case "required":
			message = field + " is required"
		case "min":
			message = field + " must be at least " + fieldErr.Param()
		case "max":
			message = field + " must be at most " + fieldErr.Param()
		case "oneof":
			message = field + " must be one of: " + fieldErr.Param()
		case "email":
			message = field + " must be a valid email address"
		case "gt":
			message = field + " must be greater than " + fieldErr.Param()
		default:
			message = field + " is invalid"
		}
		break
	}

	return c.JSON(http.StatusBadRequest, Response{
		Success: false,
		Error:   &ErrorInfo{Code: "VALIDATION_ERROR", Message: message},
	})
}
